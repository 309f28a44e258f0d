package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAddr            = ":8000"
	defaultAllowedOrigin   = "http://localhost:3000"
	defaultProviderTimeout = 60 * time.Second
)

// config is the resolved server configuration.
type config struct {
	addr            string
	allowedOrigins  []string
	providerTimeout time.Duration
	idleTimeout     time.Duration
	logLevel        slog.Level
	traceExporter   string
	systemPrompt    string

	azure  azureConfig
	openai openaiConfig
	gemini geminiConfig
}

type azureConfig struct {
	apiKey     string
	endpoint   string
	apiVersion string
	deployment string
}

type openaiConfig struct {
	apiKey  string
	baseURL string
	model   string
}

type geminiConfig struct {
	apiKey      string
	model       string
	temperature *float32
}

// loadConfig resolves the configuration from getenv. Env is only read in
// main() and handed in as a function.
func loadConfig(getenv func(string) string) (config, error) {
	cfg := config{
		addr:            valueOr(getenv("PARLEY_ADDR"), defaultAddr),
		allowedOrigins:  splitList(valueOr(getenv("PARLEY_ALLOWED_ORIGINS"), defaultAllowedOrigin)),
		providerTimeout: defaultProviderTimeout,
		traceExporter:   strings.ToLower(valueOr(getenv("PARLEY_TRACE_EXPORTER"), "none")),
		systemPrompt:    getenv("PARLEY_SYSTEM_PROMPT"),
		azure: azureConfig{
			apiKey:     getenv("AZURE_OPENAI_API_KEY"),
			endpoint:   getenv("AZURE_OPENAI_ENDPOINT"),
			apiVersion: getenv("AZURE_OPENAI_API_VERSION"),
			deployment: getenv("AZURE_OPENAI_DEPLOYMENT"),
		},
		openai: openaiConfig{
			apiKey:  getenv("OPENAI_API_KEY"),
			baseURL: getenv("OPENAI_BASE_URL"),
			model:   getenv("OPENAI_MODEL"),
		},
		gemini: geminiConfig{
			apiKey: valueOr(getenv("GEMINI_API_KEY"), getenv("GOOGLE_API_KEY")),
			model:  getenv("GEMINI_MODEL"),
		},
	}

	var err error
	if v := getenv("PARLEY_PROVIDER_TIMEOUT"); v != "" {
		if cfg.providerTimeout, err = parsePositiveDuration("PARLEY_PROVIDER_TIMEOUT", v); err != nil {
			return config{}, err
		}
	}
	if v := getenv("PARLEY_SESSION_IDLE_TIMEOUT"); v != "" && v != "0" {
		if cfg.idleTimeout, err = parsePositiveDuration("PARLEY_SESSION_IDLE_TIMEOUT", v); err != nil {
			return config{}, err
		}
	}
	if v := getenv("GEMINI_TEMPERATURE"); v != "" {
		if cfg.gemini.temperature, err = parseTemperature("GEMINI_TEMPERATURE", v); err != nil {
			return config{}, err
		}
	}
	if cfg.logLevel, err = parseLevel(valueOr(getenv("PARLEY_LOG_LEVEL"), "info")); err != nil {
		return config{}, err
	}
	switch cfg.traceExporter {
	case "none", "stdout":
	default:
		return config{}, fmt.Errorf("PARLEY_TRACE_EXPORTER: unknown exporter %q: must be \"none\" or \"stdout\"", cfg.traceExporter)
	}
	if cfg.azure.endpoint != "" && cfg.azure.apiKey == "" {
		return config{}, fmt.Errorf("AZURE_OPENAI_ENDPOINT is set but AZURE_OPENAI_API_KEY is not")
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}

func parsePositiveDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", name, s)
	}
	return d, nil
}

func parseTemperature(name, s string) (*float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if f < 0 || f > 2 {
		return nil, fmt.Errorf("%s: must be between 0 and 2, got %s", name, s)
	}
	t := float32(f)
	return &t, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
