package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwojciec/parley"
	"github.com/fwojciec/parley/gemini"
	"github.com/fwojciec/parley/openai"
)

// buildProviders constructs an adapter for every configured model. Azure
// OpenAI takes precedence over plain OpenAI for gpt4.
func buildProviders(ctx context.Context, cfg config) (map[parley.Model]parley.Provider, error) {
	providers := make(map[parley.Model]parley.Provider)

	switch {
	case cfg.azure.apiKey != "":
		if cfg.azure.endpoint == "" {
			return nil, errors.New("AZURE_OPENAI_API_KEY is set but AZURE_OPENAI_ENDPOINT is not")
		}
		var opts []openai.Option
		if cfg.openai.model != "" {
			opts = append(opts, openai.WithModel(cfg.openai.model))
		}
		opts = append(opts, openai.WithAzure(cfg.azure.endpoint, cfg.azure.apiVersion, cfg.azure.deployment))
		providers[parley.ModelGPT4] = openai.New(cfg.azure.apiKey, opts...)
	case cfg.openai.apiKey != "":
		var opts []openai.Option
		if cfg.openai.model != "" {
			opts = append(opts, openai.WithModel(cfg.openai.model))
		}
		if cfg.openai.baseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.openai.baseURL))
		}
		providers[parley.ModelGPT4] = openai.New(cfg.openai.apiKey, opts...)
	}

	if cfg.gemini.apiKey != "" {
		var opts []gemini.Option
		if cfg.gemini.model != "" {
			opts = append(opts, gemini.WithModel(cfg.gemini.model))
		}
		if cfg.gemini.temperature != nil {
			opts = append(opts, gemini.WithTemperature(*cfg.gemini.temperature))
		}
		client, err := gemini.New(ctx, cfg.gemini.apiKey, opts...)
		if err != nil {
			return nil, err
		}
		providers[parley.ModelGemini] = client
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no provider configured: set AZURE_OPENAI_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY")
	}
	return providers, nil
}
