package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/parley"
	parleyhttp "github.com/fwojciec/parley/http"
	"github.com/fwojciec/parley/memory"
	"github.com/fwojciec/parley/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var got map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	}
	return rec, got
}

func TestServer_Ping(t *testing.T) {
	t.Parallel()
	srv := parleyhttp.NewServer(&mock.SessionService{})
	rec, body := do(t, srv, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestServer_Start(t *testing.T) {
	t.Parallel()

	t.Run("starts session", func(t *testing.T) {
		t.Parallel()
		svc := &mock.SessionService{
			StartSessionFn: func(_ context.Context, m parley.Model) (parley.Session, error) {
				return parley.Session{ID: "abc", Model: m}, nil
			},
		}
		rec, body := do(t, parleyhttp.NewServer(svc), http.MethodPost, "/start", `{"model":"gemini"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "abc", body["client_id"])
		assert.Equal(t, "gemini", body["model"])
	})

	t.Run("rejects unknown model before the service", func(t *testing.T) {
		t.Parallel()
		svc := &mock.SessionService{}
		rec, body := do(t, parleyhttp.NewServer(svc), http.MethodPost, "/start", `{"model":"claude"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, parley.ECodeInvalidModel, body["kind"])
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		rec, body := do(t, parleyhttp.NewServer(&mock.SessionService{}), http.MethodPost, "/start", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, parleyhttp.ECodeInvalidRequest, body["kind"])
	})

	t.Run("adapter failure hides cause", func(t *testing.T) {
		t.Parallel()
		svc := &mock.SessionService{
			StartSessionFn: func(context.Context, parley.Model) (parley.Session, error) {
				return parley.Session{}, &parley.ProviderError{Model: parley.ModelGPT4, Err: errors.New("api key sk-123 rejected")}
			},
		}
		rec, body := do(t, parleyhttp.NewServer(svc), http.MethodPost, "/start", `{"model":"gpt4"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal Server Error", body["detail"])
		assert.Equal(t, parley.ECodeProvider, body["kind"])
		assert.NotContains(t, rec.Body.String(), "sk-123")
	})
}

func TestServer_Message(t *testing.T) {
	t.Parallel()

	t.Run("returns reply", func(t *testing.T) {
		t.Parallel()
		svc := &mock.SessionService{
			SendMessageFn: func(_ context.Context, id, text string) (parley.Reply, error) {
				assert.Equal(t, "abc", id)
				assert.Equal(t, " hi ", text)
				return parley.Reply{Text: "hello", Model: parley.ModelGPT4}, nil
			},
		}
		rec, body := do(t, parleyhttp.NewServer(svc), http.MethodPost, "/message", `{"client_id":"abc","message":" hi "}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hello", body["response"])
		assert.Equal(t, "gpt4", body["model"])
	})

	t.Run("unknown client", func(t *testing.T) {
		t.Parallel()
		svc := &mock.SessionService{
			SendMessageFn: func(context.Context, string, string) (parley.Reply, error) {
				return parley.Reply{}, parley.ErrSessionNotFound
			},
		}
		rec, body := do(t, parleyhttp.NewServer(svc), http.MethodPost, "/message", `{"client_id":"x","message":"hi"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid client_id", body["detail"])
		assert.Equal(t, parley.ECodeSessionNotFound, body["kind"])
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()
		svc := &mock.SessionService{
			SendMessageFn: func(context.Context, string, string) (parley.Reply, error) {
				return parley.Reply{}, &parley.ProviderError{Err: context.DeadlineExceeded}
			},
		}
		rec, _ := do(t, parleyhttp.NewServer(svc), http.MethodPost, "/message", `{"client_id":"x","message":"hi"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		t.Parallel()
		called := false
		svc := &mock.SessionService{
			SendMessageFn: func(context.Context, string, string) (parley.Reply, error) {
				called = true
				return parley.Reply{}, nil
			},
		}
		body := `{"client_id":"abc","message":"` + strings.Repeat("a", 2<<20) + `"}`
		rec, got := do(t, parleyhttp.NewServer(svc), http.MethodPost, "/message", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, parleyhttp.ECodeRequestTooLarge, got["kind"])
		assert.False(t, called)
	})
}

func TestServer_Unrouted(t *testing.T) {
	t.Parallel()
	srv := parleyhttp.NewServer(&mock.SessionService{})

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()
		rec, body := do(t, srv, http.MethodGet, "/message", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
		assert.Equal(t, parleyhttp.ECodeMethodNotAllowed, body["kind"])
		assert.Equal(t, "Method Not Allowed", body["detail"])
	})

	t.Run("unknown path", func(t *testing.T) {
		t.Parallel()
		rec, body := do(t, srv, http.MethodPost, "/restart", `{}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, parleyhttp.ECodeNotFound, body["kind"])
		assert.Equal(t, "Not Found", body["detail"])
	})

	t.Run("end without client id", func(t *testing.T) {
		t.Parallel()
		rec, body := do(t, srv, http.MethodDelete, "/end/", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, parleyhttp.ECodeNotFound, body["kind"])
	})
}

func TestServer_SwitchModel(t *testing.T) {
	t.Parallel()

	t.Run("switches", func(t *testing.T) {
		t.Parallel()
		svc := &mock.SessionService{
			SwitchProviderFn: func(_ context.Context, id string, m parley.Model) (parley.Model, error) {
				return m, nil
			},
		}
		rec, body := do(t, parleyhttp.NewServer(svc), http.MethodPost, "/switch-model", `{"client_id":"abc","model":"gemini"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Switched to gemini model", body["response"])
		assert.Equal(t, "gemini", body["model"])
	})

	t.Run("unknown client", func(t *testing.T) {
		t.Parallel()
		svc := &mock.SessionService{
			SwitchProviderFn: func(context.Context, string, parley.Model) (parley.Model, error) {
				return "", parley.ErrSessionNotFound
			},
		}
		rec, _ := do(t, parleyhttp.NewServer(svc), http.MethodPost, "/switch-model", `{"client_id":"x","model":"gpt4"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid model", func(t *testing.T) {
		t.Parallel()
		rec, _ := do(t, parleyhttp.NewServer(&mock.SessionService{}), http.MethodPost, "/switch-model", `{"client_id":"x","model":"gpt5"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestServer_End(t *testing.T) {
	t.Parallel()
	var ended string
	svc := &mock.SessionService{
		EndSessionFn: func(_ context.Context, id string) error {
			ended = id
			return nil
		},
	}
	rec, body := do(t, parleyhttp.NewServer(svc), http.MethodDelete, "/end/abc", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Conversation ended", body["detail"])
	assert.Equal(t, "abc", ended)
}

func TestServer_CORS(t *testing.T) {
	t.Parallel()
	srv := parleyhttp.NewServer(&mock.SessionService{}, parleyhttp.WithAllowedOrigins("http://localhost:3000"))

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/start", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	allowed := preflight("http://localhost:3000")
	assert.Equal(t, "http://localhost:3000", allowed.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", allowed.Header().Get("Access-Control-Allow-Credentials"))

	denied := preflight("http://evil.example")
	assert.Empty(t, denied.Header().Get("Access-Control-Allow-Origin"))
}

// TestServer_Conversation drives the real manager through the HTTP surface.
func TestServer_Conversation(t *testing.T) {
	t.Parallel()

	echo := func(prefix string, h parley.Handle) *mock.Provider {
		return &mock.Provider{
			StartFn: func(context.Context, string) (parley.Handle, error) { return h, nil },
			SendFn: func(_ context.Context, _ parley.Conversation, msg string) (string, error) {
				return prefix + msg, nil
			},
		}
	}
	manager := parley.NewManager(memory.New(), map[parley.Model]parley.Provider{
		parley.ModelGPT4:   echo("gpt4: ", nil),
		parley.ModelGemini: echo("gemini: ", mock.Handle(parley.ModelGemini)),
	})
	srv := parleyhttp.NewServer(manager)

	rec, body := do(t, srv, http.MethodPost, "/start", `{"model":"gpt4"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id, _ := body["client_id"].(string)
	require.NotEmpty(t, id)

	rec, body = do(t, srv, http.MethodPost, "/message", `{"client_id":"`+id+`","message":"I feel anxious"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gpt4: I feel anxious", body["response"])
	assert.Equal(t, "gpt4", body["model"])

	rec, body = do(t, srv, http.MethodPost, "/switch-model", `{"client_id":"`+id+`","model":"gemini"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gemini", body["model"])

	rec, body = do(t, srv, http.MethodPost, "/message", `{"client_id":"`+id+`","message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gemini: hello", body["response"])

	rec, _ = do(t, srv, http.MethodDelete, "/end/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, srv, http.MethodDelete, "/end/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, srv, http.MethodPost, "/message", `{"client_id":"`+id+`","message":"still there?"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, parley.ECodeSessionNotFound, body["kind"])
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := parleyhttp.NewServer(&mock.SessionService{})
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln, time.Second) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
