package adapter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/genlang/pkg/adapter"
	"github.com/m-mizutani/genlang/pkg/model"
)

func TestAPIKeyGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"))
		gt.Equal(t, r.Header.Get("x-goog-api-key"), "test-key")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "Hello"}]}}]}`))
	}))
	defer srv.Close()

	client, err := adapter.NewAPIKey(context.Background(), "test-key", adapter.WithEndpoint(srv.URL))
	gt.NoError(t, err)

	resp, err := client.GenerateContent(context.Background(), helloRequest)
	gt.NoError(t, err)
	text, err := resp.Text()
	gt.NoError(t, err)
	gt.Equal(t, text, "Hello")
}

func TestAPIKeyGenerateContentEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates": []}`))
	}))
	defer srv.Close()

	client, err := adapter.NewAPIKey(context.Background(), "test-key", adapter.WithEndpoint(srv.URL))
	gt.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), helloRequest)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrMalformedResponse))
}

func TestAPIKeyListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, http.MethodGet)
		gt.True(t, strings.HasSuffix(r.URL.Path, "/models"))
		gt.Equal(t, r.Header.Get("x-goog-api-key"), "test-key")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models": [
			{"name": "models/gemini-2.5-flash", "displayName": "Gemini 2.5 Flash", "description": "fast", "inputTokenLimit": 1048576, "supportedGenerationMethods": ["generateContent", "countTokens"]},
			{"name": "models/text-embedding-004", "displayName": "Text Embedding 004", "supportedGenerationMethods": ["embedContent"]}
		]}`))
	}))
	defer srv.Close()

	client, err := adapter.NewAPIKey(context.Background(), "test-key", adapter.WithEndpoint(srv.URL))
	gt.NoError(t, err)

	models, err := client.ListModels(context.Background())
	gt.NoError(t, err)
	gt.A(t, models).Length(1)
	gt.Equal(t, models[0].Name, "models/gemini-2.5-flash")
	gt.Equal(t, models[0].DisplayName, "Gemini 2.5 Flash")
	gt.Equal(t, models[0].InputTokenLimit, int64(1048576))
}

func TestAPIKeyGenerateContentErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	client, err := adapter.NewAPIKey(context.Background(), "bad-key", adapter.WithEndpoint(srv.URL))
	gt.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), helloRequest)
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("API key not valid")
	gt.True(t, goerr.HasTag(err, model.TagTransport))
}

func TestAPIKeyEmpty(t *testing.T) {
	_, err := adapter.NewAPIKey(context.Background(), "")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagConfig))
}

func TestAPIKeyLive(t *testing.T) {
	apiKey := os.Getenv("TEST_GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("TEST_GEMINI_API_KEY is not set")
	}

	ctx := context.Background()
	client, err := adapter.NewAPIKey(ctx, apiKey)
	gt.NoError(t, err)

	models, err := client.ListModels(ctx)
	gt.NoError(t, err)
	gt.True(t, len(models) > 0)
	for _, m := range models {
		gt.True(t, m.Supports(model.MethodGenerateContent))
	}

	resp, err := client.GenerateContent(ctx, &model.GenerationRequest{
		Model:  "gemini-2.5-flash",
		Prompt: "Reply with the single word: pong",
	})
	gt.NoError(t, err)
	text, err := resp.Text()
	gt.NoError(t, err)
	t.Log("response:", text)
}
