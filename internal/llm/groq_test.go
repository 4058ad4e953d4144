package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"fitmate/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroq(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{GroqAPIKey: "test-key", GroqModel: "llama-test"}
	return NewGroqClient(cfg, WithGroqEndpoint(srv.URL), WithHTTPClient(srv.Client()))
}

func TestGroqGenerateContent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var body groqRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "llama-test", body.Model)
			assert.Equal(t, "json_object", body.ResponseFormat["type"])
			require.Len(t, body.Messages, 1)
			assert.Equal(t, "hello", body.Messages[0].Content)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"choices": [{"message": {"content": "{\"workout\": []}"}}],
				"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
			}`))
		})

		resp, err := client.GenerateContent(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, `{"workout": []}`, resp.Content)
		assert.Equal(t, 12, resp.Usage.PromptTokens)
		assert.Equal(t, 5, resp.Usage.CompletionTokens)
		assert.Equal(t, 17, resp.Usage.TotalTokens)
		assert.Equal(t, "llama-test", resp.Usage.Model)
	})

	t.Run("NonOKStatusIsTransportError", func(t *testing.T) {
		client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error": "invalid api key"}`))
		})

		_, err := client.GenerateContent(context.Background(), "hello")
		require.Error(t, err)

		var terr *TransportError
		require.True(t, errors.As(err, &terr))
		assert.Equal(t, http.StatusUnauthorized, terr.StatusCode)
		assert.Contains(t, terr.Error(), "invalid api key")
	})

	t.Run("UndecodableEnvelopeIsTransportError", func(t *testing.T) {
		client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		})

		_, err := client.GenerateContent(context.Background(), "hello")
		var terr *TransportError
		require.True(t, errors.As(err, &terr))
	})

	t.Run("NoChoicesYieldsEmptyContent", func(t *testing.T) {
		client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		})

		resp, err := client.GenerateContent(context.Background(), "hello")
		require.NoError(t, err)
		assert.Empty(t, resp.Content)
	})

	t.Run("CancelledContextIsTransportError", func(t *testing.T) {
		client := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.GenerateContent(ctx, "hello")
		var terr *TransportError
		require.True(t, errors.As(err, &terr))
		assert.ErrorIs(t, err, context.Canceled)
	})
}
