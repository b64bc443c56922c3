package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shopwise/advisor/internal/domain"
	"github.com/shopwise/advisor/internal/provider"
	"github.com/shopwise/advisor/internal/registry"
)

// staticCredentials maps provider names to keys for tests.
type staticCredentials map[string]string

func (c staticCredentials) KeyFor(name string) string { return c[name] }

// pngHeader is a minimal payload that sniffs as image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func visionProfile() registry.ModelProfile {
	return registry.New().Resolve("gpt-4o")
}

func textProfile() registry.ModelProfile {
	return registry.New().Resolve("sonar")
}

func TestBuild(t *testing.T) {
	creds := staticCredentials{
		registry.ProviderOpenAI:     "sk-test",
		registry.ProviderPerplexity: "pplx-test",
	}

	t.Run("text-only payload", func(t *testing.T) {
		payload, err := provider.Build(domain.PromptRequest{
			Model:     "sonar",
			Prompt:    "what is the sales tax in Austin, TX?",
			MaxTokens: 300,
		}, textProfile(), creds)

		require.NoError(t, err)
		require.Equal(t, "pplx-test", payload.APIKey)

		wire, marshalErr := json.Marshal(payload.Params)
		require.NoError(t, marshalErr)
		require.Contains(t, string(wire), `"model":"sonar"`)
		require.Contains(t, string(wire), "sales tax in Austin")
		require.Contains(t, string(wire), `"max_tokens":300`)
	})

	t.Run("image payload embeds a base64 data url", func(t *testing.T) {
		payload, err := provider.Build(domain.PromptRequest{
			Model:  "gpt-4o",
			Prompt: "read this price tag",
			Image:  pngHeader,
		}, visionProfile(), creds)

		require.NoError(t, err)

		wire, marshalErr := json.Marshal(payload.Params)
		require.NoError(t, marshalErr)
		require.Contains(t, string(wire), `"type":"image_url"`)
		require.Contains(t, string(wire), "data:image/png;base64,")
	})

	t.Run("image to non-vision model fails", func(t *testing.T) {
		_, err := provider.Build(domain.PromptRequest{
			Model:  "sonar",
			Prompt: "read this price tag",
			Image:  pngHeader,
		}, textProfile(), creds)

		var mediaErr *domain.UnsupportedMediaError
		require.ErrorAs(t, err, &mediaErr)
		require.Equal(t, "sonar", mediaErr.Model)
	})

	t.Run("missing credential fails", func(t *testing.T) {
		_, err := provider.Build(domain.PromptRequest{
			Model:  "gpt-4o",
			Prompt: "hello",
		}, visionProfile(), staticCredentials{})

		require.ErrorIs(t, err, domain.ErrMissingCredential)
	})
}

func completionJSON(content string, promptTokens, completionTokens int) string {
	return `{
		"id": "cmpl-test",
		"object": "chat.completion",
		"created": 1700000000,
		"model": "gpt-4o",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": ` + mustJSON(content) + `}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": ` + jsonInt(promptTokens) + `, "completion_tokens": ` + jsonInt(completionTokens) + `, "total_tokens": ` + jsonInt(promptTokens+completionTokens) + `}
	}`
}

func mustJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func jsonInt(n int) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func testPayload(t *testing.T, endpoint string) *provider.Payload {
	t.Helper()

	profile := visionProfile()
	profile.Endpoint = endpoint

	payload, err := provider.Build(domain.PromptRequest{
		Model:  profile.ID,
		Prompt: "hello",
	}, profile, staticCredentials{registry.ProviderOpenAI: "sk-test"})
	require.NoError(t, err)
	return payload
}

func TestTransport_Send(t *testing.T) {
	t.Run("returns text and reported usage", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(completionJSON("hi there", 12, 7)))
		}))
		defer server.Close()

		transport := provider.NewTransport(5 * time.Second)
		completion, err := transport.Send(context.Background(), testPayload(t, server.URL))

		require.NoError(t, err)
		require.Equal(t, "hi there", completion.Text)
		require.NotNil(t, completion.Usage)
		require.Equal(t, 12, completion.Usage.InputTokens)
		require.Equal(t, 7, completion.Usage.OutputTokens)
	})

	t.Run("missing usage yields nil metadata", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(completionJSON("hi", 0, 0)))
		}))
		defer server.Close()

		transport := provider.NewTransport(5 * time.Second)
		completion, err := transport.Send(context.Background(), testPayload(t, server.URL))

		require.NoError(t, err)
		require.Nil(t, completion.Usage)
	})

	t.Run("http failure surfaces as transport error with status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": {"message": "upstream exploded"}}`))
		}))
		defer server.Close()

		transport := provider.NewTransport(5 * time.Second)
		_, err := transport.Send(context.Background(), testPayload(t, server.URL))

		var transportErr *domain.TransportError
		require.True(t, errors.As(err, &transportErr))
		require.Equal(t, http.StatusInternalServerError, transportErr.Status)
	})

	t.Run("unreachable endpoint surfaces as transport error", func(t *testing.T) {
		transport := provider.NewTransport(time.Second)
		_, err := transport.Send(context.Background(), testPayload(t, "http://127.0.0.1:1"))

		var transportErr *domain.TransportError
		require.True(t, errors.As(err, &transportErr))
		require.Zero(t, transportErr.Status)
	})
}
