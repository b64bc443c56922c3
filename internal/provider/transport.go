package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/shopwise/advisor/internal/domain"
	"github.com/shopwise/advisor/internal/observability"
)

// Transport performs a single blocking exchange per payload. It owns no
// retry policy: retries belong exclusively to the tax-rate controller
// above it, so the SDK-level retry count is pinned to zero.
type Transport struct {
	timeout time.Duration

	mu      sync.Mutex
	clients map[string]openai.Client
}

// NewTransport creates a transport with a per-request timeout.
func NewTransport(timeout time.Duration) *Transport {
	return &Transport{
		timeout: timeout,
		clients: make(map[string]openai.Client),
	}
}

// Send performs one exchange and returns the completion text plus
// token-usage metadata when the provider reports it. Any network or
// HTTP-layer failure surfaces as *domain.TransportError with the raw
// status and body preserved, uninterpreted.
func (t *Transport) Send(ctx context.Context, payload *Payload) (*domain.Completion, error) {
	client := t.clientFor(payload)

	logger := observability.FromContext(ctx)
	logger.Debug("dispatching provider request",
		zap.String("provider", payload.Profile.Provider),
		zap.String("model", payload.Profile.ID))

	resp, err := client.Chat.Completions.New(ctx, payload.Params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &domain.TransportError{
				Status: apiErr.StatusCode,
				Body:   apiErr.RawJSON(),
				Err:    err,
			}
		}
		return nil, &domain.TransportError{Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &domain.TransportError{Err: fmt.Errorf("provider %s returned no choices", payload.Profile.Provider)}
	}

	completion := &domain.Completion{Text: resp.Choices[0].Message.Content}

	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		completion.Usage = &domain.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		}
	}

	logger.Debug("provider request completed",
		zap.Int("response_chars", len(completion.Text)),
		zap.Bool("usage_reported", completion.Usage != nil))

	return completion, nil
}

// clientFor returns a cached SDK client for the payload's endpoint and
// key. Clients are stateless beyond connection pooling, so one per
// endpoint+credential pair suffices.
func (t *Transport) clientFor(payload *Payload) openai.Client {
	cacheKey := payload.Profile.Endpoint + "\x00" + payload.APIKey

	t.mu.Lock()
	defer t.mu.Unlock()

	if client, ok := t.clients[cacheKey]; ok {
		return client
	}

	opts := []option.RequestOption{
		option.WithAPIKey(payload.APIKey),
		option.WithBaseURL(payload.Profile.Endpoint),
		option.WithMaxRetries(0),
	}
	if t.timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(t.timeout))
	}

	client := openai.NewClient(opts...)
	t.clients[cacheKey] = client
	return client
}
