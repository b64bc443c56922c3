// Package provider builds provider-shaped payloads and performs the
// network exchange. There is one request builder parameterized by the
// resolved model profile; provider differences (endpoint, credential)
// are data, not branching logic. All registry providers speak the
// OpenAI chat-completions wire shape.
package provider

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"

	"github.com/shopwise/advisor/internal/domain"
	"github.com/shopwise/advisor/internal/registry"
)

// Credentials resolves the configured API key for a provider name.
// An empty string means no credential is configured.
type Credentials interface {
	KeyFor(provider string) string
}

// Payload is one provider-shaped request, ready to send. It pairs the
// wire parameters with the profile and credential that route it.
type Payload struct {
	Profile registry.ModelProfile
	APIKey  string
	Params  openai.ChatCompletionNewParams
}

// Build constructs the payload for one prompt request. It fails with
// domain.ErrMissingCredential when the profile's provider has no key
// configured and with *domain.UnsupportedMediaError when an image is
// supplied to a non-vision model. Side-effect-free.
func Build(req domain.PromptRequest, profile registry.ModelProfile, creds Credentials) (*Payload, error) {
	apiKey := creds.KeyFor(profile.Provider)
	if apiKey == "" {
		return nil, fmt.Errorf("provider %s: %w", profile.Provider, domain.ErrMissingCredential)
	}

	if len(req.Image) > 0 && !profile.SupportsVision {
		return nil, &domain.UnsupportedMediaError{Model: profile.ID}
	}

	var message openai.ChatCompletionMessageParamUnion
	if len(req.Image) > 0 {
		message = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: imageDataURL(req.Image),
			}),
		})
	} else {
		message = openai.UserMessage(req.Prompt)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(profile.ID),
		Messages: []openai.ChatCompletionMessageParamUnion{message},
	}

	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	return &Payload{
		Profile: profile,
		APIKey:  apiKey,
		Params:  params,
	}, nil
}

// imageDataURL embeds image bytes inline as a base64 data URL with a
// sniffed media type.
func imageDataURL(image []byte) string {
	mediaType := http.DetectContentType(image)
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(image))
}
