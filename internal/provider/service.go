package provider

import (
	"context"

	"github.com/shopwise/advisor/internal/domain"
	"github.com/shopwise/advisor/internal/registry"
)

// Service implements domain.Completer: it resolves the model profile,
// builds the provider payload and performs one exchange.
type Service struct {
	registry  *registry.Registry
	creds     Credentials
	transport *Transport
}

// NewService creates the completer used by the capability layer.
func NewService(reg *registry.Registry, creds Credentials, transport *Transport) *Service {
	return &Service{
		registry:  reg,
		creds:     creds,
		transport: transport,
	}
}

// Complete performs one provider exchange for the request.
func (s *Service) Complete(ctx context.Context, req domain.PromptRequest) (*domain.Completion, error) {
	profile := s.registry.Resolve(req.Model)

	payload, err := Build(req, profile, s.creds)
	if err != nil {
		return nil, err
	}

	completion, err := s.transport.Send(ctx, payload)
	if err != nil {
		return nil, err
	}

	completion.Provider = profile.Provider
	return completion, nil
}
