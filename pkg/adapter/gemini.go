package adapter

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
)

// DefaultEndpoint is the generative-language REST host.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/"

// Generator issues a single synchronous generateContent call.
type Generator interface {
	GenerateContent(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error)
}

// Gemini is a Generator that can also list available models.
type Gemini interface {
	Generator
	ListModels(ctx context.Context) ([]*model.ModelInfo, error)
}

type config struct {
	endpoint string
}

type Option func(*config)

// WithEndpoint overrides the API host, mainly for tests.
func WithEndpoint(endpoint string) Option {
	return func(c *config) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

func newConfig(opts []Option) *config {
	cfg := &config{endpoint: DefaultEndpoint}
	for _, opt := range opts {
		opt(cfg)
	}
	if !strings.HasSuffix(cfg.endpoint, "/") {
		cfg.endpoint += "/"
	}
	return cfg
}

// Connect returns the client matching the credential: a bearer-token REST
// client for service-account and default credentials, or the API-key client.
func Connect(ctx context.Context, cred *model.Credential, tok *model.AccessToken, opts ...Option) (Gemini, error) {
	if cred == nil {
		return nil, goerr.New("credential is nil", goerr.T(model.TagConfig))
	}

	if !cred.IsBearer() {
		return NewAPIKey(ctx, cred.APIKey, opts...)
	}

	if tok == nil {
		return nil, goerr.New("access token is required for bearer credential",
			goerr.V("source", cred.Source), goerr.T(model.TagAuth))
	}
	return NewREST(ctx, tok, opts...)
}

// firstCandidateCheck enforces the response shape shared by all clients: at least one
// candidate, and the first candidate must have a part.
func firstCandidateCheck(resp *model.GenerationResponse, firstHasParts bool) error {
	if len(resp.Candidates) == 0 {
		return goerr.Wrap(model.ErrMalformedResponse, "response has no candidates", goerr.T(model.TagResponse))
	}
	if !firstHasParts {
		return goerr.Wrap(model.ErrMalformedResponse, "first candidate has no content parts",
			goerr.V("finish_reason", resp.Candidates[0].FinishReason), goerr.T(model.TagResponse))
	}
	return nil
}
