package interfaces

import (
	"context"

	"github.com/m-mizutani/genlang/pkg/adapter"
	"github.com/m-mizutani/genlang/pkg/model"
)

// CredentialResolver defines how a credential is obtained for one invocation
type CredentialResolver interface {
	// Resolve returns exactly one credential or a configuration error
	Resolve(ctx context.Context) (*model.Credential, error)
}

// TokenProvider exchanges a bearer credential for an access token
type TokenProvider interface {
	Token(ctx context.Context, cred *model.Credential) (*model.AccessToken, error)
}

// Connector builds a Gemini client for a resolved credential. tok is nil for
// API key credentials.
type Connector func(ctx context.Context, cred *model.Credential, tok *model.AccessToken, opts ...adapter.Option) (adapter.Gemini, error)

// VertexConnector builds a generator backed by Vertex AI.
type VertexConnector func(ctx context.Context, cred *model.Credential, location string) (adapter.Generator, error)
