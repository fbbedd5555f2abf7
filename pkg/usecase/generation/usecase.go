package generation

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/genlang/pkg/adapter"
	"github.com/m-mizutani/genlang/pkg/interfaces"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/utils/logging"
)

// UseCase provides text generation and diagnostic operations
type UseCase struct {
	resolver      interfaces.CredentialResolver
	tokens        interfaces.TokenProvider
	connect       interfaces.Connector
	connectVertex interfaces.VertexConnector

	output   io.Writer
	timeout  time.Duration
	endpoint string
	location string
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithOutput sets the writer for diagnostic output
func WithOutput(w io.Writer) Option {
	return func(uc *UseCase) {
		uc.output = w
	}
}

// WithTimeout bounds Generate and ListModels. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.timeout = d
	}
}

// WithEndpoint overrides the generative-language API host
func WithEndpoint(endpoint string) Option {
	return func(uc *UseCase) {
		uc.endpoint = endpoint
	}
}

// WithLocation sets the Vertex AI location used by diagnose probes
func WithLocation(location string) Option {
	return func(uc *UseCase) {
		if location != "" {
			uc.location = location
		}
	}
}

// WithConnector replaces the client factory
func WithConnector(connect interfaces.Connector) Option {
	return func(uc *UseCase) {
		uc.connect = connect
	}
}

// WithVertexConnector replaces the Vertex AI client factory
func WithVertexConnector(connect interfaces.VertexConnector) Option {
	return func(uc *UseCase) {
		uc.connectVertex = connect
	}
}

// New creates a new generation UseCase instance
func New(
	resolver interfaces.CredentialResolver,
	tokens interfaces.TokenProvider,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		resolver:      resolver,
		tokens:        tokens,
		connect:       adapter.Connect,
		connectVertex: newVertex,
		output:        os.Stdout,
		location:      adapter.DefaultVertexLocation,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func newVertex(ctx context.Context, cred *model.Credential, location string) (adapter.Generator, error) {
	return adapter.NewVertex(ctx, cred, location)
}

// authenticate resolves the credential and, for bearer credentials, refreshes
// an access token. tok is nil in API key mode.
func (u *UseCase) authenticate(ctx context.Context) (*model.Credential, *model.AccessToken, error) {
	cred, err := u.resolver.Resolve(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !cred.IsBearer() {
		return cred, nil, nil
	}

	tok, err := u.tokens.Token(ctx, cred)
	if err != nil {
		return nil, nil, err
	}
	logging.From(ctx).Debug("access token obtained", "source", cred.Source, "expiry", tok.Expiry)
	return cred, tok, nil
}

func (u *UseCase) client(ctx context.Context) (adapter.Gemini, error) {
	cred, tok, err := u.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return u.connect(ctx, cred, tok, adapter.WithEndpoint(u.endpoint))
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
