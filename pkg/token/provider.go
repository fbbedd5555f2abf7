package token

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/utils/logging"
	"golang.org/x/oauth2"
)

// Provider exchanges a resolved credential for a bearer token. Every call
// performs a fresh exchange; tokens are not cached between invocations.
type Provider struct {
	now func() time.Time
}

type Option func(*Provider)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

func New(opts ...Option) *Provider {
	p := &Provider{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Token(ctx context.Context, cred *model.Credential) (*model.AccessToken, error) {
	if cred == nil {
		return nil, goerr.New("credential is nil", goerr.T(model.TagConfig))
	}
	if !cred.IsBearer() {
		return nil, goerr.New("API key credential has no bearer token",
			goerr.V("variable", cred.Variable), goerr.T(model.TagConfig))
	}
	if cred.TokenSource == nil {
		return nil, goerr.New("credential has no token source",
			goerr.V("source", cred.Source), goerr.T(model.TagConfig))
	}

	tok, err := cred.TokenSource.Token()
	if err != nil {
		attrs := []goerr.Option{
			goerr.V("source", cred.Source),
			goerr.V("client_email", cred.ClientEmail),
			goerr.T(model.TagAuth),
		}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			attrs = append(attrs, goerr.V("error_code", retrieveErr.ErrorCode))
			if retrieveErr.Response != nil {
				attrs = append(attrs, goerr.V("status", retrieveErr.Response.StatusCode))
			}
		}
		return nil, goerr.Wrap(err, "failed to refresh access token", attrs...)
	}

	if tok.AccessToken == "" {
		return nil, goerr.New("token endpoint returned an empty access token",
			goerr.V("source", cred.Source), goerr.T(model.TagAuth))
	}
	if !tok.Expiry.IsZero() && !tok.Expiry.After(p.now()) {
		return nil, goerr.New("access token is already expired",
			goerr.V("expiry", tok.Expiry), goerr.T(model.TagAuth))
	}

	logging.From(ctx).Debug("access token obtained",
		"source", cred.Source,
		"expiry", tok.Expiry,
	)

	return &model.AccessToken{
		Value:     tok.AccessToken,
		TokenType: tok.Type(),
		Expiry:    tok.Expiry,
	}, nil
}
