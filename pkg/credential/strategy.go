package credential

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"golang.org/x/oauth2/google"
)

// Variable names consulted by the default strategy list.
const (
	EnvApplicationCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvServiceAccountKey      = "GOOGLE_SERVICE_ACCOUNT_KEY"
	EnvServiceAccountJSON     = "GOOGLE_SERVICE_ACCOUNT_JSON"
	EnvAPIKey                 = "GEMINI_API_KEY"
)

// ErrNotApplicable is returned by a Strategy whose input is absent. The
// resolver moves on to the next strategy.
var ErrNotApplicable = goerr.New("credential strategy not applicable")

// Strategy produces a credential from one kind of source.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, env Env) (*model.Credential, error)
}

// FileStrategy reads a service-account key from the path held in Var.
type FileStrategy struct {
	Var string
}

func (x *FileStrategy) Name() string { return "file:" + x.Var }

func (x *FileStrategy) Resolve(ctx context.Context, env Env) (*model.Credential, error) {
	path, ok := env.get(x.Var)
	if !ok {
		return nil, ErrNotApplicable
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(err, "credential file does not exist, check the path",
				goerr.V("variable", x.Var), goerr.V("path", path), goerr.T(model.TagConfig))
		}
		return nil, goerr.Wrap(err, "failed to access credential file",
			goerr.V("variable", x.Var), goerr.V("path", path), goerr.T(model.TagConfig))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read credential file",
			goerr.V("variable", x.Var), goerr.V("path", path), goerr.T(model.TagConfig))
	}

	cred, err := fromKey(ctx, data, model.CredentialSourceFile, x.Var)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load credential file",
			goerr.V("path", path), goerr.T(model.TagConfig))
	}
	cred.Path = path
	return cred, nil
}

// InlineStrategy parses a service-account key held directly in Var.
type InlineStrategy struct {
	Var string
}

func (x *InlineStrategy) Name() string { return "inline:" + x.Var }

func (x *InlineStrategy) Resolve(ctx context.Context, env Env) (*model.Credential, error) {
	data, ok := env.get(x.Var)
	if !ok {
		return nil, ErrNotApplicable
	}
	return fromKey(ctx, []byte(data), model.CredentialSourceInline, x.Var)
}

// FindDefaultFunc has the signature of google.FindDefaultCredentials.
type FindDefaultFunc func(ctx context.Context, scopes ...string) (*google.Credentials, error)

// DefaultStrategy falls back to Application Default Credentials. A failed
// discovery is treated as not applicable.
type DefaultStrategy struct {
	Find FindDefaultFunc
}

func (x *DefaultStrategy) Name() string { return "default" }

func (x *DefaultStrategy) Resolve(ctx context.Context, _ Env) (*model.Credential, error) {
	find := x.Find
	if find == nil {
		find = google.FindDefaultCredentials
	}

	creds, err := find(ctx, model.Scopes...)
	if err != nil || creds == nil {
		return nil, ErrNotApplicable
	}

	cred := &model.Credential{
		Source:      model.CredentialSourceDefault,
		ProjectID:   creds.ProjectID,
		Scopes:      append([]string(nil), model.Scopes...),
		JSON:        creds.JSON,
		TokenSource: creds.TokenSource,
	}
	if len(creds.JSON) > 0 {
		if key, err := ParseKey(creds.JSON); err == nil {
			cred.ClientEmail = key.ClientEmail
		}
	}
	return cred, nil
}

// APIKeyStrategy uses a plain API key instead of a bearer token.
type APIKeyStrategy struct {
	Var string
}

func (x *APIKeyStrategy) Name() string { return "api_key:" + x.Var }

func (x *APIKeyStrategy) Resolve(_ context.Context, env Env) (*model.Credential, error) {
	key, ok := env.get(x.Var)
	if !ok {
		return nil, ErrNotApplicable
	}
	return &model.Credential{
		Source:   model.CredentialSourceAPIKey,
		Variable: x.Var,
		APIKey:   key,
	}, nil
}

// DefaultStrategies returns the standard resolution order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		&FileStrategy{Var: EnvApplicationCredentials},
		&FileStrategy{Var: EnvServiceAccountKey},
		&InlineStrategy{Var: EnvServiceAccountJSON},
		&DefaultStrategy{},
		&APIKeyStrategy{Var: EnvAPIKey},
	}
}
