package credential

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/utils/logging"
)

// Resolver tries its strategies in order and returns the first credential.
type Resolver struct {
	env        Env
	strategies []Strategy
}

type Option func(*Resolver)

// WithEnv replaces the process environment as the variable source.
func WithEnv(env Env) Option {
	return func(r *Resolver) {
		r.env = env
	}
}

// WithStrategies replaces the default strategy list.
func WithStrategies(strategies ...Strategy) Option {
	return func(r *Resolver) {
		r.strategies = strategies
	}
}

// WithFindDefault swaps the ambient credential finder of any DefaultStrategy.
func WithFindDefault(find FindDefaultFunc) Option {
	return func(r *Resolver) {
		for _, s := range r.strategies {
			if d, ok := s.(*DefaultStrategy); ok {
				d.Find = find
			}
		}
	}
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		env:        OSEnv(),
		strategies: DefaultStrategies(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context) (*model.Credential, error) {
	logger := logging.From(ctx)

	for _, s := range r.strategies {
		cred, err := s.Resolve(ctx, r.env)
		if errors.Is(err, ErrNotApplicable) {
			logger.Debug("credential strategy skipped", "strategy", s.Name())
			continue
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve credential",
				goerr.V("strategy", s.Name()), goerr.T(model.TagConfig))
		}

		logger.Debug("credential resolved",
			"strategy", s.Name(),
			"source", cred.Source,
			"project_id", cred.ProjectID,
		)
		return cred, nil
	}

	return nil, model.ErrNoCredential
}
