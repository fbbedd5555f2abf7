package generation

import (
	"context"

	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/utils/logging"
)

// ListModels returns the models that support generateContent
func (u *UseCase) ListModels(ctx context.Context) ([]*model.ModelInfo, error) {
	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	client, err := u.client(ctx)
	if err != nil {
		return nil, err
	}

	models, err := client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Debug("models listed", "count", len(models))
	return models, nil
}
