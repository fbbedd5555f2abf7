package generation

import (
	"context"

	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/utils/logging"
)

type GenerateInput struct {
	Model  string
	Prompt string
}

// Generate sends one prompt and returns the text of the first candidate.
// The request is validated before any credential is touched.
func (u *UseCase) Generate(ctx context.Context, input GenerateInput) (string, error) {
	req := &model.GenerationRequest{
		Model:  model.NewModelID(input.Model),
		Prompt: input.Prompt,
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	ctx, cancel := withTimeout(ctx, u.timeout)
	defer cancel()

	client, err := u.client(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.GenerateContent(ctx, req)
	if err != nil {
		return "", err
	}

	logging.From(ctx).Debug("content generated",
		"model", req.Model,
		"candidates", len(resp.Candidates),
		"prompt_tokens", resp.PromptTokens,
		"candidate_tokens", resp.CandidateTokens,
	)

	return resp.Text()
}
