package adapter

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"google.golang.org/genai"
)

// APIKey calls the Gemini API through the genai SDK with a plain API key.
type APIKey struct {
	client *genai.Client
}

func NewAPIKey(ctx context.Context, apiKey string, opts ...Option) (*APIKey, error) {
	if apiKey == "" {
		return nil, goerr.New("API key is empty", goerr.T(model.TagConfig))
	}
	cfg := newConfig(opts)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.endpoint,
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client", goerr.T(model.TagConfig))
	}

	return &APIKey{client: client}, nil
}

func (x *APIKey) GenerateContent(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := x.client.Models.GenerateContent(ctx, string(req.Model), genai.Text(req.Prompt), nil)
	if err != nil {
		return nil, wrapGenAIError(err, "generateContent request failed", req.Model)
	}

	out, firstHasParts := fromGenAI(resp)
	if err := firstCandidateCheck(out, firstHasParts); err != nil {
		return nil, goerr.Wrap(err, "unexpected generateContent response",
			goerr.V("model", req.Model), goerr.T(model.TagResponse))
	}
	return out, nil
}

func (x *APIKey) ListModels(ctx context.Context) ([]*model.ModelInfo, error) {
	var models []*model.ModelInfo
	for m, err := range x.client.Models.All(ctx) {
		if err != nil {
			return nil, wrapGenAIError(err, "models.list request failed", "")
		}
		if m == nil {
			continue
		}
		models = append(models, &model.ModelInfo{
			Name:                       m.Name,
			DisplayName:                m.DisplayName,
			Description:                m.Description,
			SupportedGenerationMethods: m.SupportedActions,
			InputTokenLimit:            int64(m.InputTokenLimit),
			OutputTokenLimit:           int64(m.OutputTokenLimit),
		})
	}
	return model.FilterGenerative(models), nil
}

func fromGenAI(resp *genai.GenerateContentResponse) (*model.GenerationResponse, bool) {
	out := &model.GenerationResponse{}
	if resp == nil {
		return out, false
	}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.CandidateTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}

	firstHasParts := false
	for i, c := range resp.Candidates {
		if c == nil {
			continue
		}
		cand := &model.Candidate{FinishReason: string(c.FinishReason)}
		if c.Content != nil && len(c.Content.Parts) > 0 && c.Content.Parts[0] != nil {
			cand.Text = c.Content.Parts[0].Text
			if i == 0 {
				firstHasParts = true
			}
		}
		out.Candidates = append(out.Candidates, cand)
	}
	return out, firstHasParts
}

func wrapGenAIError(err error, msg string, modelID model.ModelID) error {
	opts := []goerr.Option{goerr.T(model.TagTransport)}
	if modelID != "" {
		opts = append(opts, goerr.V("model", modelID))
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		opts = append(opts,
			goerr.V("status", apiErr.Code),
			goerr.V("api_status", apiErr.Status),
		)
	}
	return goerr.Wrap(err, msg, opts...)
}
