package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

const (
	apiVersion = "v1beta/"

	// listPageSize is the maximum page size accepted by models.list.
	listPageSize = 1000
)

// REST calls the generative-language API with a bearer token.
type REST struct {
	endpoint   string
	httpClient *http.Client
}

func NewREST(ctx context.Context, tok *model.AccessToken, opts ...Option) (*REST, error) {
	if tok == nil || tok.Value == "" {
		return nil, goerr.New("access token is empty", goerr.T(model.TagAuth))
	}
	cfg := newConfig(opts)

	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tok.Value,
		TokenType:   "Bearer",
	})

	return &REST{
		endpoint:   cfg.endpoint + apiVersion,
		httpClient: oauth2.NewClient(ctx, src),
	}, nil
}

type restPart struct {
	Text string `json:"text,omitempty"`
}

type restContent struct {
	Role  string      `json:"role,omitempty"`
	Parts []*restPart `json:"parts"`
}

type restGenerateRequest struct {
	Contents []*restContent `json:"contents"`
}

type restGenerateResponse struct {
	Candidates []*struct {
		Content      *restContent `json:"content"`
		FinishReason string       `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

type restListResponse struct {
	Models        []*model.ModelInfo `json:"models"`
	NextPageToken string             `json:"nextPageToken"`
}

func (x *REST) GenerateContent(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body := &restGenerateRequest{
		Contents: []*restContent{
			{Role: "user", Parts: []*restPart{{Text: req.Prompt}}},
		},
	}

	var resp restGenerateResponse
	u := x.endpoint + req.Model.Path() + ":generateContent"
	if err := x.do(ctx, http.MethodPost, u, body, &resp); err != nil {
		return nil, wrapAPIError(err, "generateContent request failed", req.Model)
	}

	out := &model.GenerationResponse{}
	if resp.UsageMetadata != nil {
		out.PromptTokens = resp.UsageMetadata.PromptTokenCount
		out.CandidateTokens = resp.UsageMetadata.CandidatesTokenCount
	}

	firstHasParts := false
	for i, c := range resp.Candidates {
		if c == nil {
			continue
		}
		cand := &model.Candidate{FinishReason: c.FinishReason}
		if c.Content != nil && len(c.Content.Parts) > 0 && c.Content.Parts[0] != nil {
			cand.Text = c.Content.Parts[0].Text
			if i == 0 {
				firstHasParts = true
			}
		}
		out.Candidates = append(out.Candidates, cand)
	}

	if err := firstCandidateCheck(out, firstHasParts); err != nil {
		return nil, goerr.Wrap(err, "unexpected generateContent response",
			goerr.V("model", req.Model), goerr.T(model.TagResponse))
	}
	return out, nil
}

// ListModels follows nextPageToken until the listing is exhausted.
func (x *REST) ListModels(ctx context.Context) ([]*model.ModelInfo, error) {
	var models []*model.ModelInfo

	pageToken := ""
	for {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(listPageSize))
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page restListResponse
		if err := x.do(ctx, http.MethodGet, x.endpoint+"models?"+q.Encode(), nil, &page); err != nil {
			return nil, wrapAPIError(err, "models.list request failed", "")
		}

		for _, m := range page.Models {
			if m != nil {
				models = append(models, m)
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return model.FilterGenerative(models), nil
}

// do sends one JSON request. Non-2xx responses come back as *googleapi.Error.
func (x *REST) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return goerr.Wrap(err, "failed to encode request", goerr.T(model.TagConfig))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("url", u), goerr.T(model.TagConfig))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response body", goerr.T(model.TagResponse))
	}
	return nil
}

// wrapAPIError classifies a failed call. Non-2xx responses keep the status
// code and raw body; the googleapi error text carries error.message when the
// body is JSON.
func wrapAPIError(err error, msg string, modelID model.ModelID) error {
	opts := []goerr.Option{}
	if modelID != "" {
		opts = append(opts, goerr.V("model", modelID))
	}

	if goerr.HasTag(err, model.TagConfig) {
		return goerr.Wrap(err, msg, opts...)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		opts = append(opts,
			goerr.V("status", apiErr.Code),
			goerr.V("body", apiErr.Body),
			goerr.T(model.TagTransport),
		)
		return goerr.Wrap(err, msg, opts...)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return goerr.Wrap(err, msg, append(opts, goerr.T(model.TagTransport))...)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return goerr.Wrap(err, msg, append(opts, goerr.T(model.TagTransport))...)
	}

	// remaining failures come from decoding a 2xx body
	return goerr.Wrap(err, msg, append(opts, goerr.T(model.TagResponse))...)
}
