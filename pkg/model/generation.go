package model

import (
	"regexp"
	"slices"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var modelIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

const modelPrefix = "models/"

// ModelID is a generative model identifier such as "gemini-2.5-flash".
type ModelID string

// NewModelID accepts both "gemini-2.5-flash" and "models/gemini-2.5-flash".
func NewModelID(s string) ModelID {
	return ModelID(strings.TrimPrefix(strings.TrimSpace(s), modelPrefix))
}

func (x ModelID) Validate() error {
	if !modelIDPattern.MatchString(string(x)) {
		return goerr.Wrap(ErrInvalidModel, "model identifier must match "+modelIDPattern.String(),
			goerr.V("model", x), goerr.T(TagConfig))
	}
	return nil
}

// Path returns the resource name used in API paths, e.g. "models/gemini-2.5-flash".
func (x ModelID) Path() string {
	return modelPrefix + string(x)
}

type GenerationRequest struct {
	Model  ModelID
	Prompt string
}

func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	return r.Model.Validate()
}

type Candidate struct {
	Text         string
	FinishReason string
}

type GenerationResponse struct {
	Candidates []*Candidate

	PromptTokens    int64
	CandidateTokens int64
}

// Text returns the text of the first candidate.
func (r *GenerationResponse) Text() (string, error) {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0] == nil {
		return "", goerr.Wrap(ErrMalformedResponse, "no candidates in response", goerr.T(TagResponse))
	}
	return r.Candidates[0].Text, nil
}

const MethodGenerateContent = "generateContent"

// ModelInfo describes one entry of the model listing.
type ModelInfo struct {
	Name                       string   `json:"name"`
	DisplayName                string   `json:"displayName"`
	Description                string   `json:"description"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	InputTokenLimit            int64    `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit           int64    `json:"outputTokenLimit,omitempty"`
}

func (m *ModelInfo) Supports(method string) bool {
	return slices.Contains(m.SupportedGenerationMethods, method)
}

// FilterGenerative keeps models that support generateContent, preserving order.
func FilterGenerative(models []*ModelInfo) []*ModelInfo {
	filtered := make([]*ModelInfo, 0, len(models))
	for _, m := range models {
		if m != nil && m.Supports(MethodGenerateContent) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
