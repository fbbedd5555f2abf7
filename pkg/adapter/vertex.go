package adapter

import (
	"context"

	"cloud.google.com/go/auth/oauth2adapt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"golang.org/x/oauth2/google"
	"google.golang.org/genai"
)

// DefaultVertexLocation is used when no location is configured.
const DefaultVertexLocation = "us-central1"

// Vertex calls a Gemini model published on Vertex AI. It is only a Generator;
// the publisher model catalogue is not exposed.
type Vertex struct {
	client *genai.Client
}

func NewVertex(ctx context.Context, cred *model.Credential, location string) (*Vertex, error) {
	if cred == nil || !cred.IsBearer() {
		return nil, goerr.New("Vertex AI requires a service account or default credential", goerr.T(model.TagConfig))
	}
	if cred.ProjectID == "" {
		return nil, goerr.New("Vertex AI requires a project ID in the credential",
			goerr.V("source", cred.Source), goerr.T(model.TagConfig))
	}
	if location == "" {
		location = DefaultVertexLocation
	}

	authCreds := oauth2adapt.AuthCredentialsFromOauth2Credentials(&google.Credentials{
		ProjectID:   cred.ProjectID,
		TokenSource: cred.TokenSource,
		JSON:        cred.JSON,
	})

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:     cred.ProjectID,
		Location:    location,
		Backend:     genai.BackendVertexAI,
		Credentials: authCreds,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client",
			goerr.V("project", cred.ProjectID),
			goerr.V("location", location),
			goerr.T(model.TagConfig))
	}

	return &Vertex{client: client}, nil
}

func (x *Vertex) GenerateContent(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := x.client.Models.GenerateContent(ctx, string(req.Model), genai.Text(req.Prompt), nil)
	if err != nil {
		return nil, wrapGenAIError(err, "Vertex AI generateContent request failed", req.Model)
	}

	out, firstHasParts := fromGenAI(resp)
	if err := firstCandidateCheck(out, firstHasParts); err != nil {
		return nil, goerr.Wrap(err, "unexpected Vertex AI response",
			goerr.V("model", req.Model), goerr.T(model.TagResponse))
	}
	return out, nil
}
