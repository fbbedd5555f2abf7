package generation_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/genlang/pkg/credential"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/usecase/generation"
	"github.com/m-mizutani/genlang/pkg/utils/testutil"
)

func fileResolver(t *testing.T) *credential.Resolver {
	path := testutil.WriteServiceAccountFile(t, "")
	return credential.New(credential.WithEnv(credential.MapEnv(map[string]string{
		credential.EnvApplicationCredentials: path,
	})))
}

func TestCheck(t *testing.T) {
	buf := &bytes.Buffer{}
	client := &mockGemini{generate: replyWith("Hello, I am Gemini.")}
	var calls []connectCall

	uc := generation.New(fileResolver(t), &mockTokens{tok: testToken},
		generation.WithConnector(connectTo(client, &calls)),
		generation.WithOutput(buf),
	)

	err := uc.Check(context.Background(), generation.CheckInput{Model: "gemini-2.5-flash"})
	gt.NoError(t, err)

	gt.A(t, client.requests).Length(1)
	gt.Equal(t, client.requests[0].Model, model.ModelID("gemini-2.5-flash"))

	out := buf.String()
	gt.S(t, out).Contains("✓ Credential: file (GOOGLE_APPLICATION_CREDENTIALS=")
	gt.S(t, out).Contains("✓ Key file exists")
	gt.S(t, out).Contains("✓ Key JSON is valid (type: service_account)")
	gt.S(t, out).Contains("Project ID: " + testutil.TestProjectID)
	gt.S(t, out).Contains("✓ Access token obtained")
	gt.S(t, out).Contains("✓ Test generation with gemini-2.5-flash succeeded")
	gt.S(t, out).Contains("Hello, I am Gemini.")
	gt.S(t, out).NotContains("✗")
}

func TestCheckTokenFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	client := &mockGemini{generate: replyWith("unused")}
	var calls []connectCall

	uc := generation.New(fileResolver(t),
		&mockTokens{err: goerr.New("invalid_grant", goerr.T(model.TagAuth))},
		generation.WithConnector(connectTo(client, &calls)),
		generation.WithOutput(buf),
	)

	err := uc.Check(context.Background(), generation.CheckInput{Model: "gemini-2.5-flash"})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagVerify))
	gt.S(t, buf.String()).Contains("✗ Access token refresh failed")
	gt.A(t, client.requests).Length(0)
	gt.A(t, calls).Length(0)
}

func TestCheckMissingFile(t *testing.T) {
	buf := &bytes.Buffer{}
	resolver := credential.New(credential.WithEnv(credential.MapEnv(map[string]string{
		credential.EnvApplicationCredentials: "/nonexistent/key.json",
	})))
	tokens := &mockTokens{tok: testToken}

	uc := generation.New(resolver, tokens, generation.WithOutput(buf))

	err := uc.Check(context.Background(), generation.CheckInput{Model: "gemini-2.5-flash"})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagVerify))
	gt.S(t, err.Error()).Contains("does not exist")
	gt.S(t, buf.String()).Contains("✗ Credential not resolved")
	gt.Equal(t, tokens.calls, 0)
}

func TestCheckGenerationFailure(t *testing.T) {
	buf := &bytes.Buffer{}
	client := &mockGemini{
		generate: func(ctx context.Context, req *model.GenerationRequest) (*model.GenerationResponse, error) {
			return nil, goerr.New("Generative Language API has not been used in project", goerr.V("status", 403), goerr.T(model.TagTransport))
		},
	}
	var calls []connectCall

	uc := generation.New(&mockResolver{cred: bearerCred}, &mockTokens{tok: testToken},
		generation.WithConnector(connectTo(client, &calls)),
		generation.WithOutput(buf),
	)

	err := uc.Check(context.Background(), generation.CheckInput{Model: "gemini-2.5-flash"})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagVerify))
	gt.A(t, client.requests).Length(1)

	out := buf.String()
	gt.S(t, out).Contains("✓ Key JSON is valid (type: service_account)")
	gt.S(t, out).Contains("✓ Access token obtained")
	gt.S(t, out).Contains("✗ Test generation with gemini-2.5-flash failed: Generative Language API has not been used")
}

func TestCheckReportsResolvedKeyDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	var calls []connectCall

	uc := generation.New(&mockResolver{cred: bearerCred}, &mockTokens{tok: testToken},
		generation.WithConnector(connectTo(&mockGemini{generate: replyWith("Hi")}, &calls)),
		generation.WithOutput(buf),
	)

	gt.NoError(t, uc.Check(context.Background(), generation.CheckInput{Model: "gemini-2.5-flash"}))

	out := buf.String()
	gt.S(t, out).Contains("Project ID: " + bearerCred.ProjectID)
	gt.S(t, out).Contains("Service account: " + bearerCred.ClientEmail)
	gt.S(t, out).NotContains("✗")
}

func TestCheckBoundsCredentialResolution(t *testing.T) {
	resolver := &mockResolver{cred: apiKeyCred}
	var calls []connectCall

	uc := generation.New(resolver, &mockTokens{},
		generation.WithConnector(connectTo(&mockGemini{generate: replyWith("Hi")}, &calls)),
		generation.WithOutput(&bytes.Buffer{}),
	)

	start := time.Now()
	gt.NoError(t, uc.Check(context.Background(), generation.CheckInput{Model: "gemini-2.5-flash"}))

	gt.True(t, !resolver.deadline.IsZero())
	gt.True(t, resolver.deadline.Before(start.Add(generation.CheckTimeout+time.Second)))
}

func TestCheckAPIKeyMode(t *testing.T) {
	buf := &bytes.Buffer{}
	tokens := &mockTokens{}
	var calls []connectCall

	uc := generation.New(&mockResolver{cred: apiKeyCred}, tokens,
		generation.WithConnector(connectTo(&mockGemini{generate: replyWith("Hi")}, &calls)),
		generation.WithOutput(buf),
	)

	gt.NoError(t, uc.Check(context.Background(), generation.CheckInput{Model: "gemini-2.5-flash"}))
	gt.Equal(t, tokens.calls, 0)

	out := buf.String()
	gt.S(t, out).Contains("✓ Credential: api_key (GEMINI_API_KEY)")
	gt.S(t, out).Contains("API key mode")
	gt.S(t, out).NotContains("Key file exists")
}

func TestCheckRequiresModel(t *testing.T) {
	resolver := &mockResolver{cred: bearerCred}
	uc := generation.New(resolver, &mockTokens{tok: testToken}, generation.WithOutput(&bytes.Buffer{}))

	err := uc.Check(context.Background(), generation.CheckInput{})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrInvalidModel))
	gt.True(t, goerr.HasTag(err, model.TagVerify))
	gt.Equal(t, resolver.calls, 0)
}
