package generation

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/adapter"
	"github.com/m-mizutani/genlang/pkg/credential"
	"github.com/m-mizutani/genlang/pkg/model"
)

const (
	CheckTimeout = 30 * time.Second

	checkPrompt = "Say hello in one sentence and introduce yourself."
)

type CheckInput struct {
	Model string
}

// Check runs an environment self-test: credential resolution, key file
// inspection, token refresh and one test generation. Each step is reported
// with a mark and the first failure is returned.
func (u *UseCase) Check(ctx context.Context, input CheckInput) error {
	modelID := model.NewModelID(input.Model)
	if err := modelID.Validate(); err != nil {
		u.printf("✗ Model: %s\n", valueOrNone(input.Model))
		return u.checkFailed(err, "model")
	}

	// resolved token sources keep the context they were built with
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	cred, err := u.resolver.Resolve(ctx)
	if err != nil {
		u.printf("✗ Credential not resolved\n")
		return u.checkFailed(err, "credential")
	}
	u.printf("✓ Credential: %s\n", describeCredential(cred))

	if cred.Source == model.CredentialSourceFile {
		u.printf("✓ Key file exists: %s\n", cred.Path)
	}

	// the resolver only accepts service-account keys for these sources
	if cred.Source == model.CredentialSourceFile || cred.Source == model.CredentialSourceInline {
		u.printf("✓ Key JSON is valid (type: %s)\n", credential.KeyTypeServiceAccount)
		if cred.ProjectID != "" {
			u.printf("  Project ID: %s\n", cred.ProjectID)
		}
		if cred.ClientEmail != "" {
			u.printf("  Service account: %s\n", cred.ClientEmail)
		}
	}

	var tok *model.AccessToken
	if cred.IsBearer() {
		tok, err = u.tokens.Token(ctx, cred)
		if err != nil {
			u.printf("✗ Access token refresh failed\n")
			return u.checkFailed(err, "token")
		}
		u.printf("✓ Access token obtained (expires %s)\n", formatExpiry(tok.Expiry))
	} else {
		u.printf("✓ API key mode, no token exchange needed\n")
	}

	client, err := u.connect(ctx, cred, tok, adapter.WithEndpoint(u.endpoint))
	if err != nil {
		u.printf("✗ Client setup failed\n")
		return u.checkFailed(err, "connect")
	}

	resp, err := client.GenerateContent(ctx, &model.GenerationRequest{Model: modelID, Prompt: checkPrompt})
	if err != nil {
		u.printf("✗ Test generation with %s failed: %s\n", modelID, excerpt(err.Error()))
		return u.checkFailed(err, "generate")
	}
	text, err := resp.Text()
	if err != nil {
		u.printf("✗ Test generation with %s returned no text\n", modelID)
		return u.checkFailed(err, "generate")
	}

	u.printf("✓ Test generation with %s succeeded\n", modelID)
	u.printf("\n%s\n", text)
	return nil
}

func (u *UseCase) checkFailed(err error, step string) error {
	return goerr.Wrap(err, "environment check failed", goerr.V("step", step), goerr.T(model.TagVerify))
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format(time.RFC3339)
}
