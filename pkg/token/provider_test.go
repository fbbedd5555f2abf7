package token_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/genlang/pkg/credential"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/token"
	"github.com/m-mizutani/genlang/pkg/utils/testutil"
	"golang.org/x/oauth2"
)

func resolveWithTokenURI(t *testing.T, tokenURI string) *model.Credential {
	r := credential.New(
		credential.WithEnv(credential.MapEnv(map[string]string{
			credential.EnvServiceAccountJSON: string(testutil.ServiceAccountJSON(t, tokenURI)),
		})),
	)
	cred, err := r.Resolve(context.Background())
	gt.NoError(t, err)
	return cred
}

func TestTokenFromServiceAccount(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gt.Equal(t, r.Method, http.MethodPost)
		gt.NoError(t, r.ParseForm())
		gt.Equal(t, r.PostForm.Get("grant_type"), "urn:ietf:params:oauth:grant-type:jwt-bearer")
		gt.True(t, r.PostForm.Get("assertion") != "")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"ya29.test-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	cred := resolveWithTokenURI(t, srv.URL)

	tok, err := token.New().Token(context.Background(), cred)
	gt.NoError(t, err)
	gt.Equal(t, tok.Value, "ya29.test-token")
	gt.Equal(t, tok.TokenType, "Bearer")
	gt.True(t, tok.Expiry.After(time.Now()))
	gt.Equal(t, calls, 1)
}

func TestTokenRevokedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid JWT Signature."}`))
	}))
	defer srv.Close()

	cred := resolveWithTokenURI(t, srv.URL)

	_, err := token.New().Token(context.Background(), cred)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagAuth))

	var retrieveErr *oauth2.RetrieveError
	gt.True(t, errors.As(err, &retrieveErr))
	gt.Equal(t, retrieveErr.Response.StatusCode, http.StatusBadRequest)
}

func TestTokenUnreachableIssuer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cred := resolveWithTokenURI(t, url)

	_, err := token.New().Token(context.Background(), cred)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagAuth))
}

type staticSource struct {
	tok *oauth2.Token
	err error
}

func (x *staticSource) Token() (*oauth2.Token, error) { return x.tok, x.err }

func TestTokenExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cred := &model.Credential{
		Source: model.CredentialSourceDefault,
		TokenSource: &staticSource{tok: &oauth2.Token{
			AccessToken: "old",
			Expiry:      now.Add(-time.Minute),
		}},
	}

	p := token.New(token.WithClock(func() time.Time { return now }))
	_, err := p.Token(context.Background(), cred)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagAuth))
}

func TestTokenEmpty(t *testing.T) {
	cred := &model.Credential{
		Source:      model.CredentialSourceDefault,
		TokenSource: &staticSource{tok: &oauth2.Token{}},
	}

	_, err := token.New().Token(context.Background(), cred)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagAuth))
}

func TestTokenAPIKeyCredential(t *testing.T) {
	cred := &model.Credential{
		Source: model.CredentialSourceAPIKey,
		APIKey: "k",
	}

	_, err := token.New().Token(context.Background(), cred)
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.TagConfig))
}
