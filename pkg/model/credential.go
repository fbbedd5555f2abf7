package model

import (
	"time"

	"golang.org/x/oauth2"
)

// Scopes requested for every service-account or default credential.
var Scopes = []string{
	"https://www.googleapis.com/auth/generative-language",
	"https://www.googleapis.com/auth/cloud-platform",
}

type CredentialSource string

const (
	CredentialSourceFile    CredentialSource = "file"
	CredentialSourceInline  CredentialSource = "inline"
	CredentialSourceDefault CredentialSource = "default"
	CredentialSourceAPIKey  CredentialSource = "api_key"
)

// Credential is the material resolved once per invocation. Bearer credentials
// carry a TokenSource; API key credentials carry only APIKey.
type Credential struct {
	Source CredentialSource
	// Variable is the environment variable the credential came from. Empty
	// for ambient default credentials.
	Variable string
	Path     string

	ProjectID   string
	ClientEmail string
	Scopes      []string

	// JSON is the raw key material, kept for adapters that need to rebuild
	// credentials in another auth library.
	JSON []byte

	TokenSource oauth2.TokenSource `json:"-"`
	APIKey      string             `json:"-"`
}

// IsBearer reports whether the credential is exchanged for an access token.
func (c *Credential) IsBearer() bool {
	return c.Source != CredentialSourceAPIKey
}

type AccessToken struct {
	Value     string
	TokenType string
	Expiry    time.Time
}

// ServiceAccountKey holds the fields of a service-account JSON key that are
// reported back to the user.
type ServiceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}
