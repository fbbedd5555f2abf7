// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
)

const (
	TestProjectID   = "test-project"
	TestClientEmail = "genlang@test-project.iam.gserviceaccount.com"
)

// ServiceAccountJSON returns a syntactically valid service-account key signed
// with a freshly generated RSA key. Token requests go to tokenURI.
func ServiceAccountJSON(t *testing.T, tokenURI string) []byte {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	gt.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	gt.NoError(t, err)

	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	if tokenURI == "" {
		tokenURI = "https://oauth2.googleapis.com/token"
	}

	data, err := json.Marshal(map[string]string{
		"type":           "service_account",
		"project_id":     TestProjectID,
		"private_key_id": "0123456789abcdef",
		"private_key":    string(pemKey),
		"client_email":   TestClientEmail,
		"client_id":      "1234567890",
		"token_uri":      tokenURI,
	})
	gt.NoError(t, err)
	return data
}

// WriteServiceAccountFile writes ServiceAccountJSON into a temp dir and
// returns its path.
func WriteServiceAccountFile(t *testing.T, tokenURI string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "key.json")
	gt.NoError(t, os.WriteFile(path, ServiceAccountJSON(t, tokenURI), 0600))
	return path
}
