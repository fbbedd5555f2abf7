package credential

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"golang.org/x/oauth2/google"
)

// KeyTypeServiceAccount is the only key type accepted by ParseKey.
const KeyTypeServiceAccount = "service_account"

var serviceAccountSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"type", "client_email", "private_key"},
	Properties: map[string]*jsonschema.Schema{
		"type": {
			Type: "string",
			Enum: []any{KeyTypeServiceAccount},
		},
		"client_email": {
			Type:    "string",
			Pattern: `^[^@\s]+@[^@\s]+$`,
		},
		"private_key": {
			Type:    "string",
			Pattern: `PRIVATE KEY`,
		},
		"project_id": {Type: "string"},
		"token_uri":  {Type: "string"},
	},
}

var resolveSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return serviceAccountSchema.Resolve(nil)
})

// ParseKey decodes and validates service-account key material. It performs
// no network I/O.
func ParseKey(data []byte) (*model.ServiceAccountKey, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, goerr.Wrap(err, "malformed credential JSON", goerr.T(model.TagConfig))
	}

	resolved, err := resolveSchema()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve service account schema")
	}
	if err := resolved.Validate(raw); err != nil {
		return nil, goerr.Wrap(err, "credential JSON is not a service account key", goerr.T(model.TagConfig))
	}

	var key model.ServiceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, goerr.Wrap(err, "malformed credential JSON", goerr.T(model.TagConfig))
	}
	return &key, nil
}

// fromKey builds a bearer credential from service-account key material.
func fromKey(ctx context.Context, data []byte, source model.CredentialSource, variable string) (*model.Credential, error) {
	key, err := ParseKey(data)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid service account key",
			goerr.V("variable", variable), goerr.T(model.TagConfig))
	}

	creds, err := google.CredentialsFromJSON(ctx, data, model.Scopes...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load service account credential",
			goerr.V("variable", variable), goerr.T(model.TagConfig))
	}

	return &model.Credential{
		Source:      source,
		Variable:    variable,
		ProjectID:   key.ProjectID,
		ClientEmail: key.ClientEmail,
		Scopes:      append([]string(nil), model.Scopes...),
		JSON:        data,
		TokenSource: creds.TokenSource,
	}, nil
}
