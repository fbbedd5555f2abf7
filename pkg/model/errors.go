package model

import "github.com/m-mizutani/goerr/v2"

// Error classes. Every failure returned from the resolver, token provider
// and adapters carries exactly one of these tags.
var (
	TagConfig    = goerr.NewTag("config")
	TagAuth      = goerr.NewTag("auth")
	TagTransport = goerr.NewTag("transport")
	TagResponse  = goerr.NewTag("response")
	TagVerify    = goerr.NewTag("verify")
)

var (
	ErrNoCredential = goerr.New(`no credential found. Set one of the following environment variables:

  GOOGLE_APPLICATION_CREDENTIALS (recommended)
    export GOOGLE_APPLICATION_CREDENTIALS="/path/to/service-account-key.json"

  GOOGLE_SERVICE_ACCOUNT_KEY
    export GOOGLE_SERVICE_ACCOUNT_KEY="/path/to/service-account-key.json"

  GOOGLE_SERVICE_ACCOUNT_JSON
    export GOOGLE_SERVICE_ACCOUNT_JSON='{"type":"service_account",...}'

  GEMINI_API_KEY (API key fallback)
    export GEMINI_API_KEY="your-api-key"

Variables can also be placed in a .env file`, goerr.T(TagConfig))

	ErrMalformedResponse = goerr.New("malformed response", goerr.T(TagResponse))
	ErrEmptyPrompt       = goerr.New("prompt is empty", goerr.T(TagConfig))
	ErrInvalidModel      = goerr.New("invalid model identifier", goerr.T(TagConfig))
)
