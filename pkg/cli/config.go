package cli

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/adapter"
	"github.com/m-mizutani/genlang/pkg/credential"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/token"
	"github.com/m-mizutani/genlang/pkg/usecase/generation"
	"github.com/urfave/cli/v3"
)

const (
	envFileVar     = "GENLANG_ENV_FILE"
	defaultEnvFile = ".env"
)

// config holds configuration values
type config struct {
	model    string
	endpoint string
	timeout  time.Duration
	location string
}

// modelFlag returns the model identifier flag
func modelFlag(cfg *config) cli.Flag {
	return &cli.StringFlag{
		Name:        "model",
		Aliases:     []string{"m"},
		Usage:       "Model identifier, e.g. gemini-2.5-flash",
		Sources:     cli.EnvVars("GEMINI_MODEL"),
		Destination: &cfg.model,
		Required:    true,
	}
}

// apiFlags returns flags for the generative-language API connection
func apiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "endpoint",
			Usage:       "Generative Language API endpoint",
			Value:       adapter.DefaultEndpoint,
			Sources:     cli.EnvVars("GEMINI_ENDPOINT"),
			Destination: &cfg.endpoint,
			Hidden:      true,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Aliases:     []string{"t"},
			Usage:       "Request timeout (0 means no timeout)",
			Sources:     cli.EnvVars("GEMINI_TIMEOUT"),
			Destination: &cfg.timeout,
		},
	}
}

// vertexFlags returns flags for Vertex AI probes
func vertexFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "location",
			Usage:       "Google Cloud location for Vertex AI",
			Value:       adapter.DefaultVertexLocation,
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.location,
		},
	}
}

// newUseCase creates a generation UseCase writing diagnostics to w
func (cfg *config) newUseCase(w io.Writer) *generation.UseCase {
	return generation.New(
		credential.New(),
		token.New(),
		generation.WithOutput(w),
		generation.WithTimeout(cfg.timeout),
		generation.WithEndpoint(cfg.endpoint),
		generation.WithLocation(cfg.location),
	)
}

// loadEnvFile loads variables from the file named by GENLANG_ENV_FILE, or
// from .env when that is unset. Variables already set are kept. A missing
// default .env is not an error.
func loadEnvFile() error {
	path, explicit := os.LookupEnv(envFileVar)
	if !explicit || path == "" {
		explicit = false
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to load env file", goerr.V("path", path), goerr.T(model.TagConfig))
	}
	return nil
}
