package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/m-mizutani/genlang/pkg/usecase/generation"
	"github.com/m-mizutani/genlang/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

type streams struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

type Option func(*streams)

// WithIO replaces stdin, stdout and stderr of the command
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(s *streams) {
		s.in = in
		s.out = out
		s.errOut = errOut
	}
}

func Run(ctx context.Context, argv []string, opts ...Option) *Error {
	s := &streams{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	for _, opt := range opts {
		opt(s)
	}

	var logLevel string

	cmd := &cli.Command{
		Name:      "genlang",
		Usage:     "Text generation and diagnostics for the Google Generative Language API",
		Reader:    s.in,
		Writer:    s.out,
		ErrWriter: s.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Aliases:     []string{"l"},
				Usage:       "Log level (debug, info, warn, error)",
				Value:       "info",
				Sources:     cli.EnvVars("GENLANG_LOG_LEVEL"),
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				return ctx, goerr.Wrap(err, "invalid log level", goerr.T(model.TagConfig))
			}
			logger := logging.New(level, c.Root().ErrWriter).With("invocation_id", uuid.NewString())
			logging.SetDefault(logger)
			return logging.With(ctx, logger), nil
		},
		Commands: []*cli.Command{
			generateCommand(),
			modelsCommand(),
			diagnoseCommand(),
			checkCommand(),
		},
	}

	if err := loadEnvFile(); err != nil {
		return handleError(s.errOut, err)
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return handleError(s.errOut, err)
	}

	return nil
}

// handleError logs err and, for configuration errors, prints the message
// as is so that multi-line guidance stays readable.
func handleError(w io.Writer, err error) *Error {
	logging.Default().Error("command failed", "error", err)
	if goerr.HasTag(err, model.TagConfig) {
		fmt.Fprintf(w, "\n%s\n", err.Error())
	}
	return &Error{
		Code:    1,
		Message: err.Error(),
	}
}

func generateCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{modelFlag(&cfg)}
	flags = append(flags, apiFlags(&cfg)...)

	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Generate text from a prompt",
		ArgsUsage: "[prompt...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			prompt, err := promptFromArgs(c)
			if err != nil {
				return err
			}

			uc := cfg.newUseCase(c.Root().Writer)

			stop := startSpinner(c.Root().ErrWriter, "Generating...")
			text, err := uc.Generate(ctx, generation.GenerateInput{
				Model:  cfg.model,
				Prompt: prompt,
			})
			stop()
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, text)
			return nil
		},
	}
}

func modelsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "models",
		Usage: "List models that support generateContent",
		Flags: apiFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc := cfg.newUseCase(c.Root().Writer)

			stop := startSpinner(c.Root().ErrWriter, "Listing models...")
			models, err := uc.ListModels(ctx)
			stop()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			fmt.Fprintf(w, "Found %d models supporting generateContent\n", len(models))
			for _, m := range models {
				fmt.Fprintf(w, "\n%s\n", m.DisplayName)
				fmt.Fprintf(w, "  name: %s\n", m.Name)
				if m.Description != "" {
					fmt.Fprintf(w, "  description: %s\n", m.Description)
				}
			}
			return nil
		},
	}
}

func diagnoseCommand() *cli.Command {
	var (
		cfg       config
		probeFile string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "probes",
			Aliases:     []string{"p"},
			Usage:       "Path to YAML probe plan (built-in plan if omitted)",
			Sources:     cli.EnvVars("GENLANG_PROBES"),
			Destination: &probeFile,
			TakesFile:   true,
		},
	}
	flags = append(flags, apiFlags(&cfg)...)
	flags = append(flags, vertexFlags(&cfg)...)

	return &cli.Command{
		Name:  "diagnose",
		Usage: "Try candidate endpoints and models until one succeeds",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			probes, err := loadProbes(probeFile)
			if err != nil {
				return err
			}

			uc := cfg.newUseCase(c.Root().Writer)
			if _, err := uc.Diagnose(ctx, probes); err != nil {
				return err
			}
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{modelFlag(&cfg)}
	flags = append(flags, apiFlags(&cfg)...)

	return &cli.Command{
		Name:  "check",
		Usage: "Verify credentials, token refresh and a test generation",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc := cfg.newUseCase(c.Root().Writer)
			return uc.Check(ctx, generation.CheckInput{Model: cfg.model})
		},
	}
}
