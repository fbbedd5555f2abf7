package cli

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/genlang/pkg/model"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// promptFromArgs joins positional arguments into the prompt. Without
// arguments the prompt is read from stdin: one line interactively on a
// terminal, otherwise the whole stream.
func promptFromArgs(c *cli.Command) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}

	in := c.Root().Reader
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return readLine(f, c.Root().ErrWriter)
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read prompt from stdin", goerr.T(model.TagConfig))
	}
	return string(data), nil
}

func readLine(in *os.File, out io.Writer) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "prompt> ",
		Stdin:  in,
		Stdout: out,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to initialize prompt reader")
	}
	defer rl.Close()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", nil
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to read prompt")
	}
	return line, nil
}

// startSpinner shows progress on w when it is a terminal and returns the
// function that stops it.
func startSpinner(w io.Writer, suffix string) func() {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(f) {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriterFile(f),
		spinner.WithSuffix(" "+suffix),
	)
	s.Start()
	return s.Stop
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
