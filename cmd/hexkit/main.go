package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RowanDark/hexkit/internal/cipher"
	"github.com/RowanDark/hexkit/internal/config"
	"github.com/RowanDark/hexkit/internal/hexify"
	"github.com/RowanDark/hexkit/internal/logging"
)

const productName = "hexkit"

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// usageError marks failures that should exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// app carries the streams and resolved state shared by every command.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	home      string
	unhexArgs bool

	cfg      config.Config
	logger   *logging.Logger
	registry *cipher.Registry
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, registry: cipher.Default}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.logger != nil {
		_ = a.logger.Close()
	}
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "%s: %v\n", productName, err)
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	return 1
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   productName,
		Short: "Encode, decode and $HEX[...] escape candidate strings",
		Long: `hexkit converts data between the base64, base32 and crypt alphabets used
by password hash formats, and renders fields that are unsafe as plain text in
the $HEX[...] envelope.

Input comes from the arguments, or from stdin one line per value.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&a.home, "home", "", "home directory holding .hexkit/config.toml (default: user home)")
	root.PersistentFlags().BoolVarP(&a.unhexArgs, "unhex-input", "x", false, "decode $HEX[...] input values before processing")

	root.AddCommand(
		a.encodeCmd(),
		a.decodeCmd(),
		a.hexifyCmd(),
		a.unhexifyCmd(),
		a.checkCmd(),
		a.detectCmd(),
		a.pipelineCmd(),
		a.recipeCmd(),
		a.opsCmd(),
		a.serveCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	home := a.home
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.LoadFrom(home, wd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logger, err := logging.New(productName,
		logging.WithoutStderr(),
		logging.WithWriter(a.stderr),
		logging.WithLevel(cfg.LogLevel),
	)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	a.logger = logger
	a.logger.Debug("configuration loaded",
		zap.String("command", cmd.CommandPath()),
		zap.String("home", filepath.Join(home, ".hexkit")),
		zap.String("default_codec", cfg.DefaultCodec),
	)
	return nil
}

func (a *app) policy() hexify.Policy {
	return a.cfg.Policy()
}

// each calls fn for every input value: the arguments when given, otherwise
// each line of stdin.
func (a *app) each(args []string, fn func([]byte) error) error {
	prepare := func(b []byte) []byte {
		if a.unhexArgs {
			return a.policy().Parse(b)
		}
		return b
	}

	if len(args) > 0 {
		for _, arg := range args {
			if err := fn(prepare([]byte(arg))); err != nil {
				return err
			}
		}
		return nil
	}

	sc := bufio.NewScanner(a.stdin)
	sc.Buffer(make([]byte, 64*1024), 16<<20)
	for sc.Scan() {
		line := bytes.TrimSuffix(sc.Bytes(), []byte{'\r'})
		if err := fn(prepare(bytes.Clone(line))); err != nil {
			return err
		}
	}
	return sc.Err()
}

// emit writes one output field followed by a newline.
func (a *app) emit(b []byte) error {
	if _, err := a.stdout.Write(b); err != nil {
		return err
	}
	_, err := io.WriteString(a.stdout, "\n")
	return err
}

// emitField writes b rendered under the configured policy.
func (a *app) emitField(b []byte) error {
	return a.emit(a.policy().Render(b))
}
