package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/cascade/internal/app"
)

// Exit codes.
const (
	ExitRuntime     = 1
	ExitUsage       = 2
	ExitHookFailure = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Factory builds the App for a validated configuration.
type Factory func(cfg *app.Config) (*app.App, error)

// commandContext is shared by every subcommand.
type commandContext struct {
	outW    io.Writer
	errW    io.Writer
	factory Factory

	configPath      string
	logLevel        string
	logFormat       string
	healthcheckPort int

	// started is set once flag and argument validation passed.
	started bool
}

// newApp validates the global flags and builds the App. concurrency
// overrides the manifest when positive.
func (c *commandContext) newApp(concurrency int) (*app.App, error) {
	cfg, err := app.NewConfig(app.Config{
		ConfigPath:      c.configPath,
		LogLevel:        strings.ToLower(c.logLevel),
		LogFormat:       strings.ToLower(c.logFormat),
		HealthcheckPort: c.healthcheckPort,
		Concurrency:     concurrency,
	})
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return c.factory(cfg)
}

// NewRootCommand builds the command tree. Command output goes to outW, logs
// and errors to errW.
func NewRootCommand(outW, errW io.Writer, factory Factory) *cobra.Command {
	return newRootCommand(&commandContext{outW: outW, errW: errW, factory: factory})
}

func newRootCommand(c *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cascade",
		Short:         "Incremental dependency-aware build and deploy scheduler",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.started = true
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetOut(c.outW)
	rootCmd.SetErr(c.errW)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "cascade.hcl", "Path to the manifest file or a directory of .hcl files")
	flags.StringVar(&c.logLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn', 'error'")
	flags.StringVar(&c.logFormat, "log-format", "", "Log format: 'text' or 'json' (default: text on a terminal, json otherwise)")
	flags.IntVar(&c.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")

	rootCmd.AddCommand(newPlanCommand(c))
	rootCmd.AddCommand(newRunCommand(c))
	rootCmd.AddCommand(newResolveCommand(c))
	rootCmd.AddCommand(newServeCommand(c))
	rootCmd.AddCommand(newWatchCommand(c))
	rootCmd.AddCommand(newHistoryCommand(c))

	return rootCmd
}

// Execute runs the command line and maps failures to exit codes: usage
// problems are ExitUsage and a run stopped by a deploy hook is
// ExitHookFailure. Other errors are returned unchanged.
func Execute(ctx context.Context, outW, errW io.Writer, args []string, factory Factory) error {
	c := &commandContext{outW: outW, errW: errW, factory: factory}
	rootCmd := newRootCommand(c)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr
	case !c.started:
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	case errors.Is(err, app.ErrHookFailed):
		return &ExitError{Code: ExitHookFailure, Message: err.Error()}
	}
	return err
}
