// Package cli is the marketplace-accounts command line: flag parsing,
// collaborator wiring and exit status.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/spf13/cobra"
)

const (
	ExitOK    = 0
	ExitError = 1
)

type IOStreams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func StdStreams() IOStreams {
	return IOStreams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

type Options struct {
	Developer string
	EnvFile   string
	LogLevel  string
	LogJSON   bool
}

// Lifecycle brackets the interactive session.
type Lifecycle interface {
	Setup(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type Runner interface {
	Run(ctx context.Context) error
}

// App is everything the root command needs once flags are parsed.
type App struct {
	Lifecycle Lifecycle
	Loop      Runner
	Logger    core.Logger
	// Close releases wiring that outlives Shutdown, such as dispatcher
	// subscriptions.
	Close func()
}

// Factory builds the App. It only runs after the developer flag was given.
type Factory func(ctx context.Context, opts Options, streams IOStreams) (*App, error)

func NewRootCommand(factory Factory, streams IOStreams) *cobra.Command {
	opts := Options{}
	cmd := &cobra.Command{
		Use:           "marketplace-accounts",
		Short:         "Register marketplace accounts and create test accounts",
		Long:          "Logs in marketplace accounts through the browser, stores their tokens and creates test accounts under a developer account.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.Developer) == "" {
				return cmd.Help()
			}
			return run(cmd.Context(), opts, factory, streams)
		},
	}
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	flags := cmd.Flags()
	flags.StringVarP(&opts.Developer, "developer", "d", "", "nickname of the developer account that owns new test accounts")
	flags.StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with MARKETPLACE_* settings")
	flags.StringVar(&opts.LogLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.BoolVar(&opts.LogJSON, "log-json", false, "write logs as JSON")
	return cmd
}

func run(ctx context.Context, opts Options, factory Factory, streams IOStreams) (err error) {
	if factory == nil {
		return fmt.Errorf("cli: factory is required")
	}
	app, err := factory(ctx, opts, streams)
	if err != nil {
		return err
	}
	if app == nil || app.Lifecycle == nil || app.Loop == nil {
		return fmt.Errorf("cli: factory returned an incomplete app")
	}

	defer func() {
		// Shutdown must run even when ctx was cancelled by a signal.
		if shutdownErr := app.Lifecycle.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			err = errors.Join(err, shutdownErr)
		}
		if app.Close != nil {
			app.Close()
		}
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = goerrors.New(fmt.Sprintf("unexpected failure: %v", recovered), goerrors.CategoryInternal).
				WithTextCode(core.ErrorUnexpected)
			if app.Logger != nil {
				app.Logger.Error("panic recovered", "panic", fmt.Sprint(recovered))
			}
		}
	}()

	if err := app.Lifecycle.Setup(ctx); err != nil {
		return err
	}
	return app.Loop.Run(ctx)
}

// Execute runs the root command and maps the outcome to a process exit
// status.
func Execute(ctx context.Context, args []string, streams IOStreams, factory Factory) int {
	cmd := NewRootCommand(factory, streams)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(streams.Err, "Interrupted.")
		return ExitError
	}
	mapped := core.MapError(err)
	fmt.Fprintf(streams.Err, "Error: %s\n", err.Error())
	if mapped != nil && mapped.TextCode != "" {
		fmt.Fprintf(streams.Err, "Code: %s\n", mapped.TextCode)
	}
	return ExitError
}
