package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vango-dev/sso/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, coded(err))
		os.Exit(1)
	}
}

// coded returns err as a coded error. Errors from cobra and flag parsing
// become S103 with their text as the detail.
func coded(err error) *errors.Error {
	se := errors.FromError(err, "S103")
	if _, ok := err.(*errors.Error); !ok && se != nil {
		se.Detail = err.Error()
	}
	return se
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	logFormat string
	logLevel  string
	noColor   bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "sso",
		Short: "Run and inspect shared state store scenarios",
		Long: `sso drives fine-grained reactive stores from scenario files.

A scenario declares the store's fields and computed properties and a list
of steps (get, set, update, subscribe, unsubscribe, notified, revoke) with
expected values or errors. Use it to check store behavior from the shell:

  • Trace every write and listener notification
  • Verify equality suppression and computed values
  • Report failed expectations with a non-zero exit status`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	// Add commands
	rootCmd.AddCommand(
		runCmd(flags),
		errorsCmd(),
		versionCmd(),
	)

	return rootCmd
}

// newLogger builds the slog logger selected by the global flags.
func newLogger(w io.Writer, flags *globalFlags) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", flags.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(flags.logFormat) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (want text or json)", flags.logFormat)
	}
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// failure prints a failure message.
func failure(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
