// Package cli implements the recordstore command-line interface. Every
// command opens the Store Handle first, performs one operation, and prints
// the collection afterwards where that is what a user wants to see next.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values shared by all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	user      bool
	backend   string
	logLevel  string
	jsonMode  bool
	metrics   bool
}

// app carries the state of one CLI invocation.
type app struct {
	flags  rootFlags
	cfg    *viper.Viper
	log    *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd creates the top-level "recordstore" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "recordstore",
		Short: "A small versioned record store",
		Long: "recordstore keeps structured records in named collections of a\n" +
			"versioned database. The user collection is provisioned on first use.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.stdout = cmd.OutOrStdout()
			a.stderr = cmd.ErrOrStderr()
			return a.configure(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.recordstore)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.recordstore-db)")
	pf.BoolVar(&a.flags.user, "user", false, "use the per-user directories instead of the working directory")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: sqlite or memory (default: sqlite)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default: warn)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVar(&a.flags.metrics, "metrics", false, "print operation counters after the command")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newGetCmd(a),
		newExistsCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "recordstore:", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument errors from cobra.
	return exitUserError
}

// exitError pairs an error with the exit code it maps to.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error { return &exitError{code: exitSysError, err: err} }

func userErrorf(format string, args ...any) error {
	return userError(fmt.Errorf(format, args...))
}
