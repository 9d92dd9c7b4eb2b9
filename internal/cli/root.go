// Package cli provides the Cobra command tree and output wiring for dohapi.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shalmon/dohapi/internal/config"
	"github.com/shalmon/dohapi/internal/version"
	"github.com/shalmon/dohapi/internal/worker"
)

// newRootCmd builds the top-level Cobra command for dohapi and the deps its
// subcommands share. Callers must close the deps once the command returns.
func newRootCmd() (*cobra.Command, *deps) {
	// d is populated by PersistentPreRunE before any subcommand's RunE runs.
	// Cobra only executes the innermost PersistentPreRunE in the command
	// chain; a subcommand defining its own hook must call buildDeps itself.
	d := &deps{}

	cmd := &cobra.Command{
		Use:   "dohapi",
		Short: "HTTP client that resolves hostnames over DNS-over-HTTPS",
		Long: `dohapi issues HTTP requests whose target hostnames are resolved through a
DNS-over-HTTPS provider instead of the system resolver.

The provider's own endpoint is reached through fixed bootstrap addresses, so
no lookup ever touches system DNS. Unknown provider names fall back to CloudFlare.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			resolved, err := buildDeps(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			*d = *resolved
			return nil
		},
	}

	config.RegisterFlags(cmd.PersistentFlags())
	config.RegisterFlagCompletions(cmd)

	cmd.Version = version.Version
	cmd.SetVersionTemplate("dohapi version {{.Version}}\n")

	cmd.AddGroup(
		&cobra.Group{ID: "request", Title: "Request Commands:"},
		&cobra.Group{ID: "dns", Title: "DoH Commands:"},
		&cobra.Group{ID: "utility", Title: "Utility Commands:"},
	)

	cmd.AddCommand(newRequestCmds(d)...)
	cmd.AddCommand(
		newBatchCmd(d),
		newBridgeCmd(d),
		newResolveCmd(d),
		newProvidersCmd(d),
		newConfigCmd(d),
		newCompletionCmd(),
		newVersionCmd(d),
	)

	return cmd, d
}

// Execute builds the root command and runs it with args.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd, d := newRootCmd()
	return executeRoot(ctx, cmd, d, args, stdin, stdout, stderr)
}

// executeRoot runs cmd and releases d afterwards, also when the command
// failed. PersistentPostRun would be skipped on that path.
func executeRoot(ctx context.Context, cmd *cobra.Command, d *deps, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	defer d.close()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// resolveInputs returns positional args, or reads non-empty lines from stdin when
// no args are provided. Returns an error if stdin is an interactive terminal with
// no args (i.e. the user forgot to pass an argument or pipe input).
func resolveInputs(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	r := cmd.InOrStdin()
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // uintptr→int is safe for file descriptors
		return nil, fmt.Errorf("no input: pass an argument or pipe stdin")
	}
	return worker.ReadInputs(r)
}
