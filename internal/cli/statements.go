package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/lazyq/internal/sqlmodel"
)

// StatementKinds are the accepted values of --kind.
var StatementKinds = []string{"all", "create", "drop"}

// StatementsOptions holds flags for the statements command.
type StatementsOptions struct {
	*RootOptions
	Kind string
}

// NewStatementsCommand creates the statements command.
func NewStatementsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatementsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "statements <pipeline>",
		Short: "Print the create or drop statements of a pipeline",
		Long: `Print the statements that create the tables and views of a pipeline, in
creation order, or the statements that drop them, in reverse order.

Example:
  lazyq statements --kind drop ./pipelines/events.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatements(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "all", "statements to print (all|create|drop)")

	return cmd
}

func runStatements(opts *StatementsOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	if !slices.Contains(StatementKinds, opts.Kind) {
		msg := fmt.Sprintf("invalid kind %q: must be one of %v", opts.Kind, StatementKinds)
		_ = formatter.Error(ErrCodeGeneric, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	_, reg, err := loadRegistry(path, nil)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}

	var stmts sqlmodel.Statements
	switch opts.Kind {
	case "create":
		stmts, err = reg.CreateStatements()
	case "drop":
		stmts, err = reg.DropStatements()
	default:
		stmts, err = reg.ToSQL()
	}
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}

	return formatter.Success(statementOutputs(stmts), func(w io.Writer) {
		writeStatements(w, stmts)
	})
}
