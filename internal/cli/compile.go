package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of the compile command.
type CompilationResult struct {
	Pipeline   string            `json:"pipeline"`
	Statements []StatementOutput `json:"statements"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <pipeline>",
		Short: "Compile a pipeline to SQL",
		Long: `Compile a YAML or CUE pipeline definition to the SQL statements of its
checkpoints, dependencies first. Nothing is executed.

Example:
  lazyq compile ./pipelines/events.yaml
  lazyq compile ./pipelines/events.cue -o events.sql`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the SQL script to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	p, reg, err := loadRegistry(path, nil)
	if err != nil {
		return fail(formatter, ExitCommandError, err)
	}
	stmts, err := reg.ToSQL()
	if err != nil {
		_ = formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to compile statements", err)
	}

	if opts.Output != "" {
		var buf bytes.Buffer
		writeStatements(&buf, stmts)
		if err := os.WriteFile(opts.Output, buf.Bytes(), 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	result := CompilationResult{Pipeline: p.Name, Statements: statementOutputs(stmts)}
	return formatter.Success(result, func(w io.Writer) {
		if opts.Output != "" {
			fmt.Fprintf(w, "✓ Compiled %d statement(s) for %s\n", len(stmts), p.Name)
			fmt.Fprintf(w, "Wrote SQL to %s\n", opts.Output)
			return
		}
		writeStatements(w, stmts)
	})
}
