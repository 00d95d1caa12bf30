package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/fakews/pkg/cli/internal/output"
	"github.com/getmockd/fakews/pkg/config"
)

// ValidationResult is one row of `fakews validate` output.
type ValidationResult struct {
	File     string           `json:"file"`
	Name     string           `json:"name,omitempty"`
	Steps    int              `json:"steps"`
	Valid    bool             `json:"valid"`
	Error    string           `json:"error,omitempty"`
	Problems []config.Problem `json:"problems,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate <file-or-glob>...",
		Short: "Check script files against the schema and compile them",
		Long: `Validate script files. Each argument is a path or a glob; ** matches any
number of directories. Every file is checked against the script schema and
compiled, and all problems are reported before the command fails.`,
		Example: `  fakews validate greeting.yaml
  fakews validate 'fixtures/**/*.yaml'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := config.ExpandPatterns(args...)
			if err != nil {
				return err
			}

			results := make([]ValidationResult, 0, len(paths))
			failed := 0
			for _, p := range paths {
				r := validateFile(p)
				if !r.Valid {
					failed++
					a.logger.Debug("invalid script file", "file", p, "error", r.Error)
				}
				results = append(results, r)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if err := output.JSON(out, results); err != nil {
					return err
				}
			} else {
				printValidation(cmd, results)
			}

			if failed > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d of %d script files are invalid", failed, len(results))}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}

func validateFile(path string) ValidationResult {
	r := ValidationResult{File: path}
	f, err := config.LoadScriptFile(path)
	if err != nil {
		return r.fail(err)
	}
	r.Name = f.Name
	script, err := f.Compile()
	if err != nil {
		return r.fail(err)
	}
	r.Steps = script.Len()
	r.Valid = true
	return r
}

func (r ValidationResult) fail(err error) ValidationResult {
	r.Error = err.Error()
	var serr *config.SchemaError
	if errors.As(err, &serr) {
		r.Problems = serr.Problems
	}
	return r
}

func printValidation(cmd *cobra.Command, results []ValidationResult) {
	w := output.Table(cmd.OutOrStdout())
	fmt.Fprintln(w, "FILE\tNAME\tSTEPS\tSTATUS")
	for _, r := range results {
		status := "ok"
		if !r.Valid {
			status = "invalid"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.File, dash(r.Name), r.Steps, status)
	}
	_ = w.Flush()

	for _, r := range results {
		if r.Valid {
			continue
		}
		errOut := cmd.ErrOrStderr()
		if len(r.Problems) == 0 {
			fmt.Fprintf(errOut, "%s: %s\n", r.File, r.Error)
			continue
		}
		for _, p := range r.Problems {
			fmt.Fprintf(errOut, "%s: %s\n", r.File, p)
		}
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
