package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/gzparity/internal/registry"
)

// SuiteReport holds validation results for one suite file.
type SuiteReport struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Name  string `json:"name,omitempty"`  // suite name when valid
	Cases int    `json:"cases,omitempty"` // case count when valid
	Error string `json:"error,omitempty"`
	Line  int    `json:"line,omitempty"` // source line when available
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool          `json:"valid"`
	Suites []SuiteReport `json:"suites"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <suite-file>...",
		Short: "Validate suite files without running them",
		Long: `Validate YAML suite files without running any case.

Each document is checked against the suite schema first, so type and
vocabulary mistakes are reported with field paths, then decoded
strictly and checked for the rules the schema cannot express: local
paths, unique case names, and cross-field requirements.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,  // Don't print usage on errors
		SilenceErrors: true,  // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateSuites(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidateSuites(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true}
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("suite file not found: %s", file), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("suite file not found: %s", file))
		}
		result.Suites = append(result.Suites, checkSuite(file, formatter))
	}

	for _, sr := range result.Suites {
		if !sr.Valid {
			result.Valid = false
			break
		}
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// checkSuite validates one suite file.
func checkSuite(file string, formatter *OutputFormatter) SuiteReport {
	report := SuiteReport{File: file}

	formatter.VerboseLog("Validating %s", file)

	suite, err := registry.LoadSuite(file)
	if err != nil {
		report.Error = err.Error()

		// Schema violations carry a field path and source position;
		// prefer those over the wrapped rendering.
		var schemaErr *registry.SchemaError
		if errors.As(err, &schemaErr) {
			if schemaErr.Path != "" {
				report.Error = fmt.Sprintf("%s: %s", schemaErr.Path, schemaErr.Message)
			} else {
				report.Error = schemaErr.Message
			}
			if schemaErr.Pos.IsValid() {
				report.Line = schemaErr.Pos.Line()
			}
		}
		return report
	}

	report.Valid = true
	report.Name = suite.Name
	report.Cases = len(suite.Cases)
	formatter.VerboseLog("Suite %q: %d case(s)", suite.Name, len(suite.Cases))
	return report
}

// outputValidateSuccess outputs a fully valid result.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, sr := range result.Suites {
		fmt.Fprintf(formatter.Writer, "✓ %s: suite %q, %d case(s)\n", filepath.Base(sr.File), sr.Name, sr.Cases)
	}
	fmt.Fprintln(formatter.Writer, "✓ All suites valid")
	return nil
}

// outputValidationErrors outputs the failing files.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failed := 0
	for _, sr := range result.Suites {
		if !sr.Valid {
			failed++
		}
	}

	if formatter.Format == "json" {
		first := firstInvalid(result)
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeSuiteInvalid,
				Message: first.Error,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d file(s)", failed))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, sr := range result.Suites {
		if sr.Valid {
			continue
		}
		fmt.Fprintln(formatter.Writer, sr.File)
		if sr.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", sr.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s\n\n", sr.Error)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d file(s)", failed))
}

func firstInvalid(result ValidationResult) SuiteReport {
	for _, sr := range result.Suites {
		if !sr.Valid {
			return sr
		}
	}
	return SuiteReport{}
}
