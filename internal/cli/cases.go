package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gzparity/internal/registry"
)

// CasesOptions holds flags for the cases command.
type CasesOptions struct {
	*RootOptions
	Suite  string
	Filter string
}

// CaseInfo describes one catalog entry for listing.
type CaseInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Args        []string `json:"args,omitempty"`
	Policy      string   `json:"policy"`
}

// CasesResult holds the case listing.
type CasesResult struct {
	Suite string     `json:"suite,omitempty"`
	Cases []CaseInfo `json:"cases"`
	Total int        `json:"total"`
}

// NewCasesCommand creates the cases command.
func NewCasesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CasesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List the case catalog",
		Long: `List the cases a run would execute.

Without --suite this is the built-in catalog. With --suite it is the
suite file's cases, exactly as a run with the same flags would see
them.

Examples:
  gzparity cases
  gzparity cases --filter "level-*"
  gzparity cases --suite nightly.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCases(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Suite, "suite", "", "YAML suite file replacing the built-in catalog")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")

	return cmd
}

func runCases(opts *CasesOptions, cmd *cobra.Command) error {
	cases := registry.Builtin()
	suiteName := ""

	if opts.Suite != "" {
		suite, err := registry.LoadSuite(opts.Suite)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load suite", err)
		}
		cases = suite.Cases
		suiteName = suite.Name
	}

	if opts.Filter != "" {
		filtered, err := registry.Filter(cases, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid filter pattern", err)
		}
		cases = filtered
	}

	result := CasesResult{
		Suite: suiteName,
		Cases: make([]CaseInfo, 0, len(cases)),
		Total: len(cases),
	}
	for _, c := range cases {
		result.Cases = append(result.Cases, CaseInfo{
			Name:        c.Name,
			Description: c.Description,
			Args:        c.Args,
			Policy:      string(c.Policy),
		})
	}

	if opts.Format == "json" {
		return outputCasesJSON(cmd, result)
	}
	return outputCasesText(cmd, result, opts.Verbose)
}

// outputCasesJSON outputs the case listing as JSON.
func outputCasesJSON(cmd *cobra.Command, result CasesResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputCasesText outputs the case listing as text.
func outputCasesText(cmd *cobra.Command, result CasesResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No cases selected.")
		return nil
	}

	if result.Suite != "" {
		fmt.Fprintf(w, "Suite: %s\n\n", result.Suite)
	}

	width := 0
	for _, c := range result.Cases {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}

	for _, c := range result.Cases {
		args := strings.Join(c.Args, " ")
		if args == "" {
			args = "(no arguments)"
		}
		fmt.Fprintf(w, "  %-*s  %s\n", width, c.Name, args)
		if verbose && c.Description != "" {
			fmt.Fprintf(w, "  %-*s    %s\n", width, "", c.Description)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d case(s)\n", result.Total)
	return nil
}
