// Package registry defines the declarative test case table.
//
// Cases are data, not code: each declares an argument vector, optional
// input fixture, pre-condition files, and an equivalence policy. The
// built-in catalog covers the candidate tool's documented flag surface;
// additional cases come from YAML suite files and from a sweep over a
// fixture directory.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/gzparity/internal/compare"
)

// Case is one declarative test case. Constructed once, read-only
// thereafter; the runner never mutates it.
type Case struct {
	// Name uniquely identifies the case and names its artifacts.
	Name string `yaml:"name"`

	// Description explains what behavior the case probes.
	Description string `yaml:"description,omitempty"`

	// Args is the argument vector, passed byte-identically to both
	// implementations.
	Args []string `yaml:"args,omitempty"`

	// Input names a fixture file copied into each workspace before the
	// run. Empty when the case needs no input fixture.
	Input string `yaml:"input,omitempty"`

	// Stdin is piped to both implementations. Empty means immediate EOF.
	Stdin string `yaml:"stdin,omitempty"`

	// Pre lists filesystem state created after workspace acquisition and
	// before invocation (e.g. a pre-existing output file for
	// overwrite-refusal cases).
	Pre []Precondition `yaml:"pre,omitempty"`

	// Policy selects the comparison channels.
	Policy compare.PolicyTag `yaml:"policy"`

	// Format selects the mask table for produced bytes. Empty defaults
	// to gzip.
	Format compare.Format `yaml:"format,omitempty"`

	// Exit selects the exit-status tolerance: zero/non-zero class
	// (default) or exact numeric match.
	Exit compare.ExitRule `yaml:"exit,omitempty"`

	// Output names the file the tools are expected to produce. Empty
	// defaults to the input name with ".gz" appended.
	Output string `yaml:"output,omitempty"`

	// MaskStdout applies the format masks to stdout, for cases that
	// stream the container there instead of to a file.
	MaskStdout bool `yaml:"mask_stdout,omitempty"`

	// InputSurvives declares whether the input file must still exist
	// after a deletion-policy run. Nil means the two implementations
	// must merely agree.
	InputSurvives *bool `yaml:"input_survives,omitempty"`
}

// Precondition declares filesystem state that must exist before
// invocation.
type Precondition struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content,omitempty"` // literal bytes; empty creates an empty file
	Dir     bool   `yaml:"dir,omitempty"`     // create a directory instead of a file
}

// OutputName returns the produced-file name the case watches, or empty
// when the case produces none.
func (c Case) OutputName() string {
	if c.Output != "" {
		return c.Output
	}
	if c.Input != "" {
		return c.Input + ".gz"
	}
	return ""
}

// ComparePolicy converts the declarative fields into a comparator policy.
func (c Case) ComparePolicy() compare.Policy {
	p := compare.Policy{
		Tag:           c.Policy,
		Exit:          c.Exit,
		Format:        c.Format,
		MaskStdout:    c.MaskStdout,
		InputSurvives: c.InputSurvives,
	}
	if p.Format == "" {
		p.Format = compare.FormatGzip
	}
	return p
}

// TrackedPaths lists the workspace-relative paths the before/after
// snapshots watch: the input, the expected output, and every
// pre-condition file. Sorted and deduplicated. Empty for cases that
// declare no paths at all.
func (c Case) TrackedPaths() []string {
	seen := make(map[string]bool)
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
		}
	}
	add(c.Input)
	add(c.OutputName())
	for _, pre := range c.Pre {
		if !pre.Dir {
			add(pre.Path)
		}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Validate checks a single case for structural problems.
func (c *Case) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Policy == "" {
		return fmt.Errorf("policy is required")
	}
	if !compare.ValidPolicyTag(c.Policy) {
		return fmt.Errorf("unknown policy %q", c.Policy)
	}
	if c.Exit != "" && !compare.ValidExitRule(c.Exit) {
		return fmt.Errorf("unknown exit rule %q", c.Exit)
	}
	if c.Format != "" && !compare.ValidFormat(c.Format) {
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if c.Policy == compare.PolicyOutputFile && c.OutputName() == "" {
		return fmt.Errorf("output is required when no input is declared")
	}
	if c.Input != "" && !filepath.IsLocal(c.Input) {
		return fmt.Errorf("input %q must be a relative path inside the workspace", c.Input)
	}
	if c.Output != "" && !filepath.IsLocal(c.Output) {
		return fmt.Errorf("output %q must be a relative path inside the workspace", c.Output)
	}
	for i, pre := range c.Pre {
		if pre.Path == "" {
			return fmt.Errorf("pre[%d]: path is required", i)
		}
		if !filepath.IsLocal(pre.Path) {
			return fmt.Errorf("pre[%d]: path %q must be a relative path inside the workspace", i, pre.Path)
		}
		if pre.Dir && pre.Content != "" {
			return fmt.Errorf("pre[%d]: dir and content are mutually exclusive", i)
		}
	}
	return nil
}

// Filter returns the cases whose names match the glob pattern.
// An empty pattern keeps everything.
func Filter(cases []Case, pattern string) ([]Case, error) {
	if pattern == "" {
		return cases, nil
	}

	var out []Case
	for _, c := range cases {
		matched, err := filepath.Match(pattern, c.Name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if matched {
			out = append(out, c)
		}
	}
	return out, nil
}

// Sweep generates one compression case per regular file in the fixtures
// directory, in name order. This probes arbitrary content, including the
// empty file that historically diverged on checksum initialization.
func Sweep(fixturesDir string) ([]Case, error) {
	entries, err := os.ReadDir(fixturesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures directory: %w", err)
	}

	var cases []Case
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		cases = append(cases, Case{
			Name:        "sweep-" + name,
			Description: fmt.Sprintf("compress fixture %s", name),
			Args:        []string{name},
			Input:       name,
			Policy:      compare.PolicyOutputFile,
			Format:      compare.FormatGzip,
		})
	}
	return cases, nil
}
