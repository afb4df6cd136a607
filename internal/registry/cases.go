package registry

import (
	"fmt"

	"github.com/roach88/gzparity/internal/compare"
)

// sampleName is the canonical input fixture the built-in catalog
// compresses. The fixtures directory passed to the runner must contain
// it; cases that reference a missing fixture are skipped, not failed.
const sampleName = "sample.txt"

// sentinel is the pre-existing output content for overwrite cases. If a
// tool refuses to overwrite, these exact bytes must survive.
const sentinel = "sentinel: do not overwrite\n"

// emptyMember is a complete gzip member for zero bytes of input: fixed
// header with MTIME zero and OS byte unix, an empty final deflate
// block, and an all-zero CRC32/ISIZE trailer. Used as decompression
// material so those cases need no fixture.
const emptyMember = "\x1f\x8b\x08\x00\x00\x00\x00\x00\x00\x03" +
	"\x03\x00" +
	"\x00\x00\x00\x00\x00\x00\x00\x00"

func boolPtr(b bool) *bool { return &b }

// Builtin returns the default ordered case table covering the
// candidate tool's documented flag surface: bare invocation, error
// paths, every compression level, mode flags, and informational output.
func Builtin() []Case {
	cases := []Case{
		{
			Name:        "no-arguments",
			Description: "no operands, empty stdin",
			Policy:      compare.PolicyStdoutOnly,
			MaskStdout:  true,
		},
		{
			Name:        "stdin-dash",
			Description: "explicit stdin operand with -c",
			Args:        []string{"-c", "-"},
			Stdin:       "streamed through standard input\n",
			Policy:      compare.PolicyStdoutOnly,
			MaskStdout:  true,
		},
		{
			Name:        "missing-input",
			Description: "operand names a file that does not exist",
			Args:        []string{"no-such-file.txt"},
			Policy:      compare.PolicyStdoutOnly,
		},
		{
			Name:        "directory-operand",
			Description: "operand names a directory",
			Args:        []string{"subdir"},
			Pre:         []Precondition{{Path: "subdir", Dir: true}},
			Policy:      compare.PolicyStdoutOnly,
		},
		{
			Name:        "pre-existing-output",
			Description: "output file already exists, no -f",
			Args:        []string{sampleName},
			Input:       sampleName,
			Pre:         []Precondition{{Path: sampleName + ".gz", Content: sentinel}},
			Policy:      compare.PolicyOutputFile,
			Format:      compare.FormatRaw,
		},
		{
			Name:        "force-overwrite",
			Description: "output file already exists, -f given",
			Args:        []string{"-f", sampleName},
			Input:       sampleName,
			Pre:         []Precondition{{Path: sampleName + ".gz", Content: sentinel}},
			Policy:      compare.PolicyOutputFile,
		},
		{
			Name:          "destructive-delete",
			Description:   "default mode removes the input after compressing",
			Args:          []string{sampleName},
			Input:         sampleName,
			Policy:        compare.PolicyDeletion,
			InputSurvives: boolPtr(false),
		},
		{
			Name:          "keep-input",
			Description:   "-k preserves the input alongside the output",
			Args:          []string{"-k", sampleName},
			Input:         sampleName,
			Policy:        compare.PolicyDeletion,
			InputSurvives: boolPtr(true),
		},
		{
			Name:        "help",
			Description: "-h prints usage",
			Args:        []string{"-h"},
			Policy:      compare.PolicyStdoutOnly,
		},
		{
			Name:        "malformed-bits",
			Description: "-b with a non-numeric operand",
			Args:        []string{"-b", "xyz", sampleName},
			Input:       sampleName,
			Policy:      compare.PolicyStdoutOnly,
		},
		{
			Name:        "unknown-option",
			Description: "option outside the documented surface",
			Args:        []string{"-X"},
			Policy:      compare.PolicyStdoutOnly,
		},
	}

	for level := 1; level <= 9; level++ {
		cases = append(cases, Case{
			Name:        fmt.Sprintf("level-%d", level),
			Description: fmt.Sprintf("compression level -%d", level),
			Args:        []string{fmt.Sprintf("-%d", level), sampleName},
			Input:       sampleName,
			Policy:      compare.PolicyOutputFile,
		})
	}

	cases = append(cases,
		Case{
			Name:        "ascii-text-mode",
			Description: "-a requests text-mode conversion",
			Args:        []string{"-a", sampleName},
			Input:       sampleName,
			Policy:      compare.PolicyOutputFile,
		},
		Case{
			Name:        "stdout-flag",
			Description: "-c streams compressed bytes to stdout",
			Args:        []string{"-c", sampleName},
			Input:       sampleName,
			Policy:      compare.PolicyStdoutOnly,
			MaskStdout:  true,
		},
		Case{
			Name:        "quiet",
			Description: "-q suppresses warnings",
			Args:        []string{"-q", sampleName},
			Input:       sampleName,
			Policy:      compare.PolicyOutputFile,
		},
		Case{
			Name:        "verbose",
			Description: "-v reports the compression ratio",
			Args:        []string{"-v", sampleName},
			Input:       sampleName,
			Policy:      compare.PolicyOutputFile,
		},
		Case{
			Name:        "no-name",
			Description: "-n omits the original name and timestamp",
			Args:        []string{"-n", sampleName},
			Input:       sampleName,
			Policy:      compare.PolicyOutputFile,
		},
		Case{
			Name:        "store-name",
			Description: "-N stores the original name and timestamp",
			Args:        []string{"-N", sampleName},
			Input:       sampleName,
			Policy:      compare.PolicyOutputFile,
		},
		Case{
			Name:        "custom-suffix",
			Description: "-S selects an alternate output suffix",
			Args:        []string{"-S", ".z", sampleName},
			Input:       sampleName,
			Policy:      compare.PolicyOutputFile,
			Output:      sampleName + ".z",
		},
		Case{
			Name:        "recursive",
			Description: "-r descends into a directory operand",
			Args:        []string{"-r", "tree"},
			Pre: []Precondition{
				{Path: "tree", Dir: true},
				{Path: "tree/inner.txt", Content: "nested fixture content\n"},
			},
			Policy: compare.PolicyOutputFile,
			Output: "tree/inner.txt.gz",
		},
		Case{
			Name:        "integrity-test",
			Description: "-t checks a valid member without writing output",
			Args:        []string{"-t", "empty.gz"},
			Pre:         []Precondition{{Path: "empty.gz", Content: emptyMember}},
			Policy:      compare.PolicyStdoutOnly,
		},
		Case{
			Name:        "decompress",
			Description: "-d restores the original bytes",
			Args:        []string{"-d", "empty.gz"},
			Pre:         []Precondition{{Path: "empty.gz", Content: emptyMember}},
			Policy:      compare.PolicyOutputFile,
			Format:      compare.FormatRaw,
			Output:      "empty",
		},
		Case{
			Name:        "list",
			Description: "-l prints member metadata",
			Args:        []string{"-l", "empty.gz"},
			Pre:         []Precondition{{Path: "empty.gz", Content: emptyMember}},
			Policy:      compare.PolicyStdoutOnly,
		},
		Case{
			Name:        "empty-input-level-9",
			Description: "zero-byte input at the highest level",
			Args:        []string{"-9", "empty.bin"},
			Pre:         []Precondition{{Path: "empty.bin"}},
			Policy:      compare.PolicyOutputFile,
			Output:      "empty.bin.gz",
		},
		Case{
			Name:        "version",
			Description: "-V prints the version banner",
			Args:        []string{"-V"},
			Policy:      compare.PolicyStdoutOnly,
		},
		Case{
			Name:        "license",
			Description: "-L prints the license text",
			Args:        []string{"-L"},
			Policy:      compare.PolicyStdoutOnly,
		},
	)

	return cases
}
