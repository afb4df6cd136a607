package compare

import (
	"fmt"
	"strconv"
)

// Channel identifies which observable diverged between the two
// implementations.
type Channel string

const (
	ChannelStdout         Channel = "stdout"
	ChannelStderr         Channel = "stderr"
	ChannelExitStatus     Channel = "exit-status"
	ChannelOutputBytes    Channel = "output-file-bytes"
	ChannelOutputPresence Channel = "output-file-presence"
	ChannelInputSurvival  Channel = "input-file-survival"
)

// PolicyTag selects which channels a comparison covers.
type PolicyTag string

const (
	// PolicyStdoutOnly compares stdout, stderr, and exit status.
	PolicyStdoutOnly PolicyTag = "stdout-only"

	// PolicyOutputFile additionally compares the produced output file
	// under the format's mask table.
	PolicyOutputFile PolicyTag = "stdout-and-output-file"

	// PolicyDeletion additionally checks input-file survival.
	PolicyDeletion PolicyTag = "stdout-and-deletion"
)

// ValidPolicyTag reports whether t names a known policy.
func ValidPolicyTag(t PolicyTag) bool {
	switch t {
	case PolicyStdoutOnly, PolicyOutputFile, PolicyDeletion:
		return true
	}
	return false
}

// ExitRule controls how exit statuses are compared.
type ExitRule string

const (
	// ExitClass treats all non-zero statuses as equivalent. Reference and
	// candidate ecosystems may assign different numeric codes to the same
	// error class.
	ExitClass ExitRule = "class"

	// ExitExact requires the numeric codes to match.
	ExitExact ExitRule = "exact"
)

// ValidExitRule reports whether r names a known rule.
func ValidExitRule(r ExitRule) bool {
	return r == ExitClass || r == ExitExact
}

// Policy is the equivalence policy for one comparison.
type Policy struct {
	Tag    PolicyTag
	Exit   ExitRule // empty defaults to ExitClass
	Format Format   // mask table for output bytes; empty defaults to FormatRaw

	// MaskStdout applies the format masks to the stdout channel as well.
	// Set for cases that stream the container to stdout instead of a file.
	MaskStdout bool

	// InputSurvives declares the expected input-file state after a
	// PolicyDeletion case. Nil means differential only: the two
	// implementations must merely agree with each other.
	InputSurvives *bool
}

// Observation captures everything observable from one implementation's run.
type Observation struct {
	ExitCode      int
	Stdout        []byte
	Stderr        []byte
	OutputPresent bool
	Output        []byte // produced output file content; nil when absent
	InputPresent  bool   // input file survival after the run
}

// Difference records one diverging channel with a short description of
// each side. Offset is the first diverging byte for content channels
// and -1 otherwise.
type Difference struct {
	Channel   Channel `json:"channel"`
	Reference string  `json:"reference"`
	Candidate string  `json:"candidate"`
	Offset    int64   `json:"offset"`
}

func (d Difference) String() string {
	if d.Offset >= 0 {
		return fmt.Sprintf("%s diverges at byte %d: reference %s, candidate %s",
			d.Channel, d.Offset, d.Reference, d.Candidate)
	}
	return fmt.Sprintf("%s: reference %s, candidate %s", d.Channel, d.Reference, d.Candidate)
}

// Verdict is the tagged outcome of one comparison: an empty Diffs slice
// is a Match, anything else is a Mismatch. Never mutated after creation.
type Verdict struct {
	Diffs []Difference `json:"diffs,omitempty"`
}

// Match reports whether no channel diverged.
func (v Verdict) Match() bool { return len(v.Diffs) == 0 }

// Compare applies the policy to a pair of observations and reports every
// diverging channel.
func Compare(ref, cand Observation, p Policy) Verdict {
	var v Verdict

	rule := p.Exit
	if rule == "" {
		rule = ExitClass
	}
	if !exitEqual(ref.ExitCode, cand.ExitCode, rule) {
		v.Diffs = append(v.Diffs, Difference{
			Channel:   ChannelExitStatus,
			Reference: exitDesc(ref.ExitCode, rule),
			Candidate: exitDesc(cand.ExitCode, rule),
			Offset:    -1,
		})
	}

	var stdoutMasks []Mask
	if p.MaskStdout {
		stdoutMasks = MasksFor(p.Format)
	}
	if off := firstDivergence(ref.Stdout, cand.Stdout, stdoutMasks); off >= 0 {
		v.Diffs = append(v.Diffs, byteDiff(ChannelStdout, ref.Stdout, cand.Stdout, off))
	}
	if off := firstDivergence(ref.Stderr, cand.Stderr, nil); off >= 0 {
		v.Diffs = append(v.Diffs, byteDiff(ChannelStderr, ref.Stderr, cand.Stderr, off))
	}

	switch p.Tag {
	case PolicyOutputFile:
		v.Diffs = append(v.Diffs, compareOutput(ref, cand, p)...)
	case PolicyDeletion:
		v.Diffs = append(v.Diffs, compareSurvival(ref, cand, p)...)
	}

	return v
}

// firstDivergence returns the offset of the first byte where a and b
// differ outside the masked ranges, or -1 if they are equal under the
// masks. Masks excuse value differences only: a length difference always
// diverges, at the shorter length.
func firstDivergence(a, b []byte, masks []Mask) int64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] && !maskedAt(masks, int64(i)) {
			return int64(i)
		}
	}
	if len(a) != len(b) {
		return int64(n)
	}
	return -1
}

// compareOutput handles the output-file channels: presence first, bytes
// only when both implementations produced the file.
func compareOutput(ref, cand Observation, p Policy) []Difference {
	if ref.OutputPresent != cand.OutputPresent {
		return []Difference{{
			Channel:   ChannelOutputPresence,
			Reference: presence(ref.OutputPresent),
			Candidate: presence(cand.OutputPresent),
			Offset:    -1,
		}}
	}
	if !ref.OutputPresent {
		// Both refused to produce the file; nothing to compare.
		return nil
	}

	off := firstDivergence(ref.Output, cand.Output, MasksFor(p.Format))
	if off < 0 {
		return nil
	}

	d := byteDiff(ChannelOutputBytes, ref.Output, cand.Output, off)
	// A divergence inside a gzip trailer is a checksum or length
	// disagreement; decode the fields to speed up triage.
	if p.Format == FormatGzip && len(ref.Output) == len(cand.Output) && off >= int64(len(ref.Output)-gzipTrailerLen) {
		rt, rok := GzipTrailer(ref.Output)
		ct, cok := GzipTrailer(cand.Output)
		if rok && cok {
			d.Reference = fmt.Sprintf("trailer crc32=%08x isize=%d", rt.CRC32, rt.ISize)
			d.Candidate = fmt.Sprintf("trailer crc32=%08x isize=%d", ct.CRC32, ct.ISize)
		}
	}
	return []Difference{d}
}

// compareSurvival handles the input-file-survival channel. With a declared
// expectation both implementations must match it; without one they must
// merely agree with each other.
func compareSurvival(ref, cand Observation, p Policy) []Difference {
	if p.InputSurvives == nil {
		if ref.InputPresent == cand.InputPresent {
			return nil
		}
		return []Difference{{
			Channel:   ChannelInputSurvival,
			Reference: presence(ref.InputPresent),
			Candidate: presence(cand.InputPresent),
			Offset:    -1,
		}}
	}

	want := *p.InputSurvives
	if ref.InputPresent == want && cand.InputPresent == want {
		return nil
	}
	return []Difference{{
		Channel:   ChannelInputSurvival,
		Reference: fmt.Sprintf("%s (declared %s)", presence(ref.InputPresent), presence(want)),
		Candidate: fmt.Sprintf("%s (declared %s)", presence(cand.InputPresent), presence(want)),
		Offset:    -1,
	}}
}

func exitEqual(ref, cand int, rule ExitRule) bool {
	if rule == ExitExact {
		return ref == cand
	}
	return (ref == 0) == (cand == 0)
}

func exitDesc(code int, rule ExitRule) string {
	if rule == ExitExact {
		return strconv.Itoa(code)
	}
	if code == 0 {
		return fmt.Sprintf("success (%d)", code)
	}
	return fmt.Sprintf("failure (%d)", code)
}

func presence(p bool) string {
	if p {
		return "present"
	}
	return "absent"
}

// excerptWindow bounds the number of bytes shown around a divergence.
const excerptWindow = 16

// byteDiff renders a content divergence with a short excerpt of each side
// starting at the first diverging offset.
func byteDiff(ch Channel, ref, cand []byte, off int64) Difference {
	return Difference{
		Channel:   ch,
		Reference: excerpt(ref, off),
		Candidate: excerpt(cand, off),
		Offset:    off,
	}
}

// excerpt describes b around off: quoted when the window is printable
// text, space-separated hex otherwise. Compressed payloads get hex,
// usage and error text stays readable.
func excerpt(b []byte, off int64) string {
	if off >= int64(len(b)) {
		return fmt.Sprintf("%d bytes, ends before offset %d", len(b), off)
	}
	end := off + excerptWindow
	if end > int64(len(b)) {
		end = int64(len(b))
	}
	window := b[off:end]
	if isPrintable(window) {
		return fmt.Sprintf("%d bytes, %q at offset %d", len(b), window, off)
	}
	return fmt.Sprintf("%d bytes, % x at offset %d", len(b), window, off)
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c == '\n' || c == '\t' {
			continue
		}
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
