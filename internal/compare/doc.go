// Package compare decides whether two tool invocations behaved identically.
//
// The comparator consumes one Observation per implementation (exit status,
// raw stdout/stderr bytes, produced output file, input-file survival) and
// applies an equivalence Policy to produce a Verdict. A Verdict is a tagged
// result: an empty diff list means Match, anything else is a Mismatch with
// one structured Difference per diverging channel. Every diverging channel
// is reported, not just the first, so a single failing case surfaces the
// maximum diagnostic information in one run.
//
// # Policies
//
//   - stdout-only: byte-exact stdout and stderr; exit status compared by
//     zero/non-zero class (or exact numeric code, per the policy).
//   - stdout-and-output-file: additionally compares the produced output
//     file's bytes under the format's mask table.
//   - stdout-and-deletion: additionally checks input-file survival
//     (destructive mode removes the input, keep mode preserves it).
//
// # Masked byte-exact comparison
//
// A compressed container embeds fields that legitimately vary between two
// runs producing the same logical stream: gzip stores a modification
// timestamp and an origin-OS byte in its header. The comparator therefore
// excludes a declarative per-format set of (offset, length) ranges from the
// equality check. Every byte outside the masks, including the compressed
// payload and the checksum trailer, must match exactly. Masks excuse byte
// value differences only; a length difference is always a mismatch.
package compare
