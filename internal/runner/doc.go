// Package runner drives differential conformance runs.
//
// Each case moves through a fixed lifecycle:
//
//  1. Prepare: acquire one workspace per implementation and materialize
//     the identical fixture and pre-condition files in each.
//  2. Invoke: run the reference, then the candidate, each in its own
//     workspace with the same argument vector and stdin.
//  3. Compare: capture the file state around each invocation, build an
//     observation per side, and apply the case's equivalence policy.
//  4. Record: a mismatch marks the case failed and preserves its
//     evidence, then the run continues with the next case.
//
// Only two things stop a run early: a harness-fatal invocation error
// (the executable cannot start, or an invocation times out) and
// operator cancellation. A case whose setup cannot be built, such as a
// missing fixture file, is skipped with a distinct status so it can
// never be mistaken for a passing comparison.
package runner
