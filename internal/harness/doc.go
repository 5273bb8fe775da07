// Package harness drives batch execution of simulator test cases.
//
// A test case is a directory pairing an input artifact (input.json) with a
// designated output artifact (user_output.json). The harness discovers cases
// under a root directory, invokes the simulator once per case, and aggregates
// the per-case outcomes under an explicit policy: fail-fast (stop at the
// first failure) or keep-going (run everything, collect all failures).
//
// Execution is strictly sequential. Each invocation blocks until the child
// process terminates; there is no timeout, no cancellation of an in-flight
// simulator, and no shared state between cases beyond the filesystem, which
// each case accesses under its own directory.
package harness
