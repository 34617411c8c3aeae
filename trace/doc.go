// Package trace is the root of the offline trace-conversion toolkit.
//
// # Reading Guide
//
// The conversions are single-pass batch jobs. Each one reads whole files,
// transforms the records in input order and writes one output file:
//   - debuglog/: simulator debug log -> Chrome Trace Event Format (timeline)
//   - chrome/: Chrome Trace Event Format types, merging of sharded traces
//   - torchmem/: event trace -> allocator (PyTorch memory snapshot) trace
//   - traceio/: file access shared by all conversions (snappy, atomic writes)
//
// This package holds the error taxonomy shared by the sub-packages. Every error
// aborts the running conversion; callers classify failures with errors.Is
// against the sentinels below or errors.As against the typed errors.
package trace
