// Package supervisor owns the process lifecycle state machine.
//
// Start spawns a shell command under one of two lifetime policies. An
// auto-shutdown process stays attached to the spawning session through
// pipes, reports its exit directly, and is terminated when the session
// cleans up. A persistent process is detached into its own session with its
// output redirected straight into its log file, and nothing but an explicit
// stop or its own exit ends it.
//
// Records move Running to Stopped on any observed death, Running to Crashed
// only through an attached exit notification carrying a failure, and leave
// the registry through Stop, session Cleanup, or startup reconciliation.
// Nothing is ever restarted automatically.
//
// Liveness is decided by the OS process table via a signal-0 probe, with the
// kernel start time of the process cross-checked on Linux so a recycled pid
// is not mistaken for the original process. Probe and kill failures,
// including permission errors, are contained within the operation that hit
// them.
package supervisor
