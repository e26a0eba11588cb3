// Package preflight provides readiness checks for the filesystem paths and
// external endpoints warden depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup and logs every failure before
//     supervision begins, so a read-only data directory or a full log volume
//     surfaces immediately instead of on the first process launch.
//   - The CLI "warden daemon status" command uses individual check functions
//     to display runtime health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
