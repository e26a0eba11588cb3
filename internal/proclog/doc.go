// Package proclog captures and retrieves per-process output.
//
// Each supervised process gets one plain-text append-only log file under the
// configured log directory, created before spawn under a transient name and
// promoted to a pid-derived name once the pid is known. Ephemeral processes
// write through a shared sink that swallows write failures; persistent
// processes have their streams redirected at the OS level straight into the
// file. Files are never removed when tracking ends, so output stays readable
// by path after the registry record is gone.
package proclog
