// Command warden is the one-shot CLI front-end for the warden process
// supervisor. It prefers the daemon socket when one answers and falls back
// to operating on the shared durable registry directly when the daemon is
// down.
package main
