// Package procaccess selects the backend a front-end uses for the core
// process operations: daemon IPC when the socket answers, the shared durable
// registry directly otherwise. Operations that only make sense inside a
// long-lived session, like attached starts, are refused in direct mode with
// guidance instead of failing obscurely later.
package procaccess
