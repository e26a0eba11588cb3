// Package registry persists supervised process records in a single JSON
// document shared by every warden front-end.
//
// Records are partitioned by the absolute working directory they were started
// from; within a partition each record is addressed by a deterministic process
// key derived from its command line and start time. The document is the single
// source of truth for what warden tracks, while the OS process table remains
// the ground truth for liveness; the two drift until the supervisor reconciles
// them.
//
// Every mutation is a read-modify-write cycle flushed synchronously with an
// fsync-and-rename so readers never observe a partial document. A file lock
// serializes cycles across processes; coordination beyond that is advisory
// last-writer-wins, which is sufficient because the registry is bookkeeping
// rather than a transactional ledger.
package registry
