/*
Package persistence implements the best-effort persistence side channel.

A Recorder receives the final snapshot of each run and saves it to a
ports.SnapshotStore in the background. Saving never blocks the caller and a
failure is logged, never returned. Package middleware provides store
decorators (encryption at rest, redaction) that compose with any store.
*/
package persistence
