/*
Package runs coordinates access to persisted research runs.

It serializes operations on the same request ID within a process using
reference-counted locks and, when a DistributedLocker is configured, across
replicas as well. Inspection, deletion and resumption of runs go through the
Manager.
*/
package runs
