/*
Package domain contains the core data model of the Espalier engine.

It defines the research State threaded through a workflow, the Partial
updates steps return, and the merge rules that fold one into the other.
This package is kept pure and free of I/O, following Hexagonal Architecture
principles.

# Key Entities

  - State: the full snapshot of a run (topic, queries, results, findings, summary, progress).
  - Partial: a subset of State fields produced by a single step.
  - Schema: the per-field merge policy (overwrite or append).
  - Snapshot: the persisted envelope of a State.
  - Projection: the caller-facing view of a finished State.
*/
package domain
