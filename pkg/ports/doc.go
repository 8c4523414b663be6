/*
Package ports defines the driven and driving ports (interfaces) of the Espalier engine.

These interfaces decouple the workflow core from external implementations,
allowing the research steps to work with any model or search provider and the
persistence side channel to work with various storage backends.

# Key Interfaces

  - LanguageModel: a single prompt/response call to an LLM.
  - Searcher: a web search returning result records.
  - SnapshotStore: persists run snapshots by request ID.
  - DistributedLocker: distributed locking for concurrent access to a run.
  - Service: the research operations exposed to transports (HTTP, MCP, CLI).
*/
package ports
