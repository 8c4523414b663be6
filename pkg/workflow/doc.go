/*
Package workflow provides the declarative description of a linear workflow.

A Definition lists named steps, the fields each step is allowed to write,
the entry step and a single outgoing edge per step, ending at End. It holds
no execution logic: compiling and running a Definition is the job of the
engine.

Usage:

	def, err := workflow.NewBuilder("research").
		AddStep("plan", domain.Fields(domain.FieldSearchQueries), plan).
		AddStep("search", domain.Fields(domain.FieldSearchResults), search).
		SetEntry("plan").
		AddEdge("plan", "search").
		AddEdge("search", workflow.End).
		Build()

For the common case of a straight chain, Sequence declares the entry and the
edges from the order of its arguments.
*/
package workflow
