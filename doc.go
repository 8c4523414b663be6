/*
Package espalier is a minimal, deterministic workflow engine that runs a fixed
research pipeline over an explicit, typed state.

A research run threads one State value through four named steps:
generate_queries, search_web, extract_findings and generate_summary. Each step
receives a read-only copy of the state and returns a partial update that is
merged according to a per-field policy: search_results accumulates, every
other field is replaced. After each step the engine records the step name in
current_step, so a failed run can be inspected and resumed.

# Concept

The engine core is independent from the providers it calls. Language models
and web search are reached through ports (see package ports), and the final
state of every run can be handed to a Recorder for best-effort persistence.
This Hexagonal Architecture allows Espalier to be embedded in a CLI, an HTTP
service or an MCP server.

# Usage

	model := openai.New(openai.Config{APIKey: os.Getenv("OPENAI_API_KEY")})
	search := tavily.New(tavily.Config{APIKey: os.Getenv("TAVILY_API_KEY")})

	r, err := espalier.New(model, search)
	if err != nil {
		log.Fatal(err)
	}

	report, err := r.Research(ctx, "quantum computing")
	if err != nil {
		log.Printf("run %s failed at %s: %v", report.RequestID, report.State.CurrentStep, err)
	}
	fmt.Println(report.Result.Summary)
*/
package espalier
