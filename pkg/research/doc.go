/*
Package research implements the four steps of the research workflow:
generate_queries, search_web, extract_findings and generate_summary.

Steps talk to the outside world only through ports.LanguageModel and
ports.Searcher. Malformed model output and failed searches are expected
conditions and degrade into fallback values; missing credentials, failed
model calls and cancellation are returned as errors and fail the run.
*/
package research
