package research

const queriesSystemPrompt = `Generate 2-3 specific search queries for researching this topic.

IMPORTANT: Return ONLY a valid JSON array of strings. Example:
["query 1", "query 2", "query 3"]

Do not include any other text, markdown, or formatting.`

const findingsSystemPrompt = `You are a research analyst. Extract 5-7 key findings from the search results.

IMPORTANT: Return ONLY a valid JSON array of strings. Example:
["Finding 1", "Finding 2", "Finding 3"]

Do not include any other text, markdown, or formatting.`

const summarySystemPrompt = `Create a comprehensive summary based on these findings.
Be clear, informative, and well-structured.`

// Fallback values recorded when a step degrades.
const (
	NoResultsFinding   = "No search results found"
	UnableFinding      = "Unable to extract findings from search results"
	AnalysisPrefix     = "Analysis: "
	analysisLimitRunes = 500
	missingContent     = "No content"
)
