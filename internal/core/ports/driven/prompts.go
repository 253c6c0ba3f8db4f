package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer builds the question-answering prompt.
	// The template expects %s (context) then %s (query).
	PromptAnswer = "answer"

	// PromptRerank asks for a relevance score of one passage.
	// The template expects %s (query) then %s (passage).
	PromptRerank = "rerank"
)
