package port

// TextCompletion is the narrow capability the pipeline needs from a
// language model: one system-prompted completion call. The query analyzer
// and the response generator both depend on it; no provider leaks into
// the pipeline core.
type TextCompletion interface {
	// Complete generates text for the user prompt under the given system
	// prompt.
	Complete(systemPrompt, userPrompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
