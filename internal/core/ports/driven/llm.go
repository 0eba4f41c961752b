package driven

import "context"

// LLMService provides raw text completion against a model backend.
//
// Implementations may include:
//   - Ollama (local models, the default for this tool)
//   - OpenAI-compatible HTTP endpoints
//
// The orchestration core never calls this interface directly; the
// model-call adapters (Classifier, QueryGenerator, ConstraintExtractor,
// AnswerSynthesizer) are layered on top of it.
type LLMService interface {
	// Generate produces a text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before committing to a batch run.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
