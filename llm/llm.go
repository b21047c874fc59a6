package llm

import "context"

// Client abstracts the generative model endpoint used by the analyzer and
// the translator. Implementations must be concurrency-safe if used across
// goroutines. No implementation retries internally; retry policy belongs
// to the caller because repeated calls to a paid model are a cost decision.
type Client interface {
	// Invoke sends a prompt, optionally with a single binary attachment
	// (image bytes or a video key-frame) and its MIME type, and returns the
	// model's raw response text. Transport failures wrap ErrUnavailable;
	// safety-layer blocks wrap ErrRefused.
	Invoke(ctx context.Context, prompt string, payload []byte, mimeType string) (string, error)
	// Translate translates plain text to the named target language
	// (e.g., "Hindi") and returns the translated text only.
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
	// SourceName returns a short provider label to persist alongside
	// results (e.g., "Gemini", "ChatGPT", "Stub").
	SourceName() string
}
