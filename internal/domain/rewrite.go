package domain

import "context"

// RewriterInstruction is the system role given to language-model query rewriters.
const RewriterInstruction = "You are a helpful assistant that extracts key skills and requirements from job descriptions."

// Rewriter turns a prompt into rewritten query text using a language model.
type Rewriter interface {
	Rewrite(ctx context.Context, prompt string) (string, error)
}

// SourceFetcher dereferences a URL into plain text.
// Failures are reported as *SourceFetchError.
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
