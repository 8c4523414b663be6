package ports

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by a collaborator that lacks credentials or
// other mandatory configuration. It is never retried.
var ErrNotConfigured = errors.New("collaborator not configured")

// LanguageModel performs a single completion call.
type LanguageModel interface {
	// Complete sends a system and a user prompt and returns the response text.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
