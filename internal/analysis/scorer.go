package analysis

import "context"

// Scorer is the boundary to the external scoring collaborator.
type Scorer interface {
	// Score sends prompt in a single request and returns the raw response
	// text. Implementations may retry transient failures internally but must
	// honor ctx cancellation.
	Score(ctx context.Context, prompt string) (string, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, prompt string) (string, error)

// Score implements Scorer
func (f ScorerFunc) Score(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
