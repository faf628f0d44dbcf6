// Package styleplan produces the ordered list of style descriptors requested
// from the generation backend for one invocation.
package styleplan

import "context"

// Style is one entry of a style plan: a short human-readable label plus the
// editing instruction sent to the backend.
type Style struct {
	Name        string
	Instruction string
}

// Planner yields a fixed-size, non-empty ordered style plan. Implementations
// may inspect the source image or ignore it entirely; both are
// interchangeable at the orchestrator boundary.
type Planner interface {
	Plan(ctx context.Context, imageURL string, count int) ([]Style, error)
}
