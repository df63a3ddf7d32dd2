package enhance

import (
	"context"
)

// Enhancer rewrites a user's short description into a richer modeling prompt
// before it is handed to a conversion provider. Enhancement is best-effort:
// the orchestrator falls back to the raw description when every enhancer
// fails or none is configured.
type Enhancer interface {
	Enhance(ctx context.Context, description string) (string, error)
	Name() string
}

const enhancerInstruction = `You write prompts for an image-to-3D-model service.
Rewrite the user's description into a short, concrete prompt describing the
object's geometry, proportions and surface detail. Reply with the prompt only.`
