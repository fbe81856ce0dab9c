// Package genai abstracts the generative content provider. The battle
// engine only needs two capabilities, both with explicit failure: produce a
// short narrative and produce an image. Which vendor serves them is a
// wiring decision.
package genai

import "context"

// Provider generates narrative text and images for battles.
type Provider interface {
	// GenerateText returns a short narrative for the prompt, conditioned on
	// prior context lines (earlier match narratives of the same battle).
	GenerateText(ctx context.Context, prompt string, context []string) (string, error)

	// GenerateImage returns binary image data for the prompt, optionally
	// conditioned on reference images.
	GenerateImage(ctx context.Context, prompt string, refs [][]byte) ([]byte, error)
}
