// Package tokens approximates token counts and computes safe output-token
// ceilings against a backend's context window.
package tokens

import "github.com/planflow/planflow/internal/domain"

// Budgeting constants. Estimation is a constant-factor approximation; the
// safety margin absorbs tokenizer variance and message framing overhead.
const (
	charsPerToken = 4

	// MinUsableOutputTokens is the floor below which a completion is doomed
	// to truncate. Callers must shrink their prompt before giving up.
	MinUsableOutputTokens = 500

	safetyMargin = 256

	// DefaultContextWindow is assumed when configuration does not pin one.
	DefaultContextWindow = 128000
)

// Estimate approximates the token count of text.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// OutputBudget computes a safe output-token ceiling for a prompt:
// min(requested, window - estimated input - margin). It returns a
// PromptTooLargeError when the ceiling falls below the usable floor; the
// caller is expected to shrink the prompt and recompute before failing.
func OutputBudget(prompt, systemPrompt string, requested, contextWindow int) (int, error) {
	if contextWindow <= 0 {
		contextWindow = DefaultContextWindow
	}
	input := Estimate(prompt) + Estimate(systemPrompt)

	ceiling := contextWindow - input - safetyMargin
	if requested > 0 && requested < ceiling {
		ceiling = requested
	}
	if ceiling < MinUsableOutputTokens {
		return 0, &domain.PromptTooLargeError{EstimatedTokens: input, ContextWindow: contextWindow}
	}
	return ceiling, nil
}

// ShrinkTarget returns the largest prompt size in characters that still
// leaves room for a usable completion alongside systemPrompt.
func ShrinkTarget(systemPrompt string, contextWindow int) int {
	if contextWindow <= 0 {
		contextWindow = DefaultContextWindow
	}
	budget := contextWindow - safetyMargin - MinUsableOutputTokens - Estimate(systemPrompt)
	if budget < 0 {
		return 0
	}
	return budget * charsPerToken
}
