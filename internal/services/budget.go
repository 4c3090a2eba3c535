package services

import (
	"errors"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/pkg/tokens"
	"github.com/planflow/planflow/internal/ports"
)

const truncationNotice = "\n[charter truncated to fit the context window]"

// renderBudgeted renders the user prompt for an operation and computes its
// output-token budget. When the prompt does not fit the context window, the
// variable named by shrinkVar is truncated once to the largest size that
// still leaves a usable completion, and the prompt is re-rendered. A prompt
// that still does not fit surfaces the original PromptTooLarge error.
func renderBudgeted(store ports.PromptStore, logger ports.Logger, operation, version, systemPrompt string, vars map[string]any, shrinkVar string, requested, contextWindow int) (string, int, error) {
	userPrompt, err := store.Get(operation, "user", version, vars)
	if err != nil {
		return "", 0, err
	}
	budget, err := tokens.OutputBudget(userPrompt, systemPrompt, requested, contextWindow)
	if err == nil {
		return userPrompt, budget, nil
	}

	var tooLarge *domain.PromptTooLargeError
	if !errors.As(err, &tooLarge) || shrinkVar == "" {
		return "", 0, err
	}
	value, ok := vars[shrinkVar].(string)
	if !ok {
		return "", 0, err
	}
	overhead := len(userPrompt) - len(value)
	target := tokens.ShrinkTarget(systemPrompt, contextWindow) - overhead - len(truncationNotice)
	if target <= 0 || target >= len(value) {
		return "", 0, err
	}

	shrunk := make(map[string]any, len(vars))
	for k, v := range vars {
		shrunk[k] = v
	}
	shrunk[shrinkVar] = value[:target] + truncationNotice

	rebuilt, err := store.Get(operation, "user", version, shrunk)
	if err != nil {
		return "", 0, err
	}
	budget, err = tokens.OutputBudget(rebuilt, systemPrompt, requested, contextWindow)
	if err != nil {
		return "", 0, err
	}
	if logger != nil {
		logger.Warn("charter truncated to fit the context window", map[string]interface{}{
			"operation":      operation,
			"original_chars": len(value),
			"kept_chars":     target,
		})
	}
	return rebuilt, budget, nil
}
