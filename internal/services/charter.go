// Package services holds the AI-driven engines: charter analysis and
// release extraction. Each operation is a single request/response round trip
// through prompt store → provider → decoder; no state is kept across calls.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/pkg/jsonx"
	"github.com/planflow/planflow/internal/ports"
)

const (
	opCharterValidation     = "charter_validation"
	opSuggestionGeneration  = "suggestion_generation"
	opSuggestionApplication = "suggestion_application"

	validationTemperature  = 0.1
	suggestionTemperature  = 0.2
	applicationTemperature = 0.1

	// ParseCharterText keeps this many characters of non-JSON input as the
	// description.
	descriptionPreviewLen = 500

	defaultPromptVersion = "v1.0"
)

// referenceSections is the static reference schema a complete charter is
// measured against. Order matters only for deterministic output.
var referenceSections = []string{
	"name",
	"description",
	"vision",
	"problem_being_solved",
	"scope",
	"modules",
	"risks",
	"roadmap",
	"considerations",
	"technical_considerations",
}

// charterFormatExample documents the expected charter shape; served on the
// format endpoint and embedded in the validation prompt.
var charterFormatExample = domain.Charter{
	"name":                 "string",
	"description":          "string",
	"vision":               "string",
	"problem_being_solved": "string",
	"scope": map[string]any{
		"inside_scope":  []any{"feature_1", "feature_2"},
		"outside_scope": []any{"feature_3"},
	},
	"modules": map[string]any{
		"module_1": []any{"feature_1", "feature_2"},
		"module_2": []any{"feature_3"},
	},
	"risks": []any{
		map[string]any{
			"risk_name":       "string",
			"risk_impact":     "string",
			"risk_mitigation": "string",
		},
	},
	"roadmap": []any{
		map[string]any{
			"starting_date": "2025-06-01",
			"end_date":      "2025-06-30",
			"release_scope": []any{"module_1"},
		},
	},
	"considerations":           []any{"consideration_1"},
	"technical_considerations": []any{"tech_consideration_1"},
}

// CharterService is the charter analysis engine. Provider may be nil when no
// backend is configured; AI operations then fail with a ConfigurationError
// while local checks keep working.
type CharterService struct {
	Provider ports.Provider
	Prompts  ports.PromptStore
	Logger   ports.Logger
	Config   domain.Config
}

// Validate runs the AI validation and the local format check over raw
// charter text and merges the two verdicts.
//
// The completeness score is the larger of the model's own assessment and the
// local section-presence ratio; when the two disagree sharply the larger one
// wins, which can surprise, but changing the precedence needs product input.
func (s *CharterService) Validate(ctx context.Context, charterText string) (domain.CharterValidationResult, error) {
	parsed := s.ParseCharterText(charterText)
	formatErrors := s.FormatErrors(parsed)

	payload, err := s.roundTrip(ctx, roundTripSpec{
		operation:   opCharterValidation,
		temperature: validationTemperature,
		vars: map[string]any{
			"CharterText":    charterText,
			"ExpectedFormat": mustIndentJSON(charterFormatExample),
		},
		shrinkVar: "CharterText",
	})
	if err != nil {
		return domain.CharterValidationResult{}, fmt.Errorf("charter validation: %w", err)
	}

	structured, _ := payload["structured_charter"].(map[string]any)
	if structured == nil {
		structured = parsed
	}

	score := payloadFloat(payload, "completeness_score")
	if heuristic := s.CompletenessScore(structured); heuristic > score {
		score = heuristic
	}
	score = clamp01(score)

	aiValid, _ := payload["is_valid"].(bool)

	return domain.CharterValidationResult{
		IsValid:           aiValid && len(formatErrors) == 0,
		CompletenessScore: score,
		Issues:            decodeIssues(payload, "issues"),
		StructuredCharter: structured,
		FormatErrors:      formatErrors,
	}, nil
}

// GenerateSuggestions asks the model for further improvement suggestions
// given the charter and the issues already identified.
func (s *CharterService) GenerateSuggestions(ctx context.Context, charter domain.Charter, existing []domain.ValidationIssue) ([]domain.ValidationIssue, error) {
	payload, err := s.roundTrip(ctx, roundTripSpec{
		operation:   opSuggestionGeneration,
		temperature: suggestionTemperature,
		vars: map[string]any{
			"Charter":        mustIndentJSON(charter),
			"ExistingIssues": mustIndentJSON(existing),
		},
		shrinkVar: "Charter",
	})
	if err != nil {
		return nil, fmt.Errorf("suggestion generation: %w", err)
	}
	return decodeIssues(payload, "suggestions"), nil
}

// ApplySuggestions asks the model to fold accepted suggestions into the
// charter. Unparsable or incomplete model output is recovered locally by
// returning the original charter unchanged so nothing is lost; genuine
// provider failures still propagate.
func (s *CharterService) ApplySuggestions(ctx context.Context, charter domain.Charter, accepted []domain.ValidationIssue) (domain.SuggestionApplicationResult, error) {
	fallback := domain.SuggestionApplicationResult{
		UpdatedCharter:     charter,
		AppliedSuggestions: []string{},
		Conflicts:          []string{},
	}

	if err := s.requireProvider(); err != nil {
		return domain.SuggestionApplicationResult{}, err
	}

	completion, err := s.complete(ctx, roundTripSpec{
		operation:   opSuggestionApplication,
		temperature: applicationTemperature,
		vars: map[string]any{
			"Charter":     mustIndentJSON(charter),
			"Suggestions": mustIndentJSON(accepted),
		},
		shrinkVar: "Charter",
	})
	if err != nil {
		return domain.SuggestionApplicationResult{}, fmt.Errorf("suggestion application: %w", err)
	}

	payload, err := jsonx.ExtractObject(completion.Content)
	if err != nil {
		s.warnDecodeFallback(completion, err)
		return fallback, nil
	}
	updated, ok := payload["updated_charter"].(map[string]any)
	if !ok {
		s.warnDecodeFallback(completion, fmt.Errorf("reply has no updated_charter object"))
		return fallback, nil
	}

	return domain.SuggestionApplicationResult{
		UpdatedCharter:     updated,
		AppliedSuggestions: stringList(payload["applied_suggestions"]),
		Conflicts:          stringList(payload["conflicts"]),
	}, nil
}

// ParseCharterText parses raw input into a charter. Non-JSON input is
// wrapped into a minimal document rather than rejected; the original text is
// kept for downstream AI processing.
func (s *CharterService) ParseCharterText(text string) domain.Charter {
	trimmed := strings.TrimSpace(text)

	var charter domain.Charter
	if err := json.Unmarshal([]byte(trimmed), &charter); err == nil && charter != nil {
		return charter
	}

	description := trimmed
	if len(description) > descriptionPreviewLen {
		description = description[:descriptionPreviewLen]
	}
	return domain.Charter{
		"name":        "Project Charter",
		"description": description,
		"raw_input":   trimmed,
	}
}

// FormatErrors runs the local, non-AI structural check: required fields must
// be present and non-empty, and the typed sections must have the right
// shape.
func (s *CharterService) FormatErrors(charter domain.Charter) []string {
	errs := []string{}

	for _, field := range []string{"name", "description"} {
		if !present(charter[field]) {
			errs = append(errs, "Missing required field: "+field)
		}
	}

	if v, ok := charter["scope"]; ok {
		if _, isMap := v.(map[string]any); !isMap {
			errs = append(errs, "Scope must be an object with inside_scope and outside_scope arrays")
		}
	}
	if v, ok := charter["modules"]; ok {
		if _, isMap := v.(map[string]any); !isMap {
			errs = append(errs, "Modules must be an object mapping module names to feature arrays")
		}
	}
	if v, ok := charter["risks"]; ok {
		if _, isList := v.([]any); !isList {
			errs = append(errs, "Risks must be an array of risk objects")
		}
	}
	if v, ok := charter["roadmap"]; ok {
		if _, isList := v.([]any); !isList {
			errs = append(errs, "Roadmap must be an array of release objects")
		}
	}

	return errs
}

// CompletenessScore is the fraction of reference sections present and
// non-empty in the charter.
func (s *CharterService) CompletenessScore(charter domain.Charter) float64 {
	if len(referenceSections) == 0 {
		return 0
	}
	completed := 0
	for _, section := range referenceSections {
		if present(charter[section]) {
			completed++
		}
	}
	return float64(completed) / float64(len(referenceSections))
}

// FormatExample returns the documented charter shape.
func (s *CharterService) FormatExample() domain.Charter {
	return charterFormatExample
}

// ProviderStatus reports whether an AI backend is configured.
func (s *CharterService) ProviderStatus() domain.ProviderStatus {
	status := domain.ProviderStatus{
		Provider: s.Config.AIProvider,
		Model:    s.Config.Model,
	}
	if s.Provider != nil {
		status.Provider = s.Provider.Name()
		status.Available = true
		return status
	}
	status.Detail = "no AI provider configured"
	return status
}

// roundTripSpec names one prompt operation, its rendering variables and the
// variable to truncate when the prompt overflows the context window.
type roundTripSpec struct {
	operation   string
	temperature float64
	vars        map[string]any
	shrinkVar   string
}

// roundTrip renders the operation's templates, runs the completion and
// decodes the JSON payload from the reply.
func (s *CharterService) roundTrip(ctx context.Context, spec roundTripSpec) (map[string]any, error) {
	if err := s.requireProvider(); err != nil {
		return nil, err
	}
	completion, err := s.complete(ctx, spec)
	if err != nil {
		return nil, err
	}
	payload, err := jsonx.ExtractObject(completion.Content)
	if err != nil {
		s.logRawResponse(completion, err)
		return nil, err
	}
	return payload, nil
}

func (s *CharterService) complete(ctx context.Context, spec roundTripSpec) (domain.Completion, error) {
	version := s.promptVersion()
	systemPrompt, err := s.Prompts.Get(spec.operation, "system", version, nil)
	if err != nil {
		return domain.Completion{}, err
	}
	userPrompt, budget, err := renderBudgeted(s.Prompts, s.Logger, spec.operation, version, systemPrompt,
		spec.vars, spec.shrinkVar, s.Config.MaxTokens, s.Config.ContextWindow)
	if err != nil {
		return domain.Completion{}, err
	}

	return s.Provider.GenerateCompletion(ctx, ports.CompletionRequest{
		Prompt:       userPrompt,
		SystemPrompt: systemPrompt,
		Temperature:  spec.temperature,
		MaxTokens:    budget,
	})
}

func (s *CharterService) promptVersion() string {
	if s.Config.PromptVersion != "" {
		return s.Config.PromptVersion
	}
	return defaultPromptVersion
}

func (s *CharterService) requireProvider() error {
	if s.Provider == nil {
		return &domain.ConfigurationError{Reason: "AI provider not available"}
	}
	return nil
}

func (s *CharterService) logRawResponse(completion domain.Completion, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Debug("model reply could not be decoded", map[string]interface{}{
		"completion_id": completion.ID,
		"provider":      completion.Provider,
		"error":         err.Error(),
		"raw":           completion.Content,
	})
}

func (s *CharterService) warnDecodeFallback(completion domain.Completion, err error) {
	s.logRawResponse(completion, err)
	if s.Logger == nil {
		return
	}
	s.Logger.Warn("suggestion application fell back to the original charter", map[string]interface{}{
		"completion_id": completion.ID,
		"error":         err.Error(),
	})
}

// decodeIssues reads a list of issue objects from the payload, coercing
// unknown severities to medium.
func decodeIssues(payload map[string]any, key string) []domain.ValidationIssue {
	raw, _ := payload[key].([]any)
	issues := make([]domain.ValidationIssue, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		severity, _ := m["severity"].(string)
		issues = append(issues, domain.ValidationIssue{
			Field:      stringValue(m["field"]),
			Issue:      stringValue(m["issue"]),
			Suggestion: stringValue(m["suggestion"]),
			Severity:   domain.CoerceSeverity(severity),
		})
	}
	return issues
}

func present(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case string:
		return value != ""
	case map[string]any:
		return len(value) > 0
	case []any:
		return len(value) > 0
	case bool:
		return value
	default:
		return true
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringList(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func payloadFloat(payload map[string]any, key string) float64 {
	f, _ := payload[key].(float64)
	return f
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func mustIndentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

