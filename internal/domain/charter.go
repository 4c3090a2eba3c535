package domain

// Severity is the qualitative priority of a validation issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// CoerceSeverity maps arbitrary model output onto the three known levels.
// Unknown values become medium.
func CoerceSeverity(raw string) Severity {
	switch Severity(raw) {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return Severity(raw)
	default:
		return SeverityMedium
	}
}

// Charter is a parsed project charter document. Values are restricted to
// JSON-compatible types (map/list/string/number/bool/nil).
type Charter = map[string]any

// ValidationIssue describes one problem the analysis found in a charter.
// Many issues may reference the same field.
type ValidationIssue struct {
	Field      string   `json:"field"`
	Issue      string   `json:"issue"`
	Suggestion string   `json:"suggestion"`
	Severity   Severity `json:"severity"`
}

// CharterValidationResult is the merged outcome of the AI validation and the
// local format check.
type CharterValidationResult struct {
	IsValid           bool              `json:"is_valid"`
	CompletenessScore float64           `json:"completeness_score"`
	Issues            []ValidationIssue `json:"issues"`
	StructuredCharter Charter           `json:"structured_charter,omitempty"`
	FormatErrors      []string          `json:"format_errors"`
}

// SuggestionApplicationResult carries the charter after accepted suggestions
// were applied. UpdatedCharter is always a complete document; on
// unrecoverable model output the engine falls back to the original charter.
type SuggestionApplicationResult struct {
	UpdatedCharter     Charter  `json:"updated_charter"`
	AppliedSuggestions []string `json:"applied_suggestions"`
	Conflicts          []string `json:"conflicts"`
}

// ProviderStatus summarizes whether an AI backend is configured and usable.
type ProviderStatus struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}
