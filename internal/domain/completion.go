package domain

// TokenUsage normalizes vendor-specific usage fields into a common shape.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Completion is the normalized result of one model call. Produced once per
// gateway call; immutable afterwards.
type Completion struct {
	// ID correlates the completion with log lines; assigned by the gateway.
	ID       string     `json:"id"`
	Content  string     `json:"content"`
	Usage    TokenUsage `json:"usage"`
	Model    string     `json:"model"`
	Provider string     `json:"provider"`
}
