package domain

// ExtractedRelease is one release proposed by the model from a charter.
// Dates are ISO strings here; parsing and ordering checks happen only when a
// release is persisted.
type ExtractedRelease struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Version         string   `json:"version,omitempty"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	ScopeModules    []string `json:"scope_modules"`
	Goals           []string `json:"goals"`
	Status          string   `json:"status,omitempty"`
	Dependencies    []string `json:"dependencies,omitempty"`
	Risks           []string `json:"risks,omitempty"`
	EstimatedEffort string   `json:"estimated_effort,omitempty"`
}

// ReleaseStrategy is the staffing/timeline plan accompanying extracted
// releases.
type ReleaseStrategy struct {
	TotalReleases   int      `json:"total_releases"`
	OverallTimeline string   `json:"overall_timeline"`
	ReleaseCadence  string   `json:"release_cadence"`
	CriticalPath    []string `json:"critical_path"`
}

// Recommendation is one prioritized suggestion attached to an extraction.
type Recommendation struct {
	Type        string `json:"type,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Description string `json:"description"`
}

// ReleaseExtraction is the full result of deriving a release plan from a
// charter.
type ReleaseExtraction struct {
	ExtractedReleases []ExtractedRelease `json:"extracted_releases"`
	Recommendations   []Recommendation   `json:"recommendations"`
	ReleaseStrategy   ReleaseStrategy    `json:"release_strategy"`
}
