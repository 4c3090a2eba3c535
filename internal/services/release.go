package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/pkg/jsonx"
	"github.com/planflow/planflow/internal/ports"
)

const (
	opReleaseExtraction = "release_extraction"

	extractionTemperature = 0.1
	extractionMaxTokens   = 4000

	dateLayout = "2006-01-02"
)

// requiredExtractionKeys are the top-level keys every extraction reply must
// carry. Unlike charter validation there is no soft fallback: a missing
// section fails the whole extraction rather than fabricating defaults.
var requiredExtractionKeys = []string{"extracted_releases", "recommendations", "release_strategy"}

// ReleaseService is the release extraction engine plus the mapping of
// extracted structures onto persisted release records.
type ReleaseService struct {
	Provider ports.Provider
	Prompts  ports.PromptStore
	Repo     ports.ProjectRepository
	Logger   ports.Logger
	Config   domain.Config
}

// ExtractFromCharter derives a release plan from a project charter. The
// charter must be non-empty. The completion is bounded by the token budget;
// an oversized charter is truncated once before giving up with
// PromptTooLarge.
func (s *ReleaseService) ExtractFromCharter(ctx context.Context, charter domain.Charter) (domain.ReleaseExtraction, error) {
	if len(charter) == 0 {
		return domain.ReleaseExtraction{}, domain.ErrMissingCharter
	}
	if s.Provider == nil {
		return domain.ReleaseExtraction{}, &domain.ConfigurationError{Reason: "AI provider not available"}
	}

	version := s.promptVersion()
	systemPrompt, err := s.Prompts.Get(opReleaseExtraction, "system", version, nil)
	if err != nil {
		return domain.ReleaseExtraction{}, err
	}

	userPrompt, budget, err := renderBudgeted(s.Prompts, s.Logger, opReleaseExtraction, version, systemPrompt,
		map[string]any{"CharterData": mustIndentJSON(charter)}, "CharterData", s.maxTokens(), s.Config.ContextWindow)
	if err != nil {
		return domain.ReleaseExtraction{}, err
	}

	completion, err := s.Provider.GenerateCompletion(ctx, ports.CompletionRequest{
		Prompt:       userPrompt,
		SystemPrompt: systemPrompt,
		Temperature:  extractionTemperature,
		MaxTokens:    budget,
	})
	if err != nil {
		return domain.ReleaseExtraction{}, fmt.Errorf("release extraction: %w", err)
	}

	payload, err := jsonx.ExtractObject(completion.Content)
	if err != nil {
		s.logRaw(completion, err)
		return domain.ReleaseExtraction{}, err
	}

	var missing []string
	for _, key := range requiredExtractionKeys {
		if _, ok := payload[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return domain.ReleaseExtraction{}, &domain.IncompleteResponseError{MissingKeys: missing}
	}

	var extraction domain.ReleaseExtraction
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.ReleaseExtraction{}, fmt.Errorf("re-encode extraction payload: %w", err)
	}
	if err := json.Unmarshal(data, &extraction); err != nil {
		return domain.ReleaseExtraction{}, &domain.MalformedResponseError{Raw: completion.Content, Err: err}
	}
	return extraction, nil
}

// CreateFromExtraction persists the selected extracted releases under a
// project. selected holds indexes into releases; empty means all. Creation
// failures are collected per item rather than aborting the batch.
func (s *ReleaseService) CreateFromExtraction(ctx context.Context, projectID int64, releases []domain.ExtractedRelease, selected []int) ([]domain.Release, []string, error) {
	if _, err := s.Repo.GetProject(ctx, projectID); err != nil {
		return nil, nil, err
	}

	if len(selected) == 0 {
		selected = make([]int, len(releases))
		for i := range releases {
			selected[i] = i
		}
	}

	created := []domain.Release{}
	itemErrors := []string{}
	for _, idx := range selected {
		if idx < 0 || idx >= len(releases) {
			return nil, nil, fmt.Errorf("index %d: %w", idx, domain.ErrInvalidSelection)
		}
		release := s.toRelease(projectID, releases[idx])
		if err := s.Repo.CreateRelease(ctx, &release); err != nil {
			itemErrors = append(itemErrors, fmt.Sprintf("release %q: %v", release.Name, err))
			continue
		}
		created = append(created, release)
	}
	return created, itemErrors, nil
}

// toRelease maps an extracted release onto a persistable record. Invalid
// dates are dropped with a warning; ordering of the window is not enforced
// here.
func (s *ReleaseService) toRelease(projectID int64, extracted domain.ExtractedRelease) domain.Release {
	name := extracted.Name
	if name == "" {
		name = "Release"
	}
	return domain.Release{
		ProjectID:    projectID,
		Name:         name,
		Description:  extracted.Description,
		Version:      extracted.Version,
		StartDate:    s.parseDate(extracted.StartDate),
		EndDate:      s.parseDate(extracted.EndDate),
		ScopeModules: orEmpty(extracted.ScopeModules),
		Goals:        orEmpty(extracted.Goals),
		Status:       domain.ReleaseNotStarted,
		Progress:     0,
	}
}

func (s *ReleaseService) parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("invalid release date skipped", map[string]interface{}{"value": value})
		}
		return nil
	}
	return &parsed
}

// ReleaseProgress computes a release's progress percentage from its epics.
func (s *ReleaseService) ReleaseProgress(ctx context.Context, releaseID int64) (float64, error) {
	epics, err := s.Repo.ListEpics(ctx, releaseID)
	if err != nil {
		return 0, err
	}
	if len(epics) == 0 {
		return 0, nil
	}
	completed := 0
	for _, epic := range epics {
		if epic.Status == domain.EpicCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(epics)) * 100.0, nil
}

// UpdateReleaseProgress recomputes and persists a release's progress.
func (s *ReleaseService) UpdateReleaseProgress(ctx context.Context, projectID, releaseID int64) (domain.Release, error) {
	release, err := s.Repo.GetRelease(ctx, projectID, releaseID)
	if err != nil {
		return domain.Release{}, err
	}
	progress, err := s.ReleaseProgress(ctx, releaseID)
	if err != nil {
		return domain.Release{}, err
	}
	release.Progress = progress
	if err := s.Repo.UpdateRelease(ctx, &release); err != nil {
		return domain.Release{}, err
	}
	return release, nil
}

// UpdateProjectProgress recomputes and persists a project's progress.
func (s *ReleaseService) UpdateProjectProgress(ctx context.Context, projectID int64) (domain.Project, error) {
	project, err := s.Repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	progress, err := s.ProjectProgress(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	project.Progress = progress
	if err := s.Repo.UpdateProject(ctx, &project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// ProjectProgress computes a project's progress percentage from story
// completion across all releases and epics.
func (s *ReleaseService) ProjectProgress(ctx context.Context, projectID int64) (float64, error) {
	releases, err := s.Repo.ListReleases(ctx, projectID)
	if err != nil {
		return 0, err
	}
	total, completed := 0, 0
	for _, release := range releases {
		epics, err := s.Repo.ListEpics(ctx, release.ID)
		if err != nil {
			return 0, err
		}
		for _, epic := range epics {
			stories, err := s.Repo.ListUserStories(ctx, epic.ID)
			if err != nil {
				return 0, err
			}
			for _, story := range stories {
				total++
				if story.Status == domain.StoryCompleted {
					completed++
				}
			}
		}
	}
	if total == 0 {
		return 0, nil
	}
	return float64(completed) / float64(total) * 100.0, nil
}

func (s *ReleaseService) promptVersion() string {
	if s.Config.PromptVersion != "" {
		return s.Config.PromptVersion
	}
	return defaultPromptVersion
}

func (s *ReleaseService) maxTokens() int {
	if s.Config.MaxTokens > 0 {
		return s.Config.MaxTokens
	}
	return extractionMaxTokens
}

func (s *ReleaseService) logRaw(completion domain.Completion, err error) {
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

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
