// Package ports defines the interfaces between the application core and its
// adapters. Engines depend on these abstractions only; concrete
// implementations live in the infrastructure layer and are wired by the
// composition root.
package ports

import (
	"context"

	"github.com/planflow/planflow/internal/domain"
)

// CompletionRequest carries everything a provider needs for one model call.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// Provider is the uniform interface over interchangeable model backends.
// Implementations normalize vendor usage fields into domain.TokenUsage and
// never retry on failure.
type Provider interface {
	Name() string
	GenerateCompletion(context.Context, CompletionRequest) (domain.Completion, error)
}

// ProviderFactory builds the provider selected by configuration. Vendor
// identity must not be branched on anywhere else.
type ProviderFactory interface {
	ForConfig(domain.Config) (Provider, error)
}

// PromptStore loads versioned prompt templates and renders them with the
// supplied variables. Implementations cache loaded bodies for the process
// lifetime.
type PromptStore interface {
	Get(operation, role, version string, vars map[string]any) (string, error)
	ListOperations() ([]string, error)
	ListVersions(operation string) ([]string, error)
	ClearCache()
}

// ProjectRepository persists the planning hierarchy. The engines hand it
// plain structures; relational integrity and date normalization are its
// concern.
type ProjectRepository interface {
	CreateProject(ctx context.Context, p *domain.Project) error
	GetProject(ctx context.Context, id int64) (domain.Project, error)
	ListProjects(ctx context.Context, limit, offset int) ([]domain.Project, int, error)
	UpdateProject(ctx context.Context, p *domain.Project) error
	DeleteProject(ctx context.Context, id int64) error

	CreateRelease(ctx context.Context, r *domain.Release) error
	GetRelease(ctx context.Context, projectID, releaseID int64) (domain.Release, error)
	ListReleases(ctx context.Context, projectID int64) ([]domain.Release, error)
	UpdateRelease(ctx context.Context, r *domain.Release) error
	DeleteRelease(ctx context.Context, projectID, releaseID int64) error

	CreateEpic(ctx context.Context, e *domain.Epic) error
	ListEpics(ctx context.Context, releaseID int64) ([]domain.Epic, error)
	CreateUserStory(ctx context.Context, s *domain.UserStory) error
	ListUserStories(ctx context.Context, epicID int64) ([]domain.UserStory, error)
	CreateUseCase(ctx context.Context, u *domain.UseCase) error
	CreateTestCase(ctx context.Context, t *domain.TestCase) error
	CreateComment(ctx context.Context, c *domain.Comment) error
	ListComments(ctx context.Context, projectID int64) ([]domain.Comment, error)
}

// Logger is the structured logging abstraction used across the core.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
