package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planflow/planflow/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "planflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProjectCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	project := domain.Project{
		Name:        "CRM",
		Description: "Customer platform",
		Charter:     domain.Charter{"name": "CRM", "modules": map[string]any{"auth": []any{"login"}}},
	}
	require.NoError(t, s.CreateProject(ctx, &project))
	require.NotZero(t, project.ID)
	assert.Equal(t, domain.ProjectDraft, project.Status)

	got, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "CRM", got.Name)
	assert.Equal(t, "CRM", got.Charter["name"])
	assert.False(t, got.CreatedAt.IsZero())

	got.Status = domain.ProjectInPlanning
	got.Progress = 25
	require.NoError(t, s.UpdateProject(ctx, &got))
	updated, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectInPlanning, updated.Status)
	assert.Equal(t, 25.0, updated.Progress)

	require.NoError(t, s.DeleteProject(ctx, project.ID))
	_, err = s.GetProject(ctx, project.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetProject(ctx, 99)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, s.DeleteProject(ctx, 99), domain.ErrNotFound)
	require.ErrorIs(t, s.UpdateProject(ctx, &domain.Project{ID: 99, Name: "x"}), domain.ErrNotFound)
}

func TestListProjectsPagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := domain.Project{Name: "p"}
		require.NoError(t, s.CreateProject(ctx, &p))
	}

	page, total, err := s.ListProjects(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].ID)

	all, total, err := s.ListProjects(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, all, 5)
}

func TestReleaseRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	project := domain.Project{Name: "CRM"}
	require.NoError(t, s.CreateProject(ctx, &project))

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	release := domain.Release{
		ProjectID:    project.ID,
		Name:         "Foundation",
		Version:      "0.1.0",
		StartDate:    &start,
		ScopeModules: []string{"auth", "projects"},
		Goals:        []string{"stand up the basics"},
		Status:       domain.ReleaseNotStarted,
	}
	require.NoError(t, s.CreateRelease(ctx, &release))

	got, err := s.GetRelease(ctx, project.ID, release.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StartDate)
	assert.Equal(t, start, *got.StartDate)
	assert.Nil(t, got.EndDate)
	assert.Equal(t, []string{"auth", "projects"}, got.ScopeModules)

	got.Progress = 50
	got.Status = domain.ReleaseInProgress
	require.NoError(t, s.UpdateRelease(ctx, &got))
	updated, err := s.GetRelease(ctx, project.ID, release.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, updated.Progress)

	// scoped to the owning project
	_, err = s.GetRelease(ctx, project.ID+1, release.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteProjectCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	project := domain.Project{Name: "CRM"}
	require.NoError(t, s.CreateProject(ctx, &project))
	release := domain.Release{ProjectID: project.ID, Name: "Foundation"}
	require.NoError(t, s.CreateRelease(ctx, &release))
	epic := domain.Epic{ReleaseID: release.ID, Name: "Auth"}
	require.NoError(t, s.CreateEpic(ctx, &epic))

	require.NoError(t, s.DeleteProject(ctx, project.ID))

	releases, err := s.ListReleases(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, releases)
	epics, err := s.ListEpics(ctx, release.ID)
	require.NoError(t, err)
	assert.Empty(t, epics)
}

func TestEpicAndStoryDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	project := domain.Project{Name: "CRM"}
	require.NoError(t, s.CreateProject(ctx, &project))
	release := domain.Release{ProjectID: project.ID, Name: "Foundation"}
	require.NoError(t, s.CreateRelease(ctx, &release))

	epic := domain.Epic{ReleaseID: release.ID, Name: "Auth", AcceptanceCriteria: []string{"login works"}}
	require.NoError(t, s.CreateEpic(ctx, &epic))
	assert.Equal(t, domain.EpicDraft, epic.Status)

	story := domain.UserStory{EpicID: epic.ID, Name: "Login", StoryPoints: 3}
	require.NoError(t, s.CreateUserStory(ctx, &story))
	assert.Equal(t, domain.StoryDraft, story.Status)
	assert.Equal(t, domain.PriorityMedium, story.Priority)

	epics, err := s.ListEpics(ctx, release.ID)
	require.NoError(t, err)
	require.Len(t, epics, 1)
	assert.Equal(t, []string{"login works"}, epics[0].AcceptanceCriteria)

	stories, err := s.ListUserStories(ctx, epic.ID)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, 3, stories[0].StoryPoints)
}

func TestUseCaseTestCaseComment(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	project := domain.Project{Name: "CRM"}
	require.NoError(t, s.CreateProject(ctx, &project))
	release := domain.Release{ProjectID: project.ID, Name: "Foundation"}
	require.NoError(t, s.CreateRelease(ctx, &release))
	epic := domain.Epic{ReleaseID: release.ID, Name: "Auth"}
	require.NoError(t, s.CreateEpic(ctx, &epic))
	story := domain.UserStory{EpicID: epic.ID, Name: "Login"}
	require.NoError(t, s.CreateUserStory(ctx, &story))

	useCase := domain.UseCase{
		UserStoryID:  story.ID,
		Title:        "Successful login",
		MainFlow:     []string{"enter credentials", "submit"},
		PrimaryActor: "user",
	}
	require.NoError(t, s.CreateUseCase(ctx, &useCase))
	require.NotZero(t, useCase.ID)

	testCase := domain.TestCase{
		UserStoryID: story.ID,
		Title:       "Rejects bad password",
		TestType:    "functional",
		TestSteps:   []string{"submit wrong password"},
		Automated:   "yes",
	}
	require.NoError(t, s.CreateTestCase(ctx, &testCase))
	assert.Equal(t, domain.PriorityMedium, testCase.Priority)

	comment := domain.Comment{ProjectID: project.ID, Content: "looks good", Author: "sam"}
	require.NoError(t, s.CreateComment(ctx, &comment))

	comments, err := s.ListComments(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "looks good", comments[0].Content)
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	project := domain.Project{Name: "CRM"}
	require.NoError(t, s.CreateProject(ctx, &project))
	require.NoError(t, s.Reset(ctx))

	_, total, err := s.ListProjects(ctx, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}
