package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/infrastructure/store"
	"github.com/planflow/planflow/internal/ports"
	"github.com/planflow/planflow/internal/services"
)

type fakeProvider struct {
	reply string
	err   error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) GenerateCompletion(context.Context, ports.CompletionRequest) (domain.Completion, error) {
	if p.err != nil {
		return domain.Completion{}, p.err
	}
	return domain.Completion{ID: "cmp-1", Content: p.reply, Provider: "fake"}, nil
}

type fakePrompts struct{}

func (fakePrompts) Get(operation, role, _ string, _ map[string]any) (string, error) {
	return operation + "/" + role, nil
}
func (fakePrompts) ListOperations() ([]string, error)     { return nil, nil }
func (fakePrompts) ListVersions(string) ([]string, error) { return nil, nil }
func (fakePrompts) ClearCache()                           {}

type quietLogger struct{}

func (quietLogger) Debug(string, map[string]interface{})        {}
func (quietLogger) Info(string, map[string]interface{})         {}
func (quietLogger) Warn(string, map[string]interface{})         {}
func (quietLogger) Error(string, error, map[string]interface{}) {}

func newTestServer(t *testing.T, provider ports.Provider) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()
	repo, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := domain.Config{AIProvider: "openai", MaxTokens: 2000, ContextWindow: 128000}
	srv := &Server{
		Charter:  &services.CharterService{Provider: provider, Prompts: fakePrompts{}, Logger: quietLogger{}, Config: cfg},
		Releases: &services.ReleaseService{Provider: provider, Prompts: &fakePrompts{}, Repo: repo, Logger: quietLogger{}, Config: cfg},
		Repo:     repo,
		Logger:   quietLogger{},
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{})
	resp, payload := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", payload["status"])
}

func TestProjectLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{})

	resp, created := doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects", map[string]any{
		"name":        "CRM",
		"description": "Customer platform",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := int64(created["id"].(float64))

	resp, got := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/projects/%d", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CRM", got["name"])

	resp, updated := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/v1/projects/%d", ts.URL, id), map[string]any{
		"status": "In Planning",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "In Planning", updated["status"])

	resp, list := doJSON(t, http.MethodGet, ts.URL+"/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), list["total"])

	req, _ := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/projects/%d", ts.URL, id), nil)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/projects/%d", ts.URL, id), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateProjectValidation(t *testing.T) {
	ts, _ := newTestServer(t, &fakeProvider{})

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/projects", map[string]any{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCharterValidateEndpoint(t *testing.T) {
	provider := &fakeProvider{reply: `{"is_valid": true, "completeness_score": 0.8, "issues": [],
		"structured_charter": {"name": "CRM", "description": "x"}}`}
	ts, _ := newTestServer(t, provider)

	resp, payload := doJSON(t, http.MethodPost, ts.URL+"/api/v1/charter/validate", map[string]any{
		"charter_text": `{"name": "CRM", "description": "x"}`,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, payload["is_valid"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/charter/validate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCharterStatusWithoutProvider(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, payload := doJSON(t, http.MethodGet, ts.URL+"/api/v1/charter/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, payload["available"])

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/v1/charter/validate", map[string]any{
		"charter_text": `{"name": "CRM"}`,
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestProviderFailureMapsToBadGateway(t *testing.T) {
	provider := &fakeProvider{err: &domain.ProviderError{Provider: "fake", Message: "rate limited"}}
	ts, _ := newTestServer(t, provider)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/v1/charter/validate", map[string]any{
		"charter_text": `{"name": "CRM"}`,
	})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestDecodeFailureIsGeneric(t *testing.T) {
	provider := &fakeProvider{reply: "no json here at all"}
	ts, _ := newTestServer(t, provider)

	resp, payload := doJSON(t, http.MethodPost, ts.URL+"/api/v1/charter/validate", map[string]any{
		"charter_text": `{"name": "CRM"}`,
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "failed to interpret model response", payload["error"])
}

const extractionReply = `{
	"extracted_releases": [
		{"name": "Foundation", "start_date": "2026-01-05", "scope_modules": ["auth"], "goals": ["g"]}
	],
	"recommendations": [],
	"release_strategy": {"total_releases": 1}
}`

func TestReleaseExtractionFlow(t *testing.T) {
	ts, repo := newTestServer(t, &fakeProvider{reply: extractionReply})

	project := domain.Project{Name: "CRM", Charter: domain.Charter{"name": "CRM"}}
	require.NoError(t, repo.CreateProject(context.Background(), &project))

	resp, extraction := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/projects/%d/releases/extract", ts.URL, project.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	releases := extraction["extracted_releases"].([]any)
	require.Len(t, releases, 1)

	resp, created := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/projects/%d/releases/create-from-extraction", ts.URL, project.ID),
		map[string]any{"extracted_releases": releases})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, created["created"].([]any), 1)

	resp, list := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/v1/projects/%d/releases", ts.URL, project.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list["releases"].([]any), 1)
}

func TestReleaseExtractionWithoutCharter(t *testing.T) {
	ts, repo := newTestServer(t, &fakeProvider{reply: extractionReply})

	project := domain.Project{Name: "CRM"}
	require.NoError(t, repo.CreateProject(context.Background(), &project))

	resp, _ := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/projects/%d/releases/extract", ts.URL, project.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateFromExtractionInvalidIndex(t *testing.T) {
	ts, repo := newTestServer(t, &fakeProvider{})

	project := domain.Project{Name: "CRM"}
	require.NoError(t, repo.CreateProject(context.Background(), &project))

	resp, _ := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/projects/%d/releases/create-from-extraction", ts.URL, project.ID),
		map[string]any{
			"extracted_releases": []map[string]any{{"name": "A"}},
			"selected":           []int{5},
		})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProgressEndpoint(t *testing.T) {
	ts, repo := newTestServer(t, &fakeProvider{})
	ctx := context.Background()

	project := domain.Project{Name: "CRM"}
	require.NoError(t, repo.CreateProject(ctx, &project))
	release := domain.Release{ProjectID: project.ID, Name: "Foundation"}
	require.NoError(t, repo.CreateRelease(ctx, &release))
	epic := domain.Epic{ReleaseID: release.ID, Name: "Auth", Status: domain.EpicCompleted}
	require.NoError(t, repo.CreateEpic(ctx, &epic))

	resp, payload := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/projects/%d/releases/%d/update-progress", ts.URL, project.ID, release.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(100), payload["progress"])
}

func TestExtractReadsChunkedBody(t *testing.T) {
	ts, repo := newTestServer(t, &fakeProvider{reply: extractionReply})

	project := domain.Project{Name: "CRM"}
	require.NoError(t, repo.CreateProject(context.Background(), &project))

	// io.MultiReader hides the length, forcing chunked transfer encoding
	body := io.MultiReader(strings.NewReader(`{"charter": {"name": "CRM"}}`))
	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/v1/projects/%d/releases/extract", ts.URL, project.ID), body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUpdateProjectProgressEndpoint(t *testing.T) {
	ts, repo := newTestServer(t, &fakeProvider{})
	ctx := context.Background()

	project := domain.Project{Name: "CRM"}
	require.NoError(t, repo.CreateProject(ctx, &project))
	release := domain.Release{ProjectID: project.ID, Name: "Foundation"}
	require.NoError(t, repo.CreateRelease(ctx, &release))
	epic := domain.Epic{ReleaseID: release.ID, Name: "Auth"}
	require.NoError(t, repo.CreateEpic(ctx, &epic))
	for _, status := range []domain.StoryStatus{domain.StoryCompleted, domain.StoryDraft} {
		story := domain.UserStory{EpicID: epic.ID, Name: "story", Status: status}
		require.NoError(t, repo.CreateUserStory(ctx, &story))
	}

	resp, payload := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/v1/projects/%d/update-progress", ts.URL, project.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(50), payload["progress"])

	stored, err := repo.GetProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, stored.Progress)
}

func TestUnknownRelease(t *testing.T) {
	ts, repo := newTestServer(t, &fakeProvider{})
	project := domain.Project{Name: "CRM"}
	require.NoError(t, repo.CreateProject(context.Background(), &project))

	resp, _ := doJSON(t, http.MethodGet,
		fmt.Sprintf("%s/api/v1/projects/%d/releases/99", ts.URL, project.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
