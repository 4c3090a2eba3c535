// Package store persists the planning hierarchy in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/planflow/planflow/internal/domain"
	"github.com/planflow/planflow/internal/ports"
)

// SQLiteStore implements ports.ProjectRepository on a single SQLite file.
// List-valued columns and the charter document are stored as JSON text;
// timestamps as RFC 3339.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open creates (or opens) the database at path and ensures the schema. Use
// ":memory:" for an ephemeral database.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT,
	vision TEXT,
	problem_being_solved TEXT,
	status TEXT NOT NULL,
	progress REAL NOT NULL DEFAULT 0,
	charter TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS releases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT,
	version TEXT,
	start_date TEXT,
	end_date TEXT,
	scope_modules TEXT,
	goals TEXT,
	status TEXT NOT NULL,
	progress REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS epics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	release_id INTEGER NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT,
	version TEXT,
	status TEXT NOT NULL,
	progress REAL NOT NULL DEFAULT 0,
	acceptance_criteria TEXT,
	business_value TEXT,
	technical_notes TEXT,
	architecture_notes TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS user_stories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	epic_id INTEGER NOT NULL REFERENCES epics(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	description TEXT,
	story_points INTEGER,
	status TEXT NOT NULL,
	priority TEXT NOT NULL,
	acceptance_criteria TEXT,
	business_value TEXT,
	technical_notes TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS use_cases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_story_id INTEGER NOT NULL REFERENCES user_stories(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT,
	preconditions TEXT,
	main_flow TEXT,
	alternative_flows TEXT,
	postconditions TEXT,
	primary_actor TEXT,
	secondary_actors TEXT,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS test_cases (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_story_id INTEGER NOT NULL REFERENCES user_stories(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT,
	test_type TEXT,
	preconditions TEXT,
	test_steps TEXT,
	expected_results TEXT,
	priority TEXT NOT NULL,
	automated TEXT,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project_id INTEGER,
	user_story_id INTEGER,
	content TEXT NOT NULL,
	author TEXT,
	created_at TEXT NOT NULL
);
`

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Reset drops all rows while keeping the schema.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, table := range []string{"comments", "test_cases", "use_cases", "user_stories", "epics", "releases", "projects"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) CreateProject(ctx context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = domain.ProjectDraft
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO projects
		(name, description, vision, problem_being_solved, status, progress, charter, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Vision, p.ProblemBeingSolved, string(p.Status), p.Progress,
		jsonColumn(p.Charter), formatTime(now), formatTime(now))
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) GetProject(ctx context.Context, id int64) (domain.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, description, vision, problem_being_solved,
		status, progress, charter, created_at, updated_at FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (s *SQLiteStore) ListProjects(ctx context.Context, limit, offset int) ([]domain.Project, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, vision, problem_being_solved,
		status, progress, charter, created_at, updated_at FROM projects
		ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}
	return projects, total, rows.Err()
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET
		name = ?, description = ?, vision = ?, problem_being_solved = ?,
		status = ?, progress = ?, charter = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.Vision, p.ProblemBeingSolved, string(p.Status),
		p.Progress, jsonColumn(p.Charter), formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) CreateRelease(ctx context.Context, r *domain.Release) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = domain.ReleaseNotStarted
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO releases
		(project_id, name, description, version, start_date, end_date, scope_modules, goals,
		status, progress, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ProjectID, r.Name, r.Description, r.Version,
		formatDate(r.StartDate), formatDate(r.EndDate),
		jsonColumn(r.ScopeModules), jsonColumn(r.Goals),
		string(r.Status), r.Progress, formatTime(now), formatTime(now))
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) GetRelease(ctx context.Context, projectID, releaseID int64) (domain.Release, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, project_id, name, description, version,
		start_date, end_date, scope_modules, goals, status, progress, created_at, updated_at
		FROM releases WHERE id = ? AND project_id = ?`, releaseID, projectID)
	return scanRelease(row)
}

func (s *SQLiteStore) ListReleases(ctx context.Context, projectID int64) ([]domain.Release, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, name, description, version,
		start_date, end_date, scope_modules, goals, status, progress, created_at, updated_at
		FROM releases WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	releases := []domain.Release{}
	for rows.Next() {
		r, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		releases = append(releases, r)
	}
	return releases, rows.Err()
}

func (s *SQLiteStore) UpdateRelease(ctx context.Context, r *domain.Release) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `UPDATE releases SET
		name = ?, description = ?, version = ?, start_date = ?, end_date = ?,
		scope_modules = ?, goals = ?, status = ?, progress = ?, updated_at = ?
		WHERE id = ? AND project_id = ?`,
		r.Name, r.Description, r.Version, formatDate(r.StartDate), formatDate(r.EndDate),
		jsonColumn(r.ScopeModules), jsonColumn(r.Goals), string(r.Status), r.Progress,
		formatTime(r.UpdatedAt), r.ID, r.ProjectID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteRelease(ctx context.Context, projectID, releaseID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "DELETE FROM releases WHERE id = ? AND project_id = ?", releaseID, projectID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) CreateEpic(ctx context.Context, e *domain.Epic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Status == "" {
		e.Status = domain.EpicDraft
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO epics
		(release_id, name, description, version, status, progress, acceptance_criteria,
		business_value, technical_notes, architecture_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ReleaseID, e.Name, e.Description, e.Version, string(e.Status), e.Progress,
		jsonColumn(e.AcceptanceCriteria), e.BusinessValue, e.TechnicalNotes, e.ArchitectureNotes,
		formatTime(now), formatTime(now))
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) ListEpics(ctx context.Context, releaseID int64) ([]domain.Epic, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, release_id, name, description, version,
		status, progress, acceptance_criteria, business_value, technical_notes, architecture_notes,
		created_at, updated_at FROM epics WHERE release_id = ? ORDER BY id`, releaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	epics := []domain.Epic{}
	for rows.Next() {
		var e domain.Epic
		var status, criteria, created, updated string
		if err := rows.Scan(&e.ID, &e.ReleaseID, &e.Name, &e.Description, &e.Version,
			&status, &e.Progress, &criteria, &e.BusinessValue, &e.TechnicalNotes,
			&e.ArchitectureNotes, &created, &updated); err != nil {
			return nil, err
		}
		e.Status = domain.EpicStatus(status)
		e.AcceptanceCriteria = decodeStrings(criteria)
		e.CreatedAt = parseTime(created)
		e.UpdatedAt = parseTime(updated)
		epics = append(epics, e)
	}
	return epics, rows.Err()
}

func (s *SQLiteStore) CreateUserStory(ctx context.Context, story *domain.UserStory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	story.CreatedAt, story.UpdatedAt = now, now
	if story.Status == "" {
		story.Status = domain.StoryDraft
	}
	if story.Priority == "" {
		story.Priority = domain.PriorityMedium
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO user_stories
		(epic_id, name, description, story_points, status, priority, acceptance_criteria,
		business_value, technical_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.EpicID, story.Name, story.Description, story.StoryPoints,
		string(story.Status), string(story.Priority), jsonColumn(story.AcceptanceCriteria),
		story.BusinessValue, story.TechnicalNotes, formatTime(now), formatTime(now))
	if err != nil {
		return err
	}
	story.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) ListUserStories(ctx context.Context, epicID int64) ([]domain.UserStory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, epic_id, name, description, story_points,
		status, priority, acceptance_criteria, business_value, technical_notes, created_at, updated_at
		FROM user_stories WHERE epic_id = ? ORDER BY id`, epicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stories := []domain.UserStory{}
	for rows.Next() {
		var story domain.UserStory
		var status, priority, criteria, created, updated string
		if err := rows.Scan(&story.ID, &story.EpicID, &story.Name, &story.Description,
			&story.StoryPoints, &status, &priority, &criteria, &story.BusinessValue,
			&story.TechnicalNotes, &created, &updated); err != nil {
			return nil, err
		}
		story.Status = domain.StoryStatus(status)
		story.Priority = domain.StoryPriority(priority)
		story.AcceptanceCriteria = decodeStrings(criteria)
		story.CreatedAt = parseTime(created)
		story.UpdatedAt = parseTime(updated)
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

func (s *SQLiteStore) CreateUseCase(ctx context.Context, u *domain.UseCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `INSERT INTO use_cases
		(user_story_id, title, description, preconditions, main_flow, alternative_flows,
		postconditions, primary_actor, secondary_actors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UserStoryID, u.Title, u.Description, jsonColumn(u.Preconditions),
		jsonColumn(u.MainFlow), jsonColumn(u.AlternativeFlows), jsonColumn(u.Postconditions),
		u.PrimaryActor, jsonColumn(u.SecondaryActors), formatTime(u.CreatedAt))
	if err != nil {
		return err
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) CreateTestCase(ctx context.Context, t *domain.TestCase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.CreatedAt = time.Now().UTC()
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO test_cases
		(user_story_id, title, description, test_type, preconditions, test_steps,
		expected_results, priority, automated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserStoryID, t.Title, t.Description, t.TestType, jsonColumn(t.Preconditions),
		jsonColumn(t.TestSteps), jsonColumn(t.ExpectedResults), string(t.Priority),
		t.Automated, formatTime(t.CreatedAt))
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) CreateComment(ctx context.Context, c *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `INSERT INTO comments
		(project_id, user_story_id, content, author, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ProjectID, c.UserStoryID, c.Content, c.Author, formatTime(c.CreatedAt))
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *SQLiteStore) ListComments(ctx context.Context, projectID int64) ([]domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, user_story_id, content, author, created_at
		FROM comments WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		var created string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.UserStoryID, &c.Content, &c.Author, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(created)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var status, charter, created, updated string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Vision, &p.ProblemBeingSolved,
		&status, &p.Progress, &charter, &created, &updated)
	if err == sql.ErrNoRows {
		return domain.Project{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Project{}, err
	}
	p.Status = domain.ProjectStatus(status)
	if charter != "" && charter != "null" {
		_ = json.Unmarshal([]byte(charter), &p.Charter)
	}
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

func scanRelease(row rowScanner) (domain.Release, error) {
	var r domain.Release
	var status, scopeModules, goals, created, updated string
	var startDate, endDate sql.NullString
	err := row.Scan(&r.ID, &r.ProjectID, &r.Name, &r.Description, &r.Version,
		&startDate, &endDate, &scopeModules, &goals, &status, &r.Progress, &created, &updated)
	if err == sql.ErrNoRows {
		return domain.Release{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Release{}, err
	}
	r.Status = domain.ReleaseStatus(status)
	r.StartDate = parseDateColumn(startDate)
	r.EndDate = parseDateColumn(endDate)
	r.ScopeModules = decodeStrings(scopeModules)
	r.Goals = decodeStrings(goals)
	r.CreatedAt = parseTime(created)
	r.UpdatedAt = parseTime(updated)
	return r, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func jsonColumn(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func decodeStrings(raw string) []string {
	out := []string{}
	if raw == "" || raw == "null" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func parseDateColumn(col sql.NullString) *time.Time {
	if !col.Valid || col.String == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", col.String)
	if err != nil {
		return nil
	}
	return &t
}

var _ ports.ProjectRepository = (*SQLiteStore)(nil)
