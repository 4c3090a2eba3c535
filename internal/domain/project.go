package domain

import "time"

// Status enumerations for the persisted planning hierarchy. Values mirror
// what the HTTP surface exposes.

type ProjectStatus string

const (
	ProjectDraft         ProjectStatus = "Draft"
	ProjectInPlanning    ProjectStatus = "In Planning"
	ProjectInDevelopment ProjectStatus = "In Development"
	ProjectInReview      ProjectStatus = "In Review"
	ProjectCompleted     ProjectStatus = "Completed"
	ProjectOnHold        ProjectStatus = "On Hold"
	ProjectCancelled     ProjectStatus = "Cancelled"
)

type ReleaseStatus string

const (
	ReleaseNotStarted ReleaseStatus = "Not Started"
	ReleasePlanning   ReleaseStatus = "Planning"
	ReleaseInProgress ReleaseStatus = "In Progress"
	ReleaseTesting    ReleaseStatus = "Testing"
	ReleaseCompleted  ReleaseStatus = "Completed"
	ReleaseOnHold     ReleaseStatus = "On Hold"
)

type EpicStatus string

const (
	EpicDraft      EpicStatus = "Draft"
	EpicReady      EpicStatus = "Ready"
	EpicInProgress EpicStatus = "In Progress"
	EpicCompleted  EpicStatus = "Completed"
	EpicOnHold     EpicStatus = "On Hold"
)

type StoryStatus string

const (
	StoryDraft      StoryStatus = "Draft"
	StoryReady      StoryStatus = "Ready"
	StoryInProgress StoryStatus = "In Progress"
	StoryInReview   StoryStatus = "In Review"
	StoryTesting    StoryStatus = "Testing"
	StoryCompleted  StoryStatus = "Completed"
	StoryBlocked    StoryStatus = "Blocked"
)

type StoryPriority string

const (
	PriorityLow      StoryPriority = "Low"
	PriorityMedium   StoryPriority = "Medium"
	PriorityHigh     StoryPriority = "High"
	PriorityCritical StoryPriority = "Critical"
)

// Project is the root of the planning hierarchy. The charter is stored as a
// JSON document alongside the structured columns.
type Project struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Description        string        `json:"description,omitempty"`
	Vision             string        `json:"vision,omitempty"`
	ProblemBeingSolved string        `json:"problem_being_solved,omitempty"`
	Status             ProjectStatus `json:"status"`
	Progress           float64       `json:"progress"`
	Charter            Charter       `json:"charter,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Release groups epics under a project with an optional delivery window.
type Release struct {
	ID           int64         `json:"id"`
	ProjectID    int64         `json:"project_id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Version      string        `json:"version,omitempty"`
	StartDate    *time.Time    `json:"start_date,omitempty"`
	EndDate      *time.Time    `json:"end_date,omitempty"`
	ScopeModules []string      `json:"scope_modules"`
	Goals        []string      `json:"goals"`
	Status       ReleaseStatus `json:"status"`
	Progress     float64       `json:"progress"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type Epic struct {
	ID                 int64      `json:"id"`
	ReleaseID          int64      `json:"release_id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Version            string     `json:"version,omitempty"`
	Status             EpicStatus `json:"status"`
	Progress           float64    `json:"progress"`
	AcceptanceCriteria []string   `json:"acceptance_criteria,omitempty"`
	BusinessValue      string     `json:"business_value,omitempty"`
	TechnicalNotes     string     `json:"technical_notes,omitempty"`
	ArchitectureNotes  string     `json:"architecture_notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type UserStory struct {
	ID                 int64         `json:"id"`
	EpicID             int64         `json:"epic_id"`
	Name               string        `json:"name"`
	Description        string        `json:"description,omitempty"`
	StoryPoints        int           `json:"story_points,omitempty"`
	Status             StoryStatus   `json:"status"`
	Priority           StoryPriority `json:"priority"`
	AcceptanceCriteria []string      `json:"acceptance_criteria,omitempty"`
	BusinessValue      string        `json:"business_value,omitempty"`
	TechnicalNotes     string        `json:"technical_notes,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type UseCase struct {
	ID               int64     `json:"id"`
	UserStoryID      int64     `json:"user_story_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Preconditions    []string  `json:"preconditions,omitempty"`
	MainFlow         []string  `json:"main_flow,omitempty"`
	AlternativeFlows []string  `json:"alternative_flows,omitempty"`
	Postconditions   []string  `json:"postconditions,omitempty"`
	PrimaryActor     string    `json:"primary_actor,omitempty"`
	SecondaryActors  []string  `json:"secondary_actors,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type TestCase struct {
	ID              int64         `json:"id"`
	UserStoryID     int64         `json:"user_story_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	TestType        string        `json:"test_type,omitempty"`
	Preconditions   []string      `json:"preconditions,omitempty"`
	TestSteps       []string      `json:"test_steps,omitempty"`
	ExpectedResults []string      `json:"expected_results,omitempty"`
	Priority        StoryPriority `json:"priority"`
	Automated       string        `json:"automated"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Comment can attach to a project or a user story.
type Comment struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"project_id,omitempty"`
	UserStoryID int64     `json:"user_story_id,omitempty"`
	Content     string    `json:"content"`
	Author      string    `json:"author,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
