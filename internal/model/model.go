// Package model defines the entity types mirrored from the remote tables.
// Field tags match the remote column names. Timestamps are ISO-8601 strings
// treated as opaque ordering keys; the client never does date math on them.
// Optional columns are pointers with omitempty so that creation omits absent
// fields instead of sending explicit nulls (some columns reject them).
package model

// StatusCategory is the coarse lifecycle bucket of a Status. It is the only
// categorical signal other subsystems use to mean "is this task finished".
type StatusCategory string

const (
	CategoryBacklog StatusCategory = "backlog"
	CategoryActive  StatusCategory = "active"
	CategoryDone    StatusCategory = "done"
)

// TaskType distinguishes plain tasks from bugs and features.
type TaskType string

const (
	TypeTask    TaskType = "task"
	TypeBug     TaskType = "bug"
	TypeFeature TaskType = "feature"
)

// Priority runs 1 (highest) to 4 (lowest).
const (
	PriorityUrgent = 1
	PriorityHigh   = 2
	PriorityMedium = 3
	PriorityLow    = 4
)

// RecurrenceRule names a due-date advance rule for repeating tasks.
type RecurrenceRule string

const (
	RecurDaily    RecurrenceRule = "daily"
	RecurWeekdays RecurrenceRule = "weekdays"
	RecurWeekly   RecurrenceRule = "weekly"
	RecurBiweekly RecurrenceRule = "biweekly"
	RecurMonthly  RecurrenceRule = "monthly"
	RecurYearly   RecurrenceRule = "yearly"
)

// Discipline tags a task with the kind of work it involves.
type Discipline string

const (
	DisciplineArt        Discipline = "art"
	DisciplineCode       Discipline = "code"
	DisciplineDesign     Discipline = "design"
	DisciplineAudio      Discipline = "audio"
	DisciplineQA         Discipline = "qa"
	DisciplineWriting    Discipline = "writing"
	DisciplineProduction Discipline = "production"
)

// Disciplines lists every valid discipline tag.
var Disciplines = []Discipline{
	DisciplineArt, DisciplineCode, DisciplineDesign, DisciplineAudio,
	DisciplineQA, DisciplineWriting, DisciplineProduction,
}

// ProjectType selects the default status template for a new project.
type ProjectType string

const (
	ProjectArt     ProjectType = "art"
	ProjectDev     ProjectType = "dev"
	ProjectJob     ProjectType = "job"
	ProjectLife    ProjectType = "life"
	ProjectGeneral ProjectType = "general"
)

// TrackedField is a task field whose changes are recorded in the audit log.
type TrackedField string

const (
	FieldStatus     TrackedField = "status_id"
	FieldPriority   TrackedField = "priority"
	FieldTitle      TrackedField = "title"
	FieldDueDate    TrackedField = "due_date"
	FieldType       TrackedField = "type"
	FieldRecurrence TrackedField = "recurrence_rule"
	FieldDiscipline TrackedField = "discipline"
)

// TrackedFields is the fixed allow-list for task audit logging.
var TrackedFields = []TrackedField{
	FieldStatus, FieldPriority, FieldTitle, FieldDueDate,
	FieldType, FieldRecurrence, FieldDiscipline,
}

// Workspace is the top-level container; it owns projects.
type Workspace struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Icon      *string `json:"icon,omitempty"`
	Color     *string `json:"color,omitempty"`
	SortOrder int     `json:"sort_order"`
	CreatedAt string  `json:"created_at,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// Project owns statuses, releases and tasks.
type Project struct {
	ID          string      `json:"id"`
	WorkspaceID string      `json:"workspace_id"`
	Name        string      `json:"name"`
	Description *string     `json:"description,omitempty"`
	Type        ProjectType `json:"type"`
	SortOrder   int         `json:"sort_order"`
	Archived    bool        `json:"archived"`
	CreatedAt   string      `json:"created_at,omitempty"`
	UpdatedAt   string      `json:"updated_at,omitempty"`
}

// Status is one column of a project's board. Exactly one status per project
// should carry IsDefault; it is the fallback bucket when a status is deleted
// or a task changes project.
type Status struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	Name      string         `json:"name"`
	Category  StatusCategory `json:"category"`
	Color     *string        `json:"color,omitempty"`
	SortOrder int            `json:"sort_order"`
	IsDefault bool           `json:"is_default"`
}

// Tag is a global label attachable to tasks through TaskTag.
type Tag struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
}

// ReleaseStatus is the lifecycle of a release.
type ReleaseStatus string

const (
	ReleaseDraft      ReleaseStatus = "draft"
	ReleaseInProgress ReleaseStatus = "in_progress"
	ReleaseReleased   ReleaseStatus = "released"
)

// Release groups tasks under a version for changelog generation.
type Release struct {
	ID           string        `json:"id"`
	ProjectID    string        `json:"project_id"`
	Version      string        `json:"version"`
	Title        *string       `json:"title,omitempty"`
	Status       ReleaseStatus `json:"status"`
	TargetDate   *string       `json:"target_date,omitempty"`
	ReleasedDate *string       `json:"released_date,omitempty"`
	ChangelogMD  *string       `json:"changelog_md,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	UpdatedAt    string        `json:"updated_at,omitempty"`
}

// Task is the central work item. ProjectID is nil for unassigned inbox
// tasks. SortOrder establishes intra-status ordering; collisions are
// tolerated and break by insertion order.
type Task struct {
	ID                 string          `json:"id"`
	ProjectID          *string         `json:"project_id,omitempty"`
	StatusID           *string         `json:"status_id,omitempty"`
	ReleaseID          *string         `json:"release_id,omitempty"`
	Title              string          `json:"title"`
	Description        *string         `json:"description,omitempty"`
	Type               TaskType        `json:"type"`
	Priority           int             `json:"priority"`
	DueDate            *string         `json:"due_date,omitempty"`
	SortOrder          int             `json:"sort_order"`
	Archived           bool            `json:"archived"`
	Severity           *string         `json:"severity,omitempty"`
	ReproSteps         *string         `json:"repro_steps,omitempty"`
	Expected           *string         `json:"expected,omitempty"`
	Actual             *string         `json:"actual,omitempty"`
	Discipline         *Discipline     `json:"discipline,omitempty"`
	RecurrenceRule     *RecurrenceRule `json:"recurrence_rule,omitempty"`
	RecurrenceSourceID *string         `json:"recurrence_source_id,omitempty"`
	CreatedAt          string          `json:"created_at,omitempty"`
	UpdatedAt          string          `json:"updated_at,omitempty"`
}

// TaskTag joins tasks to tags.
type TaskTag struct {
	TaskID string `json:"task_id"`
	TagID  string `json:"tag_id"`
}

// ChecklistItem is a sub-step of a task, lazily fetched per task.
type ChecklistItem struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Title     string `json:"title"`
	Checked   bool   `json:"checked"`
	SortOrder int    `json:"sort_order"`
}

// TaskNote is a free-form note on a task.
type TaskNote struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// TaskActivity is one append-only audit record for a task.
type TaskActivity struct {
	ID        string  `json:"id"`
	TaskID    string  `json:"task_id"`
	Action    string  `json:"action"` // created, updated, archived
	Field     *string `json:"field,omitempty"`
	OldValue  *string `json:"old_value,omitempty"`
	NewValue  *string `json:"new_value,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// TaskDependency is a directed edge: TaskID depends on DependsOnTaskID.
type TaskDependency struct {
	ID              string `json:"id"`
	TaskID          string `json:"task_id"`
	DependsOnTaskID string `json:"depends_on_task_id"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// TaskAttachment is file metadata; the blob itself lives in external storage.
type TaskAttachment struct {
	ID        string  `json:"id"`
	TaskID    string  `json:"task_id"`
	FileName  string  `json:"file_name"`
	FileURL   string  `json:"file_url"`
	FilePath  *string `json:"file_path,omitempty"`
	FileType  string  `json:"file_type"`
	FileSize  int64   `json:"file_size"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// JobStage is the hiring-funnel stage of an application.
type JobStage string

const (
	StageStudios      JobStage = "studios"
	StageApplied      JobStage = "applied"
	StageInterviewing JobStage = "interviewing"
	StageOffer        JobStage = "offer"
	StageClosed       JobStage = "closed"
)

// JobStages lists the funnel stages in pipeline order.
var JobStages = []JobStage{
	StageStudios, StageApplied, StageInterviewing, StageOffer, StageClosed,
}

// InterestLevel ranks how much the user wants a given studio.
type InterestLevel string

const (
	InterestHigh   InterestLevel = "high"
	InterestMedium InterestLevel = "medium"
	InterestLow    InterestLevel = "low"
)

// JobApplication is one studio in the hiring funnel. Pinned applications
// sort ahead of everything else in their stage.
type JobApplication struct {
	ID             string        `json:"id"`
	StudioName     string        `json:"studio_name"`
	Locations      *string       `json:"locations,omitempty"`
	NotableGames   *string       `json:"notable_games,omitempty"`
	Interest       InterestLevel `json:"interest"`
	Stage          JobStage      `json:"stage"`
	Market         *string       `json:"market,omitempty"`
	ContactMethod  *string       `json:"contact_method,omitempty"`
	ContactPerson  *string       `json:"contact_person,omitempty"`
	NextActionDate *string       `json:"next_action_date,omitempty"`
	JobURL         *string       `json:"job_url,omitempty"`
	Position       *string       `json:"position,omitempty"`
	Notes          *string       `json:"notes,omitempty"`
	SortOrder      int           `json:"sort_order"`
	Pinned         bool          `json:"pinned"`
	Archived       bool          `json:"archived"`
	CreatedAt      string        `json:"created_at,omitempty"`
	UpdatedAt      string        `json:"updated_at,omitempty"`
}

// JobTimelineEntry records one stage transition, including the creation
// transition where FromStage is nil.
type JobTimelineEntry struct {
	ID            string  `json:"id"`
	ApplicationID string  `json:"application_id"`
	FromStage     *string `json:"from_stage,omitempty"`
	ToStage       string  `json:"to_stage"`
	Note          *string `json:"note,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// Ptr returns a pointer to v. Convenience for building optional fields.
func Ptr[T any](v T) *T { return &v }
