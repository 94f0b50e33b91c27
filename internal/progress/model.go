package progress

import "time"

// Kind separates day-scoped entries from week-scoped ones.
type Kind string

const (
	KindDaily  Kind = "DAILY"
	KindWeekly Kind = "WEEKLY"
)

// Status tracks an entry through its lifecycle. REVIEWED entries are locked.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSubmitted Status = "SUBMITTED"
	StatusReviewed  Status = "REVIEWED"
)

// Entry is one progress record for a project. Daily entries are keyed by the
// calendar date; weekly entries by the Monday of the reported week. At most
// one entry may exist per (project, kind, date, assignee).
type Entry struct {
	ID             int64     `json:"id"`
	ProjectID      int64     `json:"project_id"`
	Kind           Kind      `json:"kind"`
	Date           time.Time `json:"date"`
	AssignedTo     string    `json:"assigned_to"`
	PlannedTask    string    `json:"planned_task"`
	ActualProgress string    `json:"actual_progress"`
	AdminRemarks   string    `json:"admin_remarks"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WeekStart returns the Monday of the week containing d.
func WeekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
