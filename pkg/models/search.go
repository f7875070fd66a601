package models

import "time"

// SearchObject is a saved templated search definition.
type SearchObject struct {
	ObjectID       string
	ObjectName     string
	Description    string
	SearchQuery    string
	IsFavorite     bool
	ExecutionCount int
	LastExecuted   *time.Time
	CreatedAt      time.Time
}

// AdhocSearchObject is a saved ad-hoc join search definition.
type AdhocSearchObject struct {
	ObjectID       string
	ObjectName     string
	Description    string
	Table1Name     string
	Table2Name     string
	JoinType       string
	JoinKey1       string
	JoinKey2       string
	SearchQuery    string
	CreatedBy      string
	IsFavorite     bool
	ExecutionCount int
	LastExecuted   *time.Time
	CreatedAt      time.Time
}

// Announcement levels mirror the banner styles on the home page.
const (
	AnnouncementInfo    = "info"
	AnnouncementSuccess = "success"
	AnnouncementWarning = "warning"
	AnnouncementError   = "error"
)

// Announcement is a dashboard notice with a display window.
type Announcement struct {
	AnnouncementID string
	Type           string
	Title          string
	Message        string
	StartDate      time.Time
	EndDate        time.Time
	Priority       int // 1 high .. 3 low, lower sorts first
	Show           bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ActiveOn reports whether the announcement should be shown on the given day.
func (a Announcement) ActiveOn(day time.Time) bool {
	if !a.Show {
		return false
	}
	d := calendarDate(day)
	return !d.Before(calendarDate(a.StartDate)) && !d.After(calendarDate(a.EndDate))
}

// calendarDate drops the time of day so window checks compare dates,
// regardless of the time zone the inputs carry.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Column describes a table or view column.
type Column struct {
	Name string
	Type string
}

// Relation kinds
const (
	RelationTable = "TABLE"
	RelationView  = "VIEW"
)

// Relation is a catalog table or view.
type Relation struct {
	Name string
	Kind string
}

// Label returns the display label, e.g. "[TABLE] CUSTOMERS".
func (r Relation) Label() string {
	return "[" + r.Kind + "] " + r.Name
}
