package store

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowsearch/pkg/models"
)

var announcementColumns = []string{
	"announcement_id", "announcement_type", "title", "message",
	"start_date", "end_date", "priority", "show_flag", "created_at", "updated_at",
}

func validAnnouncement() models.Announcement {
	return models.Announcement{
		AnnouncementID: "announcement_20260801_120000",
		Type:           models.AnnouncementInfo,
		Title:          "Maintenance window",
		Message:        "The warehouse will be unavailable on Sunday.",
		StartDate:      time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Priority:       1,
		Show:           true,
	}
}

func TestAnnouncementStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := validAnnouncement()
	mock.ExpectExec("INSERT INTO APPLICATION_DB.APPLICATION_SCHEMA.ANNOUNCEMENTS").
		WithArgs(a.AnnouncementID, a.Type, a.Title, a.Message,
			"2026-08-01", "2026-08-31", a.Priority, a.Show).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewAnnouncementStore(db, testSchema)
	require.NoError(t, store.Save(a))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementStoreSaveValidation(t *testing.T) {
	store := NewAnnouncementStore(nil, testSchema)

	tests := []struct {
		name   string
		mutate func(*models.Announcement)
	}{
		{name: "unknown type", mutate: func(a *models.Announcement) { a.Type = "banner" }},
		{name: "empty title", mutate: func(a *models.Announcement) { a.Title = "" }},
		{name: "inverted window", mutate: func(a *models.Announcement) {
			a.EndDate = a.StartDate.AddDate(0, 0, -1)
		}},
		{name: "priority out of range", mutate: func(a *models.Announcement) { a.Priority = 4 }},
		{name: "priority zero", mutate: func(a *models.Announcement) { a.Priority = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAnnouncement()
			tt.mutate(&a)
			assert.Error(t, store.Save(a))
		})
	}
}

func TestAnnouncementStoreListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(announcementColumns).
		AddRow("a1", "warning", "High priority", "msg",
			now.AddDate(0, 0, -5), now.AddDate(0, 0, 5), 1, true, now, now).
		AddRow("a2", "info", "Low priority", "msg",
			now.AddDate(0, 0, -5), now.AddDate(0, 0, 5), 3, true, now, now)

	mock.ExpectQuery("WHERE show_flag = TRUE AND start_date <= .* AND end_date >= ").
		WithArgs("2026-08-15", "2026-08-15").
		WillReturnRows(rows)

	store := NewAnnouncementStore(db, testSchema)
	active, err := store.ListActive(now)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 1, active[0].Priority)
	assert.Equal(t, models.AnnouncementWarning, active[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementStoreToggleVisibility(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("SET show_flag = NOT show_flag").
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewAnnouncementStore(db, testSchema)
	require.NoError(t, store.ToggleVisibility("a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnnouncementStoreStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(announcementColumns).
		AddRow("a1", "info", "Active", "msg",
			now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), 2, true, now, now).
		AddRow("a2", "error", "Expired", "msg",
			now.AddDate(0, 0, -10), now.AddDate(0, 0, -5), 2, true, now, now).
		AddRow("a3", "info", "Hidden", "msg",
			now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), 2, false, now, now)

	mock.ExpectQuery("SELECT announcement_id").WillReturnRows(rows)

	store := NewAnnouncementStore(db, testSchema)
	stats, err := store.Stats(now)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Hidden)
	assert.Equal(t, 2, stats.ByType["info"])
	assert.Equal(t, 1, stats.ByType["error"])
}

func TestAnnouncementActiveOn(t *testing.T) {
	a := validAnnouncement()
	day := func(d int) time.Time { return time.Date(2026, 8, d, 10, 0, 0, 0, time.UTC) }

	assert.True(t, a.ActiveOn(day(1)))
	assert.True(t, a.ActiveOn(day(15)))
	assert.True(t, a.ActiveOn(day(31)))
	assert.False(t, a.ActiveOn(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, a.ActiveOn(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)))

	a.Show = false
	assert.False(t, a.ActiveOn(day(15)))
}

func TestAnnouncementActiveOnLocalTime(t *testing.T) {
	a := validAnnouncement()
	tokyo := time.FixedZone("JST", 9*60*60)

	// The first morning of the window falls on the previous day in UTC
	// but is still within the window.
	assert.True(t, a.ActiveOn(time.Date(a.StartDate.Year(), a.StartDate.Month(), a.StartDate.Day(), 1, 0, 0, 0, tokyo)))
	assert.True(t, a.ActiveOn(time.Date(a.EndDate.Year(), a.EndDate.Month(), a.EndDate.Day(), 23, 0, 0, 0, tokyo)))
	assert.False(t, a.ActiveOn(time.Date(a.EndDate.Year(), a.EndDate.Month(), a.EndDate.Day()+1, 1, 0, 0, 0, tokyo)))
}
