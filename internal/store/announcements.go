package store

import (
	"database/sql"
	"fmt"
	"time"

	"snowsearch/pkg/errors"
	"snowsearch/pkg/models"
)

// AnnouncementStore persists dashboard announcements
type AnnouncementStore struct {
	db     *sql.DB
	schema string
}

// AnnouncementStats summarizes the announcement table for the admin view
type AnnouncementStats struct {
	Total  int
	Active int
	Hidden int
	ByType map[string]int
}

// NewAnnouncementStore creates a store over the qualified application schema
func NewAnnouncementStore(db *sql.DB, schema string) *AnnouncementStore {
	return &AnnouncementStore{db: db, schema: schema}
}

func (s *AnnouncementStore) table() string {
	return s.schema + ".ANNOUNCEMENTS"
}

// Save inserts a new announcement
func (s *AnnouncementStore) Save(a models.Announcement) error {
	if err := validateAnnouncement(a); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (
	announcement_id, announcement_type, title, message,
	start_date, end_date, priority, show_flag
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, s.table())

	_, err := s.db.Exec(stmt,
		a.AnnouncementID, a.Type, a.Title, a.Message,
		a.StartDate.Format("2006-01-02"), a.EndDate.Format("2006-01-02"),
		a.Priority, a.Show,
	)
	if err != nil {
		return errors.SQLError("Failed to save announcement", stmt, err).
			WithContext("title", a.Title)
	}
	return nil
}

// Update rewrites an announcement's editable fields
func (s *AnnouncementStore) Update(a models.Announcement) error {
	if err := validateAnnouncement(a); err != nil {
		return err
	}

	stmt := fmt.Sprintf(`UPDATE %s
SET announcement_type = ?, title = ?, message = ?,
	start_date = ?, end_date = ?, priority = ?, show_flag = ?,
	updated_at = CURRENT_TIMESTAMP()
WHERE announcement_id = ?`, s.table())

	_, err := s.db.Exec(stmt,
		a.Type, a.Title, a.Message,
		a.StartDate.Format("2006-01-02"), a.EndDate.Format("2006-01-02"),
		a.Priority, a.Show, a.AnnouncementID,
	)
	if err != nil {
		return errors.SQLError("Failed to update announcement", stmt, err).
			WithContext("announcement_id", a.AnnouncementID)
	}
	return nil
}

// ToggleVisibility flips the show flag
func (s *AnnouncementStore) ToggleVisibility(announcementID string) error {
	stmt := fmt.Sprintf(`UPDATE %s
SET show_flag = NOT show_flag,
	updated_at = CURRENT_TIMESTAMP()
WHERE announcement_id = ?`, s.table())

	if _, err := s.db.Exec(stmt, announcementID); err != nil {
		return errors.SQLError("Failed to toggle announcement", stmt, err).
			WithContext("announcement_id", announcementID)
	}
	return nil
}

// Delete removes an announcement
func (s *AnnouncementStore) Delete(announcementID string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE announcement_id = ?", s.table())
	if _, err := s.db.Exec(stmt, announcementID); err != nil {
		return errors.SQLError("Failed to delete announcement", stmt, err).
			WithContext("announcement_id", announcementID)
	}
	return nil
}

// List returns all announcements ordered by priority then recency
func (s *AnnouncementStore) List() ([]models.Announcement, error) {
	stmt := fmt.Sprintf(`SELECT announcement_id, announcement_type, title, message,
	start_date, end_date, priority, show_flag, created_at, updated_at
FROM %s ORDER BY priority, created_at DESC`, s.table())

	return s.query(stmt)
}

// ListActive returns visible announcements whose display window covers the
// given day, ordered by priority then recency.
func (s *AnnouncementStore) ListActive(day time.Time) ([]models.Announcement, error) {
	stmt := fmt.Sprintf(`SELECT announcement_id, announcement_type, title, message,
	start_date, end_date, priority, show_flag, created_at, updated_at
FROM %s
WHERE show_flag = TRUE AND start_date <= ? AND end_date >= ?
ORDER BY priority, created_at DESC`, s.table())

	d := day.Format("2006-01-02")
	return s.query(stmt, d, d)
}

// Stats summarizes announcements for the admin view
func (s *AnnouncementStore) Stats(day time.Time) (*AnnouncementStats, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &AnnouncementStats{ByType: make(map[string]int)}
	for _, a := range all {
		stats.Total++
		stats.ByType[a.Type]++
		if a.ActiveOn(day) {
			stats.Active++
		}
		if !a.Show {
			stats.Hidden++
		}
	}
	return stats, nil
}

func (s *AnnouncementStore) query(stmt string, args ...interface{}) ([]models.Announcement, error) {
	rows, err := s.db.Query(stmt, args...)
	if err != nil {
		return nil, errors.SQLError("Failed to load announcements", stmt, err)
	}
	defer rows.Close()

	var announcements []models.Announcement
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(&a.AnnouncementID, &a.Type, &a.Title, &a.Message,
			&a.StartDate, &a.EndDate, &a.Priority, &a.Show,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

func validateAnnouncement(a models.Announcement) error {
	switch a.Type {
	case models.AnnouncementInfo, models.AnnouncementSuccess,
		models.AnnouncementWarning, models.AnnouncementError:
	default:
		return errors.ValidationError("type", a.Type, "unknown announcement type")
	}
	if a.Title == "" {
		return errors.ValidationError("title", a.Title, "title is required")
	}
	if a.EndDate.Before(a.StartDate) {
		return errors.ValidationError("end_date", a.EndDate,
			"end date must not be before start date")
	}
	if a.Priority < 1 || a.Priority > 3 {
		return errors.ValidationError("priority", a.Priority, "priority must be 1, 2 or 3")
	}
	return nil
}
