package postgres

import "time"

// nullableTime maps the zero time to NULL so COALESCE can stamp now().
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
