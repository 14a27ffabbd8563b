package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/desk-booking/internal/calendar"
)

// Timestamps are stored as RFC 3339 text at second precision so that string
// comparison in SQL matches chronological order.
const timestampLayout = time.RFC3339

func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timestampLayout)
}

func parseTimestamp(column, value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := parseTimestamp("timestamp", value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDate(column, value string) (calendar.Date, error) {
	d, err := calendar.Parse(value)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return d, nil
}

func nullableString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func dateArgs(dates []calendar.Date) []any {
	args := make([]any, len(dates))
	for i, d := range dates {
		args[i] = d.String()
	}
	return args
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
