package postgres

import (
	"database/sql"
	"strings"
	"time"
)

// isBindParameterMismatch reports whether err is the pq driver's "bind
// message supplies N parameters" error, which happens when a prepared
// statement built by sqlx is reused against a query with a different
// parameter count (seen under PgBouncer transaction pooling).
func isBindParameterMismatch(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "bind message supplies") &&
		strings.Contains(text, "parameters")
}

// isUnnamedPreparedStatementMissing reports whether err is Postgres
// error 26000, raised when a pooled connection drops a prepared
// statement out from under a later execution on the same session.
func isUnnamedPreparedStatementMissing(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "prepared statement") &&
		(strings.Contains(text, "does not exist") || strings.Contains(text, "26000"))
}

// quoteLiteral escapes a string for safe inclusion as a SQL literal,
// for the handful of fallback queries that interpolate rather than bind
// (the `to_jsonb(...)` projections used when prepared statements are
// unavailable).
func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// nullableUnix converts an optional time into a nullable Unix-seconds
// column value.
func nullableUnix(value *time.Time) *int64 {
	if value == nil || value.IsZero() {
		return nil
	}
	v := value.Unix()
	return &v
}

// nullUnixToTimePtr converts a nullable Unix-seconds column back into an
// optional time.
func nullUnixToTimePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	v := time.Unix(value.Int64, 0).UTC()
	return &v
}
