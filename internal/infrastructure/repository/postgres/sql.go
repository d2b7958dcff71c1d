package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolationCode
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optionalTime(value *time.Time) *time.Time {
	if value == nil || value.IsZero() {
		return nil
	}
	t := value.UTC()
	return &t
}

func affected(result sql.Result) (int64, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
