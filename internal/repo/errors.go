package repo

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// UniqueError is returned when an insert or update hits a unique index.
// Field is the column name when it can be recovered from the driver error.
type UniqueError struct {
	Field string
	Err   error
}

func (e *UniqueError) Error() string {
	if e.Field == "" {
		return "unique violation: " + e.Err.Error()
	}
	return "unique violation on " + e.Field
}

func (e *UniqueError) Unwrap() []error { return []error{ErrConflict, e.Err} }

// ConflictField returns the column of a unique violation, or "".
func ConflictField(err error) string {
	var ue *UniqueError
	if errors.As(err, &ue) {
		return ue.Field
	}
	return ""
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if field, ok := uniqueViolation(err); ok {
		return &UniqueError{Field: field, Err: err}
	}
	return err
}

const sqliteUnique = "UNIQUE constraint failed: "

func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code != "23505" {
			return "", false
		}
		return fieldFromConstraint(pqErr.Constraint, pqErr.Detail), true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}

	// sqlite: "UNIQUE constraint failed: accounts.email (2067)"
	msg := err.Error()
	i := strings.Index(msg, sqliteUnique)
	if i < 0 {
		return "", false
	}
	rest := msg[i+len(sqliteUnique):]
	if j := strings.IndexAny(rest, " ,"); j >= 0 {
		rest = rest[:j]
	}
	if k := strings.LastIndexByte(rest, '.'); k >= 0 {
		rest = rest[k+1:]
	}
	return rest, true
}

// fieldFromConstraint handles gorm's idx_<table>_<column> index names and falls back to the
// "Key (column)=(value)" detail.
func fieldFromConstraint(constraint, detail string) string {
	for _, field := range []string{"email", "username", "jti"} {
		if strings.HasSuffix(constraint, "_"+field) {
			return field
		}
	}
	if strings.HasPrefix(detail, "Key (") {
		rest := detail[len("Key ("):]
		if j := strings.IndexByte(rest, ')'); j > 0 {
			return rest[:j]
		}
	}
	return ""
}
