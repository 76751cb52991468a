package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// mapNoRows converts sql.ErrNoRows into the package's own ErrNotFound so
// callers outside this package never need to import database/sql to
// check for a missing row.
func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("query: %w", err)
}
