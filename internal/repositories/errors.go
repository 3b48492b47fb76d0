package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// notFound maps sql.ErrNoRows to the given sentinel and wraps other errors
func notFound(err error, sentinel error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
