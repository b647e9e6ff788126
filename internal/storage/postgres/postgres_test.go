package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"cashflow-lab/internal/storage"
)

func TestStorageError(t *testing.T) {
	assert.NoError(t, storageError("insert run", nil))

	dup := fmt.Errorf("batch: %w", &pgconn.PgError{Code: uniqueViolation})
	assert.ErrorIs(t, storageError("insert run", dup), storage.ErrDuplicateKey)

	assert.ErrorIs(t, storageError("get run by id", pgx.ErrNoRows), storage.ErrNotFound)

	other := &pgconn.PgError{Code: "23503"}
	err := storageError("insert snapshots in bulk", other)
	assert.EqualError(t, err, "insert snapshots in bulk: "+other.Error())
	assert.False(t, errors.Is(err, storage.ErrDuplicateKey))
}
