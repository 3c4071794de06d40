// Package files implements persistence for file records.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scanvault/scanvault/internal/common"
	"github.com/scanvault/scanvault/internal/dbx"
	"github.com/scanvault/scanvault/internal/server/models"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// filenameConstraint is the unique constraint on (owner_id, filename); it is
// the only violation a caller can trigger and the only one mapped to
// common.ErrorDuplicateName.
const filenameConstraint = "files_owner_filename_key"

// PostgresRepository implements file record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new record in SCANNING state and fills in the assigned
// id and created_at. A (owner_id, filename) unique violation is reported as
// common.ErrorDuplicateName.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (owner_id, storage_key, filename, content_type, size_bytes, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.OwnerID, file.StorageKey, file.Filename, file.ContentType, file.SizeBytes, file.Status).
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation &&
			pgErr.ConstraintName == filenameConstraint {
			return nil, common.ErrorDuplicateName
		}
		// Any other unique violation here is a storage_key collision, which
		// means the key derivation is broken; surface it as a plain db error.
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `
		SELECT id, owner_id, storage_key, filename, content_type, size_bytes, status, created_at
		FROM files WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByStorageKey(ctx context.Context, storageKey string) (*models.File, error) {
	query := `
		SELECT id, owner_id, storage_key, filename, content_type, size_bytes, status, created_at
		FROM files WHERE storage_key = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, storageKey))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.File, error) {
	item := &models.File{}
	err := row.Scan(&item.ID, &item.OwnerID, &item.StorageKey, &item.Filename,
		&item.ContentType, &item.SizeBytes, &item.Status, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// ListByOwner returns all records belonging to ownerID, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	query := `
		SELECT id, owner_id, storage_key, filename, content_type, size_bytes, status, created_at
		FROM files WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *PostgresRepository) scanAll(rows *sql.Rows) ([]*models.File, error) {
	var result []*models.File
	for rows.Next() {
		item := &models.File{}
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.StorageKey, &item.Filename,
			&item.ContentType, &item.SizeBytes, &item.Status, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE owner_id = $1`, ownerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// UpdateStatusFromScanning performs the conditional status transition.
// The WHERE clause pins the current status to SCANNING so a late writer
// can never flip a record that another path already resolved.
func (r *PostgresRepository) UpdateStatusFromScanning(ctx context.Context, storageKey string, status models.FileStatus) (bool, error) {
	query := `UPDATE files SET status = $1 WHERE storage_key = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, status, storageKey, models.StatusScanning)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra == 1, nil
}

func (r *PostgresRepository) SelectScanningBefore(ctx context.Context, cutoff time.Time) ([]*models.File, error) {
	query := `
		SELECT id, owner_id, storage_key, filename, content_type, size_bytes, status, created_at
		FROM files WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, models.StatusScanning, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// Delete removes the record. Exactly one row must be affected.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrorNotFound
	}
	return nil
}
