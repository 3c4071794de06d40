package files

import (
	"context"
	"time"

	"github.com/scanvault/scanvault/internal/server/models"
)

// Repository is the single source of truth for file records. Status is
// never cached by callers; every read is a fresh lookup.
type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	GetByStorageKey(ctx context.Context, storageKey string) (*models.File, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	// UpdateStatusFromScanning applies status to the record identified by
	// storageKey only if it is still SCANNING (compare-and-set). It reports
	// whether a row actually changed, so callers can distinguish a repaired
	// record from a lost race against another writer.
	UpdateStatusFromScanning(ctx context.Context, storageKey string, status models.FileStatus) (bool, error)
	// SelectScanningBefore returns SCANNING records created before cutoff,
	// oldest first. Backed by the (status, created_at) index.
	SelectScanningBefore(ctx context.Context, cutoff time.Time) ([]*models.File, error)
	Delete(ctx context.Context, id string) error
}
