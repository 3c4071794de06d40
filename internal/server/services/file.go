// Package services contains server-side business logic. This file implements
// FileService, which drives the upload lifecycle: issuing upload intents,
// applying scanner verdicts, and minting download URLs for verified files.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scanvault/scanvault/internal/common"
	"github.com/scanvault/scanvault/internal/dbx"
	"github.com/scanvault/scanvault/internal/logging"
	"github.com/scanvault/scanvault/internal/server/config"
	"github.com/scanvault/scanvault/internal/server/models"
	"github.com/scanvault/scanvault/internal/server/repositories/repomanager"
	"github.com/scanvault/scanvault/internal/server/storage"
)

// allowedContentTypes and allowedExtensions define the accepted media types.
// An upload must pass both checks, and the extension must belong to the
// declared content type.
var allowedContentTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
	"image/bmp":  {".bmp"},
}

// FileService owns all mutations of file records after creation time
// (together with the sweeper, which goes through the same repository).
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	config      *config.Config
	logger      logging.Logger
}

// NewFileService constructs a FileService using repositories, the object
// store, and server config.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, l logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		store:       store,
		config:      cfg,
		logger:      l,
	}
}

// FileWithDownload bundles record metadata with an optional download URL.
// URL is empty unless the record is CLEAN.
type FileWithDownload struct {
	File             *models.File
	DownloadURL      string
	ExpiresInMinutes int
}

// makeStorageKey derives an owner-scoped object key that two concurrent
// requests can never collide on: nanosecond timestamp plus a random UUID
// suffix, with the original extension preserved for the scanner.
func makeStorageKey(ownerID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%d-%s%s", ownerID, time.Now().UnixNano(), uuid.New(), ext)
}

// validateFileType checks the declared content type against the allow-list
// and requires a matching filename extension.
func validateFileType(filename, contentType string) error {
	exts, ok := allowedContentTypes[strings.ToLower(contentType)]
	if !ok {
		return fmt.Errorf("%w: unsupported content type %q", common.ErrorInvalidInput, contentType)
	}
	ext := strings.ToLower(path.Ext(filename))
	for _, allowed := range exts {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: extension %q does not match content type %q", common.ErrorInvalidInput, ext, contentType)
}

// CreateUploadIntent validates the request, persists a SCANNING record, and
// mints a presigned PUT into the quarantine area.
//
// Ordering matters: the duplicate and quota checks happen before the record
// insert and the insert before the presign, so a failed mint never leaks a
// usable capability for an unknown record. If the mint fails, the record is
// removed again and the caller sees ErrorBackendUnavailable.
func (s *FileService) CreateUploadIntent(ctx context.Context, ownerID, filename, contentType string, sizeBytes int64) (*models.UploadIntent, error) {
	if filename == "" || strings.ContainsAny(filename, "/\\") {
		return nil, fmt.Errorf("%w: invalid filename", common.ErrorInvalidInput)
	}
	if sizeBytes < 0 {
		return nil, fmt.Errorf("%w: negative size", common.ErrorInvalidInput)
	}
	if err := validateFileType(filename, contentType); err != nil {
		return nil, err
	}

	repo := s.repomanager.Files(s.db)

	count, err := repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: counting records: %v", common.ErrorBackendUnavailable, err)
	}
	if count >= s.config.MaxFilesPerOwner {
		return nil, common.ErrorQuotaExceeded
	}

	file := &models.File{
		OwnerID:     ownerID,
		StorageKey:  makeStorageKey(ownerID, filename),
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		Status:      models.StatusScanning,
	}

	file, err = repo.Create(ctx, file)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateName) {
			return nil, common.ErrorDuplicateName
		}
		return nil, fmt.Errorf("%w: creating record: %v", common.ErrorBackendUnavailable, err)
	}

	url, err := s.store.PresignPut(ctx, storage.AreaQuarantine, file.StorageKey, s.config.UploadURLValidity)
	if err != nil {
		// No orphan records: the intent is create+mint as a unit.
		if delErr := repo.Delete(ctx, file.ID); delErr != nil {
			return nil, fmt.Errorf("%w: presign failed (%v), cleanup failed: %v", common.ErrorBackendUnavailable, err, delErr)
		}
		return nil, fmt.Errorf("%w: minting upload URL: %v", common.ErrorBackendUnavailable, err)
	}

	return &models.UploadIntent{
		URL:              url,
		StorageKey:       file.StorageKey,
		ExpiresInMinutes: int(s.config.UploadURLValidity.Minutes()),
	}, nil
}

// ApplyVerdict records a scanner verdict for the object under storageKey.
//
// The scanner has already relocated (CLEAN) or deleted (THREAT_DETECTED)
// the object before notifying; only the record changes here. Re-delivered
// verdicts, and verdicts racing the sweeper, are no-ops once the record is
// terminal: the update is a compare-and-set against SCANNING.
func (s *FileService) ApplyVerdict(ctx context.Context, storageKey string, verdict models.FileStatus) error {
	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByStorageKey(ctx, storageKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("%w: looking up record: %v", common.ErrorBackendUnavailable, err)
	}

	if _, ok := models.Transition(file.Status, verdict); !ok {
		// Terminal already; idempotent success.
		return nil
	}

	if _, err := repo.UpdateStatusFromScanning(ctx, storageKey, verdict); err != nil {
		return fmt.Errorf("%w: updating status: %v", common.ErrorBackendUnavailable, err)
	}
	// A CAS miss means another writer resolved the record between our read
	// and the update; that is the same no-op case as above.

	return nil
}

// GetWithDownloadURL returns record metadata for requesterID's own record,
// attaching a presigned GET from the permanent area only when the record
// is CLEAN. A SCANNING or THREAT_DETECTED record is not an error; it simply
// has no download path.
func (s *FileService) GetWithDownloadURL(ctx context.Context, recordID, requesterID string) (*FileWithDownload, error) {
	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: looking up record: %v", common.ErrorBackendUnavailable, err)
	}

	if file.OwnerID != requesterID {
		return nil, common.ErrorForbidden
	}

	result := &FileWithDownload{File: file}
	if file.Status != models.StatusClean {
		return result, nil
	}

	url, err := s.store.PresignGet(ctx, storage.AreaPermanent, file.StorageKey, s.config.DownloadURLValidity)
	if err != nil {
		return nil, fmt.Errorf("%w: minting download URL: %v", common.ErrorBackendUnavailable, err)
	}
	result.DownloadURL = url
	result.ExpiresInMinutes = int(s.config.DownloadURLValidity.Minutes())

	return result, nil
}

// List returns all records owned by ownerID, newest first.
func (s *FileService) List(ctx context.Context, ownerID string) ([]*models.File, error) {
	files, err := s.repomanager.Files(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing records: %v", common.ErrorBackendUnavailable, err)
	}
	return files, nil
}

// Delete removes requesterID's record and its backing object. The lookup,
// ownership check and record delete run in one transaction so a concurrent
// verdict cannot slip between them; the object is then removed best-effort
// from whichever area held it at commit time.
func (s *FileService) Delete(ctx context.Context, recordID, requesterID string) error {
	var file *models.File

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Files(tx)

		var err error
		file, err = repo.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if file.OwnerID != requesterID {
			return common.ErrorForbidden
		}
		return repo.Delete(ctx, file.ID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorForbidden) {
			return err
		}
		return fmt.Errorf("%w: deleting record: %v", common.ErrorBackendUnavailable, err)
	}

	area := storage.AreaQuarantine
	if file.Status == models.StatusClean {
		area = storage.AreaPermanent
	}
	if err := s.store.Delete(ctx, area, file.StorageKey); err != nil {
		// A dangling object is preferable to a record the owner cannot get
		// rid of.
		s.logger.Warn(ctx, "object delete failed", "key", file.StorageKey, "area", string(area), "error", err)
	}

	return nil
}
