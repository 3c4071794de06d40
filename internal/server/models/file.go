// Package models defines server-side data models persisted in the database.
package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/scanvault/scanvault/internal/common"
)

// FileStatus is the scan lifecycle state of a file record.
type FileStatus string

const (
	// StatusScanning is the initial state: an upload URL has been issued and
	// the object is awaiting (or undergoing) the external scan.
	StatusScanning FileStatus = "SCANNING"
	// StatusClean is terminal: the scanner verified the object and it now
	// lives in the permanent bucket.
	StatusClean FileStatus = "CLEAN"
	// StatusThreatDetected is terminal: the scanner flagged the object and
	// removed it, or the object never arrived within the scan timeout.
	StatusThreatDetected FileStatus = "THREAT_DETECTED"
)

// Terminal reports whether the status can never change again.
func (s FileStatus) Terminal() bool {
	return s == StatusClean || s == StatusThreatDetected
}

// Transition returns the status that applying verdict to current yields,
// and whether a state change is allowed. A terminal current status admits
// no transition, so re-delivered or conflicting verdicts are no-ops.
func Transition(current, verdict FileStatus) (FileStatus, bool) {
	if current != StatusScanning {
		return current, false
	}
	if verdict != StatusClean && verdict != StatusThreatDetected {
		return current, false
	}
	return verdict, true
}

// ParseVerdict normalizes a scanner verdict string. Verdicts are accepted
// case-insensitively; anything other than CLEAN or THREAT_DETECTED is
// rejected with common.ErrorInvalidInput.
func ParseVerdict(s string) (FileStatus, error) {
	switch FileStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusClean:
		return StatusClean, nil
	case StatusThreatDetected:
		return StatusThreatDetected, nil
	default:
		return "", common.ErrorInvalidInput
	}
}

// storageKeyRe restricts keys to "owner-scope/segment" with a conservative
// character set, rejecting path traversal and injection attempts before any
// database lookup happens.
var storageKeyRe = regexp.MustCompile(`^[A-Za-z0-9_-]+/[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidStorageKey reports whether key matches the expected key space.
func ValidStorageKey(key string) bool {
	return storageKeyRe.MatchString(key)
}

// File describes server-side metadata for an uploaded object. The object
// itself lives in the quarantine bucket until the scanner clears it, then
// in the permanent bucket; both under the same StorageKey.
type File struct {
	// ID is the record identifier, assigned by the database.
	ID string
	// OwnerID is the user that requested the upload. Immutable.
	OwnerID string
	// StorageKey is the object key, unique across all records ever created.
	StorageKey string

	// Filename, ContentType and SizeBytes are descriptive metadata supplied
	// by the client at intent creation.
	Filename    string
	ContentType string
	SizeBytes   int64

	// Status is the scan lifecycle state. Only the verdict webhook and the
	// reconciliation sweeper ever change it, and only out of SCANNING.
	Status FileStatus

	// CreatedAt anchors the sweeper's grace-period and timeout computations.
	CreatedAt time.Time
}

// UploadIntent is returned to the client after a successful intent creation.
type UploadIntent struct {
	// URL is a presigned PUT into the quarantine bucket, valid for the
	// single StorageKey only.
	URL string
	// StorageKey of the pending object.
	StorageKey string
	// ExpiresInMinutes is the URL validity window.
	ExpiresInMinutes int
}
