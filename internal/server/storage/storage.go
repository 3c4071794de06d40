// Package storage defines the object-store capability used by the upload
// lifecycle: presigned single-key write/read URLs plus existence, move and
// delete operations scoped to the quarantine and permanent areas.
package storage

import (
	"context"
	"time"
)

// Area is a logical storage location. Unverified uploads land in quarantine;
// the external scanner relocates verified objects to the permanent area.
type Area string

const (
	AreaQuarantine Area = "quarantine"
	AreaPermanent  Area = "permanent"
)

// ObjectStore is the minimal contract the upload lifecycle needs from an
// object store. Production uses S3; tests use the in-memory implementation.
type ObjectStore interface {
	// PresignPut mints a write-only, single-key, time-bounded URL into area.
	PresignPut(ctx context.Context, area Area, key string, ttl time.Duration) (string, error)
	// PresignGet mints a read-only, single-key, time-bounded URL into area.
	PresignGet(ctx context.Context, area Area, key string, ttl time.Duration) (string, error)
	// Exists reports whether an object is present under key in area.
	Exists(ctx context.Context, area Area, key string) (bool, error)
	// Move relocates an object between areas (copy, then delete source).
	Move(ctx context.Context, key string, from, to Area) error
	// Delete removes the object under key from area.
	Delete(ctx context.Context, area Area, key string) error
}
