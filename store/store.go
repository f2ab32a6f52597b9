// Package store implements the append-only, logically-deleted record model
// every entity is built on. Records are keyed by (owner, version key); a
// version key is a millisecond-epoch timestamp minted at insert time. Records
// are never mutated in place: an edit tombstones the old version and inserts
// a new one under a fresh key.
package store

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateKey is returned when a Put would overwrite an existing version.
var ErrDuplicateKey = errors.New("version key already exists")

// Meta is the common header embedded in every versioned record.
type Meta struct {
	OwnerID   string `bson:"owner_id" json:"ownerId"`
	CreatedAt string `bson:"created_at" json:"createdAt"`
	Deleted   bool   `bson:"deleted" json:"deleted"`
}

// NewMeta builds the header for a fresh, active record version.
func NewMeta(ownerID, versionKey string) Meta {
	return Meta{OwnerID: ownerID, CreatedAt: versionKey}
}

func (m *Meta) RecordOwner() string     { return m.OwnerID }
func (m *Meta) RecordKey() string       { return m.CreatedAt }
func (m *Meta) RecordDeleted() bool     { return m.Deleted }
func (m *Meta) SetRecordDeleted(d bool) { m.Deleted = d }

// Record is satisfied by a pointer to any struct embedding Meta.
type Record interface {
	RecordOwner() string
	RecordKey() string
	RecordDeleted() bool
	SetRecordDeleted(bool)
}

// RecordPtr constrains a type parameter to "pointer to T that is a Record".
type RecordPtr[T any] interface {
	*T
	Record
}

// Records is the store contract shared by the Mongo implementation and the
// in-memory one used in tests.
type Records[R Record] interface {
	// Put inserts a new version. It never overwrites: inserting an
	// existing (owner, key) pair fails with ErrDuplicateKey.
	Put(ctx context.Context, rec R) error
	// QueryActive returns all non-deleted versions for an owner, newest first.
	QueryActive(ctx context.Context, ownerID string) ([]R, error)
	// GetExact fetches one version, deleted or not.
	GetExact(ctx context.Context, ownerID, versionKey string) (R, error)
	// Latest returns the newest active version, or ErrNotFound.
	Latest(ctx context.Context, ownerID string) (R, error)
	// MarkDeleted flips the tombstone flag. Marking an already-deleted
	// version is a no-op; an unknown key is ErrNotFound.
	MarkDeleted(ctx context.Context, ownerID, versionKey string) error
	// Update rewrites a version under its existing key. Reserved for the
	// single terminal transition of job records; versioned entities go
	// through Replace instead.
	Update(ctx context.Context, rec R) error
}

// Replace tombstones the old version and inserts the new one. The two steps
// are not atomic: a concurrent reader may briefly see both versions, and if
// the Put fails after the MarkDeleted succeeded the entity is left with zero
// active versions until a later corrective write.
func Replace[R Record](ctx context.Context, s Records[R], old, fresh R) error {
	if err := s.MarkDeleted(ctx, old.RecordOwner(), old.RecordKey()); err != nil {
		return err
	}
	return s.Put(ctx, fresh)
}

// ReplaceActive tombstones every active version for the owner, then inserts
// the new one. Used for single-active entities (profile, weather snapshot).
// Same non-atomicity caveat as Replace.
func ReplaceActive[R Record](ctx context.Context, s Records[R], fresh R) error {
	active, err := s.QueryActive(ctx, fresh.RecordOwner())
	if err != nil {
		return err
	}
	for _, rec := range active {
		if err := s.MarkDeleted(ctx, rec.RecordOwner(), rec.RecordKey()); err != nil {
			return err
		}
	}
	return s.Put(ctx, fresh)
}

var (
	keyMu   sync.Mutex
	lastKey int64
)

// NewVersionKey mints a millisecond-epoch version key, strictly increasing
// within the process so two records minted in the same millisecond cannot
// collide.
func NewVersionKey() string {
	keyMu.Lock()
	defer keyMu.Unlock()
	k := time.Now().UnixMilli()
	if k <= lastKey {
		k = lastKey + 1
	}
	lastKey = k
	return strconv.FormatInt(k, 10)
}
