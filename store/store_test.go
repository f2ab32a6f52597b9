package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// note is a minimal versioned record for exercising the store contract.
type note struct {
	Meta `bson:",inline"`
	Body string `bson:"body"`
}

func newNote(owner, key, body string) *note {
	return &note{Meta: NewMeta(owner, key), Body: body}
}

func TestPutAndQueryActiveNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[note, *note]()

	require.NoError(t, s.Put(ctx, newNote("u1", "100", "first")))
	require.NoError(t, s.Put(ctx, newNote("u1", "300", "third")))
	require.NoError(t, s.Put(ctx, newNote("u1", "200", "second")))
	require.NoError(t, s.Put(ctx, newNote("u2", "150", "other owner")))

	recs, err := s.QueryActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "third", recs[0].Body)
	assert.Equal(t, "second", recs[1].Body)
	assert.Equal(t, "first", recs[2].Body)
}

func TestPutDuplicateKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[note, *note]()

	require.NoError(t, s.Put(ctx, newNote("u1", "100", "a")))
	err := s.Put(ctx, newNote("u1", "100", "b"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// Same key under a different owner is fine.
	assert.NoError(t, s.Put(ctx, newNote("u2", "100", "c")))
}

func TestMarkDeleted(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[note, *note]()

	require.NoError(t, s.Put(ctx, newNote("u1", "100", "a")))
	require.NoError(t, s.MarkDeleted(ctx, "u1", "100"))

	recs, err := s.QueryActive(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, recs)

	// Tombstoned records stay readable by exact key.
	rec, err := s.GetExact(ctx, "u1", "100")
	require.NoError(t, err)
	assert.True(t, rec.RecordDeleted())
	assert.Equal(t, "a", rec.Body)

	// Deleting again is a no-op, not an error.
	assert.NoError(t, s.MarkDeleted(ctx, "u1", "100"))

	// Unknown keys are reported.
	assert.ErrorIs(t, s.MarkDeleted(ctx, "u1", "999"), ErrNotFound)
	assert.ErrorIs(t, s.MarkDeleted(ctx, "nobody", "100"), ErrNotFound)
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[note, *note]()

	_, err := s.Latest(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, newNote("u1", "100", "old")))
	require.NoError(t, s.Put(ctx, newNote("u1", "200", "new")))

	rec, err := s.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", rec.Body)

	// Deleting the newest version surfaces the previous one.
	require.NoError(t, s.MarkDeleted(ctx, "u1", "200"))
	rec, err = s.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "old", rec.Body)
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[note, *note]()

	old := newNote("u1", "100", "v1")
	require.NoError(t, s.Put(ctx, old))

	fresh := newNote("u1", "200", "v2")
	require.NoError(t, Replace[*note](ctx, s, old, fresh))

	recs, err := s.QueryActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "v2", recs[0].Body)

	// The old version survives as a tombstone.
	rec, err := s.GetExact(ctx, "u1", "100")
	require.NoError(t, err)
	assert.True(t, rec.RecordDeleted())
}

func TestReplaceActive(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[note, *note]()

	require.NoError(t, s.Put(ctx, newNote("u1", "100", "a")))
	require.NoError(t, s.Put(ctx, newNote("u1", "200", "b")))

	require.NoError(t, ReplaceActive[*note](ctx, s, newNote("u1", "300", "c")))

	recs, err := s.QueryActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "c", recs[0].Body)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[note, *note]()

	assert.ErrorIs(t, s.Update(ctx, newNote("u1", "100", "x")), ErrNotFound)

	require.NoError(t, s.Put(ctx, newNote("u1", "100", "before")))
	require.NoError(t, s.Update(ctx, newNote("u1", "100", "after")))

	rec, err := s.GetExact(ctx, "u1", "100")
	require.NoError(t, err)
	assert.Equal(t, "after", rec.Body)
}

func TestGetExactIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory[note, *note]()

	require.NoError(t, s.Put(ctx, newNote("u1", "100", "stored")))

	rec, err := s.GetExact(ctx, "u1", "100")
	require.NoError(t, err)
	rec.Body = "mutated by caller"

	again, err := s.GetExact(ctx, "u1", "100")
	require.NoError(t, err)
	assert.Equal(t, "stored", again.Body)
}

func TestNewVersionKeyMonotonic(t *testing.T) {
	prev := NewVersionKey()
	for i := 0; i < 100; i++ {
		next := NewVersionKey()
		assert.True(t, next > prev, "keys must be strictly increasing: %s then %s", prev, next)
		prev = next
	}
}
