package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ailum-crm/ailum/internal/inbox"
)

func record(id string) inbox.MessageRecord {
	return inbox.MessageRecord{ID: id, EventType: "messages.upsert", Content: "msg " + id}
}

func TestAppendNewestFirst(t *testing.T) {
	store := NewStore(100)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "k", record("1")))
	require.NoError(t, store.Append(ctx, "k", record("2")))
	require.NoError(t, store.Append(ctx, "k", record("3")))

	got, err := store.List(ctx, "k")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
	assert.Equal(t, "1", got[2].ID)
}

func TestAppendTruncatesAtCap(t *testing.T) {
	store := NewStore(100)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		require.NoError(t, store.Append(ctx, "k", record(fmt.Sprintf("%d", i))))
	}

	got, err := store.List(ctx, "k")
	require.NoError(t, err)
	require.Len(t, got, 100)
	assert.Equal(t, "149", got[0].ID)
	assert.Equal(t, "50", got[99].ID)
}

func TestReplayedPayloadAppendsTwice(t *testing.T) {
	store := NewStore(100)
	ctx := context.Background()

	rec := record("same")
	require.NoError(t, store.Append(ctx, "k", rec))
	require.NoError(t, store.Append(ctx, "k", rec))

	got, err := store.List(ctx, "k")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestListUnknownKeyIsEmpty(t *testing.T) {
	store := NewStore(100)

	got, err := store.List(context.Background(), "nunca-vista")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKeysAreIsolated(t *testing.T) {
	store := NewStore(100)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "a", record("1")))
	require.NoError(t, store.Append(ctx, "b", record("2")))

	gotA, err := store.List(ctx, "a")
	require.NoError(t, err)
	gotB, err := store.List(ctx, "b")
	require.NoError(t, err)

	require.Len(t, gotA, 1)
	require.Len(t, gotB, 1)
	assert.Equal(t, "1", gotA[0].ID)
	assert.Equal(t, "2", gotB[0].ID)
}

func TestListReturnsSnapshot(t *testing.T) {
	store := NewStore(100)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "k", record("1")))
	got, err := store.List(ctx, "k")
	require.NoError(t, err)

	got[0].ID = "mutado"

	again, err := store.List(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1", again[0].ID)
}

func TestTokenHash(t *testing.T) {
	store := NewStore(100)
	ctx := context.Background()

	hash, err := store.TokenHash(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, hash)

	require.NoError(t, store.SetTokenHash(ctx, "k", "abc123"))

	hash, err = store.TokenHash(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc123", hash)
}
