package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, 0), mr
}

func TestGetMissingReturnsInitialSession(t *testing.T) {
	store, _ := newTestStore(t)

	sess, err := store.Get(context.Background(), "919876543210")
	require.NoError(t, err)
	assert.Equal(t, StateMenu, sess.State)
	assert.True(t, sess.Draft.Empty())
	assert.Equal(t, "919876543210", sess.Identity)
}

func TestPutGetRoundTripsDraft(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	in := Session{
		Identity: "919876543210",
		State:    StateSelectTime,
		Draft: Draft{
			Name:            "Asha",
			Services:        []string{"1", "3"},
			Total:           230,
			AdvanceRequired: 0,
			Date:            "2026-09-01",
			DateLabel:       "Tomorrow",
			AvailableSlots:  []string{"10:00 AM", "11:00 AM"},
		},
	}
	require.NoError(t, store.Put(ctx, in))

	out, err := store.Get(ctx, "919876543210")
	require.NoError(t, err)
	assert.Equal(t, in.State, out.State)
	assert.Equal(t, in.Draft, out.Draft)
	assert.False(t, out.UpdatedAt.IsZero())
}

func TestGetCorruptSnapshotFallsBackToMenu(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("session:badguy", "{not json"))

	sess, err := store.Get(context.Background(), "badguy")
	require.NoError(t, err)
	assert.Equal(t, StateMenu, sess.State)
	assert.True(t, sess.Draft.Empty())
}

func TestGetUnknownStateResets(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set("session:x", `{"identity":"x","state":"haircut_limbo","draft":{"name":"A"}}`))

	sess, err := store.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, StateMenu, sess.State)
	assert.True(t, sess.Draft.Empty())
}

func TestResetDeletesSnapshot(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, Session{Identity: "a", State: StateGetName}))
	require.NoError(t, store.Reset(ctx, "a"))
	assert.False(t, mr.Exists("session:a"))
}

func TestTTLApplied(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewStore(rdb, time.Hour)

	require.NoError(t, store.Put(context.Background(), New("a")))
	assert.Equal(t, time.Hour, mr.TTL("session:a"))
}
