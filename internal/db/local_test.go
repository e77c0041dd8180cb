package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-tailor/internal/types"
)

func testResume(name string) *types.CanonicalResume {
	return &types.CanonicalResume{
		Basics: types.Basics{Name: name, Email: "test@example.com"},
		Skills: []types.Skill{{Name: "Languages", Keywords: []string{"Go"}}},
	}
}

func TestLocalStoreProfileRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	saved, err := store.SaveProfile(ctx, "user-1", testResume("Jane Doe"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)

	loaded, err := store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Jane Doe", loaded.Resume.Basics.Name)
}

func TestLocalStoreProfileUpsertKeepsIdentity(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.SaveProfile(ctx, "user-1", testResume("Jane Doe"))
	require.NoError(t, err)

	second, err := store.SaveProfile(ctx, "user-1", testResume("Jane A. Doe"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	loaded, err := store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane A. Doe", loaded.Resume.Basics.Name)
}

func TestLocalStoreGetProfileMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	loaded, err := store.GetProfile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLocalStoreSessionRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	record := &SessionRecord{
		UserID:     "user-1",
		Position:   "Backend Engineer",
		Company:    "Acme",
		MatchScore: 83.3,
		Status:     SessionCompleted,
		Resume:     testResume("Jane Doe"),
		Warnings:   []string{"skills section replaced after validation failure"},
	}
	require.NoError(t, store.SaveSession(ctx, record))
	require.NotEqual(t, uuid.Nil, record.ID)

	loaded, err := store.GetSession(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 83.3, loaded.MatchScore)
	assert.Equal(t, SessionCompleted, loaded.Status)
	assert.Len(t, loaded.Warnings, 1)
}

func TestLocalStoreListSessionsOrdersAndFilters(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, user := range []string{"user-1", "user-1", "user-2"} {
		record := &SessionRecord{
			UserID:    user,
			Position:  "Role",
			Status:    SessionCompleted,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.SaveSession(ctx, record))
	}

	records, err := store.ListSessions(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, records[0].CreatedAt.After(records[1].CreatedAt))

	one, err := store.ListSessions(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}
