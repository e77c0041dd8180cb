package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/db"
	"github.com/jonathan/cv-tailor/internal/types"
	"github.com/jonathan/cv-tailor/internal/vector"
)

func storedResume() *types.CanonicalResume {
	return &types.CanonicalResume{
		Basics: types.Basics{Name: "Jane Doe", Email: "jane@example.com"},
		Skills: []types.Skill{{Name: "Languages", Keywords: []string{"Go"}}},
	}
}

func newLocalStore(t *testing.T) db.ProfileStore {
	t.Helper()
	store, err := db.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestStoreProfilePersistsAndIndexes(t *testing.T) {
	store := newLocalStore(t)
	vectors := vector.NewMemoryStore()
	stage := New(store, vectors)
	ctx := context.Background()

	data, err := stage.Actions()[ActionStoreProfile](ctx, agent.Params{
		"resume":  storedResume(),
		"user_id": "user-1",
	})
	require.NoError(t, err)

	result := data.(*Result)
	assert.NotEmpty(t, result.ProfileID)
	assert.True(t, result.EmbeddingStored)
	assert.Empty(t, result.Warning)

	profile, err := store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Jane Doe", profile.Resume.Basics.Name)

	matches, err := vectors.Search(ctx, "Go engineer", 5, 0)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, result.ProfileID, matches[0].DocumentID)
}

type failingVectors struct{}

func (failingVectors) Index(context.Context, string, string, map[string]string) error {
	return fmt.Errorf("index unavailable")
}
func (failingVectors) Search(context.Context, string, int, float64) ([]vector.Match, error) {
	return nil, fmt.Errorf("index unavailable")
}
func (failingVectors) Delete(context.Context, string) error { return nil }

func TestStoreProfileEmbeddingFailureIsAWarning(t *testing.T) {
	stage := New(newLocalStore(t), failingVectors{})

	data, err := stage.Actions()[ActionStoreProfile](context.Background(), agent.Params{
		"resume":  storedResume(),
		"user_id": "user-1",
	})
	require.NoError(t, err)

	result := data.(*Result)
	assert.NotEmpty(t, result.ProfileID)
	assert.False(t, result.EmbeddingStored)
	assert.Contains(t, result.Warning, "embedding index update failed")
}

func TestStoreProfileWithoutVectorStore(t *testing.T) {
	stage := New(newLocalStore(t), nil)

	data, err := stage.Actions()[ActionStoreProfile](context.Background(), agent.Params{
		"resume":  storedResume(),
		"user_id": "user-1",
	})
	require.NoError(t, err)
	assert.False(t, data.(*Result).EmbeddingStored)
}

func TestStoreProfileMissingParams(t *testing.T) {
	stage := New(newLocalStore(t), nil)

	_, err := stage.Actions()[ActionStoreProfile](context.Background(), agent.Params{"resume": storedResume()})
	require.Error(t, err)
	assert.Equal(t, agent.KindAgentCommunication, agent.Classify(err))
}

func TestSearchSimilar(t *testing.T) {
	store := newLocalStore(t)
	vectors := vector.NewMemoryStore()
	stage := New(store, vectors)
	ctx := context.Background()

	data, err := stage.Actions()[ActionStoreProfile](ctx, agent.Params{
		"resume":  storedResume(),
		"user_id": "user-1",
	})
	require.NoError(t, err)
	profileID := data.(*Result).ProfileID

	found, err := stage.Actions()[ActionSearchSimilar](ctx, agent.Params{
		"query": "Go engineer",
		"top_k": 3,
	})
	require.NoError(t, err)

	matches := found.([]vector.Match)
	require.NotEmpty(t, matches)
	assert.Equal(t, profileID, matches[0].DocumentID)
}

func TestSearchSimilarWithoutVectorStore(t *testing.T) {
	stage := New(newLocalStore(t), nil)

	_, err := stage.Actions()[ActionSearchSimilar](context.Background(), agent.Params{"query": "Go"})
	require.Error(t, err)
	assert.Equal(t, agent.KindAgentCommunication, agent.Classify(err))
}

func TestSearchSimilarMissingQuery(t *testing.T) {
	stage := New(newLocalStore(t), vector.NewMemoryStore())

	_, err := stage.Actions()[ActionSearchSimilar](context.Background(), agent.Params{})
	require.Error(t, err)
	assert.Equal(t, agent.KindAgentCommunication, agent.Classify(err))
}

func TestSaveSession(t *testing.T) {
	store := newLocalStore(t)
	stage := New(store, nil)
	ctx := context.Background()

	record := &db.SessionRecord{
		UserID:     "user-1",
		Position:   "Backend Engineer",
		MatchScore: 75.0,
		Status:     db.SessionCompleted,
	}
	data, err := stage.Actions()[ActionSaveSession](ctx, agent.Params{"record": record})
	require.NoError(t, err)

	id, err := uuid.Parse(data.(string))
	require.NoError(t, err)

	loaded, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 75.0, loaded.MatchScore)
}
