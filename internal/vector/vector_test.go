package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/cv-tailor/internal/types"
)

func TestMemoryStoreSearchRanksByOverlap(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Index(ctx, "backend", "Go PostgreSQL Kubernetes distributed systems backend services", nil))
	require.NoError(t, store.Index(ctx, "frontend", "React TypeScript CSS accessibility design systems", nil))

	matches, err := store.Search(ctx, "backend engineer Go PostgreSQL", 5, 0)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "backend", matches[0].DocumentID)
}

func TestMemoryStoreSearchThreshold(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Index(ctx, "doc", "haskell category theory", nil))

	matches, err := store.Search(ctx, "golang kubernetes", 5, 0.6)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryStoreIndexValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.Error(t, store.Index(ctx, "", "text", nil))
	assert.Error(t, store.Index(ctx, "doc", "   ", nil))
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Index(ctx, "doc", "some resume text", nil))
	require.NoError(t, store.Delete(ctx, "doc"))

	matches, err := store.Search(ctx, "some resume text", 5, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestResumeTextFlattensSections(t *testing.T) {
	text := ResumeText(&types.CanonicalResume{
		Basics: types.Basics{Name: "Jane Doe", Email: "jane@example.com", Summary: "Backend engineer"},
		Work: []types.Work{
			{Company: "Acme", Position: "Engineer", Highlights: []string{"Built the pipeline"}},
		},
		Skills: []types.Skill{{Name: "Languages", Keywords: []string{"Go", "SQL"}}},
	})

	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Engineer at Acme")
	assert.Contains(t, text, "Built the pipeline")
	assert.Contains(t, text, "Go, SQL")
}

func TestEmbedIsNormalized(t *testing.T) {
	vec := embed("go postgres kubernetes")
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}
