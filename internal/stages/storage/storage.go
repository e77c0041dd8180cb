// Package storage implements the fourth stage: persisting the canonical
// profile and, when an embedding store is configured, a vector index entry
// for semantic lookup. Embedding failure degrades to exact-match storage
// with a warning; it never fails the stage.
package storage

import (
	"context"

	"github.com/jonathan/cv-tailor/internal/agent"
	"github.com/jonathan/cv-tailor/internal/db"
	"github.com/jonathan/cv-tailor/internal/types"
	"github.com/jonathan/cv-tailor/internal/vector"
)

// Stage actions.
const (
	ActionStoreProfile  = "store_profile"
	ActionSaveSession   = "save_session"
	ActionSearchSimilar = "search_similar"
)

// defaultTopK bounds similarity search results when no top_k param is given.
const defaultTopK = 5

// Result is the storage stage output.
type Result struct {
	ProfileID       string `json:"profileId"`
	EmbeddingStored bool   `json:"embeddingStored"`
	Warning         string `json:"warning,omitempty"`
}

// Stage wraps the profile store and the optional vector index.
type Stage struct {
	store   db.ProfileStore
	vectors vector.Store
}

// New builds the stage. vectors may be nil; storage then degrades to
// exact-match lookup only.
func New(store db.ProfileStore, vectors vector.Store) *Stage {
	return &Stage{store: store, vectors: vectors}
}

func (s *Stage) Name() agent.StageName { return agent.StageStorage }

func (s *Stage) Actions() map[string]agent.Handler {
	return map[string]agent.Handler{
		ActionStoreProfile:  s.storeProfile,
		ActionSaveSession:   s.saveSession,
		ActionSearchSimilar: s.searchSimilar,
	}
}

func (s *Stage) storeProfile(ctx context.Context, params agent.Params) (any, error) {
	resume, ok := params["resume"].(*types.CanonicalResume)
	if !ok || resume == nil {
		return nil, agent.Errorf(agent.KindAgentCommunication, "store_profile requires a resume param")
	}
	userID, ok := params["user_id"].(string)
	if !ok || userID == "" {
		return nil, agent.Errorf(agent.KindAgentCommunication, "store_profile requires a user_id param")
	}

	profile, err := s.store.SaveProfile(ctx, userID, resume)
	if err != nil {
		return nil, agent.Errorf(agent.KindNetwork, "saving profile: %v", err)
	}

	result := &Result{ProfileID: profile.ID.String()}
	if s.vectors == nil {
		return result, nil
	}

	metadata := map[string]string{"user_id": userID, "name": resume.Basics.Name}
	if err := s.vectors.Index(ctx, profile.ID.String(), vector.ResumeText(resume), metadata); err != nil {
		result.Warning = "embedding index update failed, profile stored without semantic search: " + err.Error()
	} else {
		result.EmbeddingStored = true
	}
	return result, nil
}

func (s *Stage) searchSimilar(ctx context.Context, params agent.Params) (any, error) {
	query, ok := params["query"].(string)
	if !ok || query == "" {
		return nil, agent.Errorf(agent.KindAgentCommunication, "search_similar requires a query param")
	}
	if s.vectors == nil {
		return nil, agent.Errorf(agent.KindAgentCommunication, "no embedding store is configured")
	}

	topK := defaultTopK
	if k, ok := params["top_k"].(int); ok && k > 0 {
		topK = k
	}

	matches, err := s.vectors.Search(ctx, query, topK, 0)
	if err != nil {
		return nil, agent.Errorf(agent.KindNetwork, "searching embeddings: %v", err)
	}
	return matches, nil
}

func (s *Stage) saveSession(ctx context.Context, params agent.Params) (any, error) {
	record, ok := params["record"].(*db.SessionRecord)
	if !ok || record == nil {
		return nil, agent.Errorf(agent.KindAgentCommunication, "save_session requires a record param")
	}
	if err := s.store.SaveSession(ctx, record); err != nil {
		return nil, agent.Errorf(agent.KindNetwork, "saving session record: %v", err)
	}
	return record.ID.String(), nil
}
