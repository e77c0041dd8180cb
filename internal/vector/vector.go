// Package vector provides semantic indexing of stored profiles so past
// CVs can be found by job-description similarity. The storage stage treats
// indexing failures as warnings, never as session failures.
package vector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/jonathan/cv-tailor/internal/types"
)

// Match is one similarity search hit.
type Match struct {
	DocumentID string
	Score      float64
	Metadata   map[string]string
}

// Store indexes documents by text and searches them by query similarity.
type Store interface {
	Index(ctx context.Context, documentID, text string, metadata map[string]string) error
	Search(ctx context.Context, query string, topK int, threshold float64) ([]Match, error)
	Delete(ctx context.Context, documentID string) error
}

const embeddingDims = 256

var tokenPattern = regexp.MustCompile(`[a-z0-9+#.]+`)

// embed hashes lowercased tokens into a fixed-size frequency vector and
// L2-normalizes it. Deterministic and dependency-free; cosine similarity
// over it approximates lexical overlap.
func embed(text string) []float64 {
	vec := make([]float64, embeddingDims)
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%embeddingDims]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func cosine(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}

type document struct {
	embedding []float64
	metadata  map[string]string
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]document)}
}

func (s *MemoryStore) Index(_ context.Context, documentID, text string, metadata map[string]string) error {
	if documentID == "" {
		return fmt.Errorf("document ID is required")
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("document text is empty")
	}
	s.mu.Lock()
	s.docs[documentID] = document{embedding: embed(text), metadata: metadata}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Search(_ context.Context, query string, topK int, threshold float64) ([]Match, error) {
	if topK <= 0 {
		topK = 5
	}
	queryVec := embed(query)

	s.mu.RLock()
	var matches []Match
	for id, doc := range s.docs {
		if score := cosine(queryVec, doc.embedding); score >= threshold {
			matches = append(matches, Match{DocumentID: id, Score: score, Metadata: doc.metadata})
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MemoryStore) Delete(_ context.Context, documentID string) error {
	s.mu.Lock()
	delete(s.docs, documentID)
	s.mu.Unlock()
	return nil
}

// ResumeText flattens a resume into the text representation used for
// embedding.
func ResumeText(r *types.CanonicalResume) string {
	var parts []string
	if r.Basics.Name != "" {
		parts = append(parts, "Name: "+r.Basics.Name)
	}
	if r.Basics.Summary != "" {
		parts = append(parts, "Summary: "+r.Basics.Summary)
	}
	for _, w := range r.Work {
		parts = append(parts, fmt.Sprintf("Position: %s at %s", w.Position, w.Company))
		if w.Description != "" {
			parts = append(parts, w.Description)
		}
		parts = append(parts, w.Highlights...)
	}
	for _, e := range r.Education {
		parts = append(parts, fmt.Sprintf("Education: %s in %s from %s", e.StudyType, e.Area, e.Institution))
	}
	for _, s := range r.Skills {
		parts = append(parts, fmt.Sprintf("Skills: %s: %s", s.Name, strings.Join(s.Keywords, ", ")))
	}
	for _, p := range r.Projects {
		parts = append(parts, "Project: "+p.Name)
		parts = append(parts, p.Description...)
	}
	return strings.Join(parts, "\n")
}
