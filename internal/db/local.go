package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cv-tailor/internal/types"
)

// LocalStore implements ProfileStore on a JSON file directory. Profiles
// live under profiles/<user>.json and sessions under sessions/<id>.json.
type LocalStore struct {
	mu      sync.Mutex
	baseDir string
}

// NewLocalStore creates the storage directories if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	for _, sub := range []string{"profiles", "sessions"} {
		if err := os.MkdirAll(filepath.Join(baseDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (s *LocalStore) Close() {}

func (s *LocalStore) profilePath(userID string) string {
	return filepath.Join(s.baseDir, "profiles", sanitize(userID)+".json")
}

func (s *LocalStore) sessionPath(id uuid.UUID) string {
	return filepath.Join(s.baseDir, "sessions", id.String()+".json")
}

// sanitize keeps user IDs filesystem-safe.
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, id)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

func (s *LocalStore) SaveProfile(_ context.Context, userID string, resume *types.CanonicalResume) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	profile := &Profile{ID: uuid.New(), UserID: userID, Resume: resume, CreatedAt: now, UpdatedAt: now}

	if existing, err := s.readProfile(userID); err == nil && existing != nil {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	}
	if err := writeJSON(s.profilePath(userID), profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *LocalStore) GetProfile(_ context.Context, userID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readProfile(userID)
}

func (s *LocalStore) readProfile(userID string) (*Profile, error) {
	data, err := os.ReadFile(s.profilePath(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

func (s *LocalStore) SaveSession(_ context.Context, record *SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return writeJSON(s.sessionPath(record.ID), record)
}

func (s *LocalStore) GetSession(_ context.Context, id uuid.UUID) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.sessionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var record SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &record, nil
}

func (s *LocalStore) ListSessions(_ context.Context, userID string, limit int) ([]SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	entries, err := os.ReadDir(filepath.Join(s.baseDir, "sessions"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var records []SessionRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, "sessions", entry.Name()))
		if err != nil {
			continue
		}
		var record SessionRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		if record.UserID == userID {
			records = append(records, record)
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
