// Package db persists candidate profiles and tailoring session records.
// Two backends exist: PostgreSQL for shared deployments and a local JSON
// directory for single-user runs.
package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/cv-tailor/internal/types"
)

// Profile is a stored candidate profile.
type Profile struct {
	ID        uuid.UUID              `json:"id"`
	UserID    string                 `json:"user_id"`
	Resume    *types.CanonicalResume `json:"resume"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// Session statuses.
const (
	SessionRunning   = "running"
	SessionCompleted = "completed"
	SessionFailed    = "failed"
)

// SessionRecord captures one tailoring run: the job it targeted, the
// tailored resume and the outcome.
type SessionRecord struct {
	ID          uuid.UUID              `json:"id"`
	UserID      string                 `json:"user_id"`
	JobURL      string                 `json:"job_url,omitempty"`
	Position    string                 `json:"position,omitempty"`
	Company     string                 `json:"company,omitempty"`
	MatchScore  float64                `json:"match_score"`
	TemplateID  string                 `json:"template_id,omitempty"`
	Status      string                 `json:"status"`
	Resume      *types.CanonicalResume `json:"resume,omitempty"`
	Warnings    []string               `json:"warnings,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// ProfileStore is the persistence collaborator for the storage stage.
type ProfileStore interface {
	SaveProfile(ctx context.Context, userID string, resume *types.CanonicalResume) (*Profile, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	SaveSession(ctx context.Context, record *SessionRecord) error
	GetSession(ctx context.Context, id uuid.UUID) (*SessionRecord, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]SessionRecord, error)
	Close()
}
