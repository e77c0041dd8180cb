package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/cv-tailor/internal/types"
)

// PostgresStore implements ProfileStore on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveProfile upserts the profile for a user. One profile per user; a
// re-ingested CV replaces the previous resume.
func (s *PostgresStore) SaveProfile(ctx context.Context, userID string, resume *types.CanonicalResume) (*Profile, error) {
	doc, err := json.Marshal(resume)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume: %w", err)
	}

	profile := &Profile{UserID: userID, Resume: resume}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO profiles (user_id, resume)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET resume = $2, updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		userID, doc,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil
}

// GetProfile returns the stored profile for a user, or nil when none
// exists.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var profile Profile
	var doc []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, resume, created_at, updated_at FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&profile.ID, &profile.UserID, &doc, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.Resume = &types.CanonicalResume{}
	if err := json.Unmarshal(doc, profile.Resume); err != nil {
		return nil, fmt.Errorf("failed to decode stored resume: %w", err)
	}
	return &profile, nil
}

// SaveSession upserts a session record.
func (s *PostgresStore) SaveSession(ctx context.Context, record *SessionRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	var doc []byte
	if record.Resume != nil {
		var err error
		doc, err = json.Marshal(record.Resume)
		if err != nil {
			return fmt.Errorf("failed to marshal session resume: %w", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, job_url, position, company, match_score, template_id, status, resume, warnings, created_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO UPDATE SET
		   match_score = $6, template_id = $7, status = $8, resume = $9, warnings = $10, completed_at = $12`,
		record.ID, record.UserID, record.JobURL, record.Position, record.Company,
		record.MatchScore, record.TemplateID, record.Status, doc, record.Warnings,
		record.CreatedAt, record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession returns a session record by ID, or nil when not found.
func (s *PostgresStore) GetSession(ctx context.Context, id uuid.UUID) (*SessionRecord, error) {
	record, err := scanSession(s.pool.QueryRow(ctx,
		`SELECT id, user_id, job_url, position, company, match_score, template_id, status, resume, warnings, created_at, completed_at
		 FROM sessions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return record, nil
}

// ListSessions returns the most recent sessions for a user.
func (s *PostgresStore) ListSessions(ctx context.Context, userID string, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, job_url, position, company, match_score, template_id, status, resume, warnings, created_at, completed_at
		 FROM sessions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func scanSession(row pgx.Row) (*SessionRecord, error) {
	var record SessionRecord
	var doc []byte
	if err := row.Scan(&record.ID, &record.UserID, &record.JobURL, &record.Position, &record.Company,
		&record.MatchScore, &record.TemplateID, &record.Status, &doc, &record.Warnings,
		&record.CreatedAt, &record.CompletedAt); err != nil {
		return nil, err
	}
	if len(doc) > 0 {
		record.Resume = &types.CanonicalResume{}
		if err := json.Unmarshal(doc, record.Resume); err != nil {
			return nil, fmt.Errorf("failed to decode session resume: %w", err)
		}
	}
	return &record, nil
}
