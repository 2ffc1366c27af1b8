// Package repository persists extraction sessions and leads in PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"leadgen_backend/internal/leadgen/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateSession(ctx context.Context, params domain.SearchParams, userID *string) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx, `
		INSERT INTO leadgen_sessions (user_id, params, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`, userID, raw, string(domain.StatusPending)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// UpdateSessionStatus only moves the status forward. Terminal rows are left
// untouched.
func (r *Repository) UpdateSessionStatus(ctx context.Context, id string, status domain.Status, errMsg string) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	var errValue *string
	if status == domain.StatusError && errMsg != "" {
		errValue = &errMsg
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE leadgen_sessions
		SET status = $2,
			error = COALESCE($3, error),
			finished_at = CASE WHEN $2 IN ('completed', 'error') THEN now() ELSE finished_at END,
			updated_at = now()
		WHERE id = $1 AND status NOT IN ('completed', 'error')
	`, sessionID, string(status), errValue)
	return err
}

func (r *Repository) AddProviders(ctx context.Context, id string, providerIDs []string) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	if len(providerIDs) == 0 {
		return nil
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE leadgen_sessions
		SET providers_used = ARRAY(
				SELECT DISTINCT unnest(providers_used || $2::text[])
			),
			updated_at = now()
		WHERE id = $1
	`, sessionID, providerIDs)
	return err
}

// AddLeads inserts leads in one batch. Leads already stored are skipped.
func (r *Repository) AddLeads(ctx context.Context, id string, leads []domain.Lead) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	if len(leads) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, lead := range leads {
		leadID, err := uuid.Parse(lead.ID)
		if err != nil {
			leadID = uuid.New()
		}
		batch.Queue(`
			INSERT INTO leadgen_leads (
				id, session_id, name, title, company, email, phone, location,
				source_platform, source_url, confidence_score, tags, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO NOTHING
		`,
			leadID,
			sessionID,
			lead.Name,
			lead.Title,
			lead.Company,
			lead.Email,
			lead.Phone,
			lead.Location,
			string(lead.SourcePlatform),
			lead.SourceURL,
			lead.ConfidenceScore,
			lead.Tags,
			lead.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range leads {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
