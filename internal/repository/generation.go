package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/prismai/prismai/internal/model"
)

// CreateGeneration stores the output references of a successful image
// generation. Best-effort: callers log and continue on failure.
func (r *Repository) CreateGeneration(ctx context.Context, gen *model.Generation) error {
	query := `
		INSERT INTO generations (id, user_id, endpoint, image_urls, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		gen.ID,
		gen.UserID,
		gen.Endpoint,
		pq.Array(gen.ImageURLs),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create generation: %w", err)
	}
	return nil
}

// ListGenerationsByUser returns a user's stored generations, newest first.
func (r *Repository) ListGenerationsByUser(ctx context.Context, userID string, limit int) ([]*model.Generation, error) {
	query := `
		SELECT id, user_id, endpoint, image_urls, created_at
		FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var gens []*model.Generation
	for rows.Next() {
		var gen model.Generation
		if err := rows.Scan(
			&gen.ID,
			&gen.UserID,
			&gen.Endpoint,
			pq.Array(&gen.ImageURLs),
			&gen.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		gens = append(gens, &gen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}

	return gens, nil
}
