package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/prismai/prismai/internal/model"
)

// RecordUsage appends one usage event for a user and endpoint.
// Called only after the downstream generation observably succeeds, so an
// admitted-but-failed request never consumes quota. Callers on the response
// path treat a failure here as log-and-continue.
func (r *Repository) RecordUsage(ctx context.Context, id, userID, endpoint string) error {
	query := `
		INSERT INTO usage_events (id, user_id, endpoint, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.pool.Exec(ctx, query, id, userID, endpoint, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// CountUsageToday returns the number of events for a user and endpoint
// whose timestamp falls on the current calendar day (UTC). A day boundary,
// not a rolling 24h window: counts reset at midnight.
// A failure here during admission is a hard failure of the gated request.
func (r *Repository) CountUsageToday(ctx context.Context, userID, endpoint string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM usage_events
		WHERE user_id = $1
		  AND endpoint = $2
		  AND created_at >= (date_trunc('day', now() AT TIME ZONE 'UTC') AT TIME ZONE 'UTC')
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, endpoint).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count usage: %w", err)
	}
	return count, nil
}

// CountUsageTodayAll returns today's per-endpoint counts for a user in a
// single query. Used by the profile endpoint.
func (r *Repository) CountUsageTodayAll(ctx context.Context, userID string) (map[string]int, error) {
	query := `
		SELECT endpoint, COUNT(*)
		FROM usage_events
		WHERE user_id = $1
		  AND created_at >= (date_trunc('day', now() AT TIME ZONE 'UTC') AT TIME ZONE 'UTC')
		GROUP BY endpoint
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count usage per endpoint: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(model.GatedEndpoints))
	for rows.Next() {
		var endpoint string
		var count int
		if err := rows.Scan(&endpoint, &count); err != nil {
			return nil, fmt.Errorf("failed to scan usage count: %w", err)
		}
		counts[endpoint] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage counts: %w", err)
	}

	return counts, nil
}

// CountUsageTotals returns all-time per-endpoint event totals, for the
// admin stats endpoint.
func (r *Repository) CountUsageTotals(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT endpoint, COUNT(*)
		FROM usage_events
		GROUP BY endpoint
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count usage totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int, len(model.GatedEndpoints))
	for rows.Next() {
		var endpoint string
		var count int
		if err := rows.Scan(&endpoint, &count); err != nil {
			return nil, fmt.Errorf("failed to scan usage total: %w", err)
		}
		totals[endpoint] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage totals: %w", err)
	}

	return totals, nil
}
