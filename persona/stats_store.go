package persona

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsStore interface {
	UserStats(ctx context.Context, userID string) (Stats, bool, error)
}

type PostgresStatsStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStatsStore(pool *pgxpool.Pool) *PostgresStatsStore {
	return &PostgresStatsStore{pool: pool}
}

// UserStats reads the echo_stats row for a user. The second return value is
// false when the user has not processed any export yet.
func (s *PostgresStatsStore) UserStats(ctx context.Context, userID string) (Stats, bool, error) {
	if s.pool == nil {
		return Stats{}, false, fmt.Errorf("postgres pool is nil")
	}

	var stats Stats
	err := s.pool.QueryRow(ctx, `
		SELECT total_messages, accuracy_score, avg_message_length, common_starters, data_sources, last_trained
		FROM echo_stats
		WHERE user_id = $1
	`, userID).Scan(
		&stats.TotalMessages,
		&stats.AccuracyScore,
		&stats.AvgMessageLength,
		&stats.CommonStarters,
		&stats.DataSources,
		&stats.LastTrained,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stats{}, false, nil
		}
		return Stats{}, false, fmt.Errorf("query echo stats: %w", err)
	}

	return stats, true, nil
}

var _ StatsStore = (*PostgresStatsStore)(nil)
