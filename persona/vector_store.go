package persona

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type VectorStore interface {
	SimilarMessages(ctx context.Context, userID string, embedding []float32, limit int) ([]MessageResult, error)
}

type PostgresVectorStore struct {
	pool *pgxpool.Pool
}

func NewPostgresVectorStore(pool *pgxpool.Pool) *PostgresVectorStore {
	return &PostgresVectorStore{pool: pool}
}

// SimilarMessages returns the user's stored messages closest to the query
// embedding, scored by inverted L2 distance.
func (s *PostgresVectorStore) SimilarMessages(ctx context.Context, userID string, embedding []float32, limit int) ([]MessageResult, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	if limit <= 0 {
		limit = 5
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := limit * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return nil, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT
            id,
            content,
            (embedding <-> $2::vector) AS distance
        FROM echo_messages
        WHERE user_id = $1
        ORDER BY embedding <-> $2::vector
        LIMIT $3
    `, userID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar messages: %w", err)
	}
	defer rows.Close()

	results := make([]MessageResult, 0)
	for rows.Next() {
		var item MessageResult
		var distance float64
		if scanErr := rows.Scan(&item.MessageID, &item.Content, &distance); scanErr != nil {
			return nil, fmt.Errorf("scan similar message: %w", scanErr)
		}
		item.Score = 1 / (1 + distance)
		results = append(results, item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return results, nil
}

var _ VectorStore = (*PostgresVectorStore)(nil)
