package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureEchoSchema creates the tables backing the ingestion pipeline and the
// persona chat: one row per uploaded export, the dominant sender's messages
// with their embeddings, and per-user aggregate stats.
func EnsureEchoSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		`CREATE TABLE IF NOT EXISTS uploaded_files (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			original_name TEXT NOT NULL,
			export_format TEXT,
			processing_status TEXT NOT NULL DEFAULT 'pending',
			message_count INT NOT NULL DEFAULT 0,
			dominant_sender TEXT,
			error_message TEXT,
			processed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS echo_messages (
			id UUID PRIMARY KEY,
			file_id UUID NOT NULL REFERENCES uploaded_files(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			message_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding VECTOR(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(file_id, message_index)
		)`, dimension),
		`CREATE TABLE IF NOT EXISTS echo_stats (
			user_id TEXT PRIMARY KEY,
			total_messages INT NOT NULL DEFAULT 0,
			accuracy_score DOUBLE PRECISION NOT NULL DEFAULT 0.1,
			avg_message_length DOUBLE PRECISION NOT NULL DEFAULT 0,
			common_starters TEXT[] NOT NULL DEFAULT '{}',
			data_sources TEXT[] NOT NULL DEFAULT '{}',
			last_trained TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		"CREATE INDEX IF NOT EXISTS idx_echo_messages_user ON echo_messages(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_echo_messages_file ON echo_messages(file_id)",
		"CREATE INDEX IF NOT EXISTS idx_echo_messages_embedding ON echo_messages USING ivfflat (embedding vector_l2_ops)",
		"CREATE INDEX IF NOT EXISTS idx_uploaded_files_user ON uploaded_files(user_id)",
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}

	return nil
}
