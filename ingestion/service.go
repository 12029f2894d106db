package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pgvector/pgvector-go"

	"github.com/echohq/echo-engine/database"
	"github.com/echohq/echo-engine/embeddings"
	"github.com/echohq/echo-engine/knowledge"
)

// Accuracy grows with the log of the total message count and is clamped to
// [0.1, 0.95]; an Echo is never reported as certain.
const (
	minAccuracy = 0.1
	maxAccuracy = 0.95
)

type Service struct {
	pool      *pgxpool.Pool
	driver    neo4j.DriverWithContext
	embedder  embeddings.Embedder
	logger    *log.Logger
	dimension int
}

func NewService(pool *pgxpool.Pool, driver neo4j.DriverWithContext, embedder embeddings.Embedder, logger *log.Logger, dimension int) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		pool:      pool,
		driver:    driver,
		embedder:  embedder,
		logger:    logger,
		dimension: dimension,
	}
}

// ProcessExport runs the pipeline over one upload and persists the outcome:
// the upload record, the dominant sender's embedded messages and the user's
// aggregate echo stats, plus the persona graph. A pipeline failure is not a
// Go error — it is recorded with status "error" and returned inside the
// ProcessingResult. Returned errors signal infrastructure problems only.
func (s *Service) ProcessExport(ctx context.Context, userID, filename, content string) (ProcessingResult, error) {
	if s.embedder == nil {
		return ProcessingResult{}, fmt.Errorf("embedder not configured")
	}
	if err := database.EnsureEchoSchema(ctx, s.pool, s.dimension); err != nil {
		return ProcessingResult{}, fmt.Errorf("ensure schema: %w", err)
	}

	extraction := Run(content, filename)
	fileID := uuid.New()

	if !extraction.Result.Success {
		if err := s.recordFailure(ctx, fileID, userID, filename, extraction); err != nil {
			return ProcessingResult{}, err
		}
		s.logger.Printf("processing failed for %s: %s", filename, extraction.Result.Error)
		return extraction.Result, nil
	}

	vectors, err := s.embedder.Embed(ctx, extraction.Retained)
	if err != nil {
		return ProcessingResult{}, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(extraction.Retained) {
		return ProcessingResult{}, fmt.Errorf("embedding count mismatch: have %d messages, %d embeddings", len(extraction.Retained), len(vectors))
	}

	if err := s.persistSuccess(ctx, fileID, userID, filename, extraction, vectors); err != nil {
		return ProcessingResult{}, err
	}

	export := knowledge.Export{
		ID:             fileID.String(),
		UserID:         userID,
		Filename:       filename,
		Source:         sourceName(extraction.Format),
		MessageCount:   extraction.Result.MessageCount,
		DominantSender: extraction.DominantSender,
		Starters:       extraction.Result.Patterns.CommonStarters,
	}
	if err := knowledge.SyncExport(ctx, s.driver, export); err != nil {
		return ProcessingResult{}, fmt.Errorf("sync persona graph: %w", err)
	}

	s.logger.Printf("processed %s for user %s (%d messages, dominant sender %q)",
		filename, userID, extraction.Result.MessageCount, extraction.DominantSender)
	return extraction.Result, nil
}

func (s *Service) recordFailure(ctx context.Context, fileID uuid.UUID, userID, filename string, extraction Extraction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO uploaded_files (id, user_id, original_name, export_format, processing_status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'error', $5, NOW(), NOW())
	`, fileID, userID, filename, string(extraction.Format), extraction.Result.Error)
	if err != nil {
		return fmt.Errorf("record failed upload: %w", err)
	}
	return nil
}

func (s *Service) persistSuccess(ctx context.Context, fileID uuid.UUID, userID, filename string, extraction Extraction, vectors [][]float32) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Printf("rollback error: %v", rbErr)
			}
		}
	}()

	if _, err = tx.Exec(ctx, `
		INSERT INTO uploaded_files (id, user_id, original_name, export_format, processing_status, message_count, dominant_sender, processed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'completed', $5, $6, NOW(), NOW(), NOW())
	`, fileID, userID, filename, string(extraction.Format), extraction.Result.MessageCount, extraction.DominantSender); err != nil {
		return fmt.Errorf("insert upload record: %w", err)
	}

	for idx, content := range extraction.Retained {
		if _, err = tx.Exec(ctx, `
			INSERT INTO echo_messages (id, file_id, user_id, message_index, content, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW())
		`, uuid.New(), fileID, userID, idx, content, pgvector.NewVector(vectors[idx])); err != nil {
			return fmt.Errorf("insert message %d: %w", idx, err)
		}
	}

	if err = upsertEchoStats(ctx, tx, userID, extraction); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func upsertEchoStats(ctx context.Context, tx pgx.Tx, userID string, extraction Extraction) error {
	var (
		existingTotal int
		sources       []string
	)

	now := time.Now().UTC()
	source := sourceName(extraction.Format)
	patterns := extraction.Result.Patterns

	err := tx.QueryRow(ctx, "SELECT total_messages, data_sources FROM echo_stats WHERE user_id = $1", userID).
		Scan(&existingTotal, &sources)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			total := extraction.Result.MessageCount
			if _, execErr := tx.Exec(ctx, `
				INSERT INTO echo_stats (user_id, total_messages, accuracy_score, avg_message_length, common_starters, data_sources, last_trained, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			`, userID, total, accuracyScore(total), patterns.AvgMessageLength, patterns.CommonStarters, []string{source}, now); execErr != nil {
				return fmt.Errorf("insert echo stats: %w", execErr)
			}
			return nil
		}
		return fmt.Errorf("query echo stats: %w", err)
	}

	total := existingTotal + extraction.Result.MessageCount
	if !containsString(sources, source) {
		sources = append(sources, source)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE echo_stats
		SET total_messages = $2,
		    accuracy_score = $3,
		    avg_message_length = $4,
		    common_starters = $5,
		    data_sources = $6,
		    last_trained = $7,
		    updated_at = NOW()
		WHERE user_id = $1
	`, userID, total, accuracyScore(total), patterns.AvgMessageLength, patterns.CommonStarters, sources, now); err != nil {
		return fmt.Errorf("update echo stats: %w", err)
	}
	return nil
}

// accuracyScore maps a total message count to the reported Echo accuracy.
func accuracyScore(totalMessages int) float64 {
	if totalMessages <= 0 {
		return minAccuracy
	}
	return math.Min(maxAccuracy, math.Max(minAccuracy, math.Log10(float64(totalMessages))/5))
}

// sourceName reduces an export format to its platform family for stats and
// the persona graph.
func sourceName(format ExportFormat) string {
	switch format {
	case FormatWhatsAppText, FormatWhatsAppJSON:
		return "whatsapp"
	case FormatInstagramJSON:
		return "instagram"
	case FormatTelegramJSON:
		return "telegram"
	case FormatTwitterJSON:
		return "twitter"
	case FormatDiscordJSON:
		return "discord"
	case FormatSMSCSV:
		return "sms"
	case FormatEmailCSV:
		return "email"
	case FormatGenericCSV:
		return "csv"
	default:
		return "unknown"
	}
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
