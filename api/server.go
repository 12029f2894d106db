// Package api exposes the HTTP surface the dashboard talks to: export
// processing, echo stats, persona chat and training.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/echohq/echo-engine/config"
	"github.com/echohq/echo-engine/database"
	"github.com/echohq/echo-engine/embeddings"
	"github.com/echohq/echo-engine/engine"
	"github.com/echohq/echo-engine/ingestion"
	"github.com/echohq/echo-engine/knowledge"
	"github.com/echohq/echo-engine/llm"
	"github.com/echohq/echo-engine/persona"
)

const (
	defaultContextLimit = 5
	maxUploadBytes      = 32 << 20
)

// Logger is the subset of *log.Logger the server needs; kept as an interface
// so handler tests run without a real logger setup.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// Server exposes HTTP handlers for the core echo-engine workflows.
type Server struct {
	cfg     config.Config
	logger  Logger
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type chatRequest struct {
	Message      string `json:"message"`
	UserID       string `json:"user_id"`
	ContextLimit int    `json:"context_limit"`
}

type chatResponse struct {
	Response    string               `json:"response"`
	ContextUsed []chatContextMessage `json:"context_used"`
	Confidence  float64              `json:"confidence"`
	Timestamp   string               `json:"timestamp"`
}

type chatContextMessage struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type statsResponse struct {
	TotalMessages    int      `json:"total_messages"`
	AccuracyScore    float64  `json:"accuracy_score"`
	AvgMessageLength float64  `json:"avg_message_length"`
	CommonStarters   []string `json:"common_starters"`
	Sources          []string `json:"sources"`
	LastTrained      string   `json:"last_updated,omitempty"`
}

type trainRequest struct {
	UserID string `json:"user_id"`
}

type trainResponse struct {
	Success           bool               `json:"success"`
	SessionID         string             `json:"sessionId"`
	MessagesProcessed int                `json:"messagesProcessed"`
	PersonalityTraits map[string]float64 `json:"personalityTraits,omitempty"`
}

type clearRequest struct {
	Confirm bool `json:"confirm"`
}

// New constructs a Server that serves the HTTP API using the provided configuration.
func New(cfg config.Config, logger Logger) *Server {
	s := &Server{cfg: cfg, logger: logger}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/process", s.handleProcess)
	mux.HandleFunc("/v1/stats", s.handleStats)
	mux.HandleFunc("/v1/chat", s.handleChat)
	mux.HandleFunc("/v1/train", s.handleTrain)
	mux.HandleFunc("/v1/clear", s.handleClear)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

// handleProcess ingests one uploaded export. A pipeline failure is a valid
// outcome and is returned with HTTP 200 and success:false; only transport
// misuse and infrastructure problems map to error statuses.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	userID := strings.TrimSpace(r.FormValue("user_id"))
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("user_id is required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("file is required: %w", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		return
	}

	ctx := r.Context()

	pgPool, err := database.NewPostgresPool(ctx, s.cfg.PostgresDSN)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("postgres connection: %w", err))
		return
	}
	defer pgPool.Close()

	neo4jDriver, err := database.NewNeo4jDriver(ctx, s.cfg.Neo4jURI, s.cfg.Neo4jUser, s.cfg.Neo4jPass)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("neo4j connection: %w", err))
		return
	}
	defer neo4jDriver.Close(ctx)

	embedder, err := embeddings.NewEmbedder(s.cfg)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("embedder setup: %w", err))
		return
	}

	svc := ingestion.NewService(pgPool, neo4jDriver, embedder, nil, s.cfg.Embeddings.Dimension)
	result, err := svc.ProcessExport(ctx, userID, header.Filename, string(content))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("process export: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, http.MethodGet)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("user_id is required"))
		return
	}

	ctx := r.Context()

	pgPool, err := database.NewPostgresPool(ctx, s.cfg.PostgresDSN)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("postgres connection: %w", err))
		return
	}
	defer pgPool.Close()

	stats, found, err := persona.NewPostgresStatsStore(pgPool).UserStats(ctx, userID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("load echo stats: %w", err))
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("no echo stats for user %s", userID))
		return
	}

	resp := statsResponse{
		TotalMessages:    stats.TotalMessages,
		AccuracyScore:    stats.AccuracyScore,
		AvgMessageLength: stats.AvgMessageLength,
		CommonStarters:   stats.CommonStarters,
		Sources:          stats.DataSources,
	}
	if stats.LastTrained != nil {
		resp.LastTrained = stats.LastTrained.UTC().Format(time.RFC3339)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("message is required"))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("user_id is required"))
		return
	}

	limit := req.ContextLimit
	if limit <= 0 {
		limit = defaultContextLimit
	}

	ctx := r.Context()

	pgPool, err := database.NewPostgresPool(ctx, s.cfg.PostgresDSN)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("postgres connection: %w", err))
		return
	}
	defer pgPool.Close()

	neo4jDriver, err := database.NewNeo4jDriver(ctx, s.cfg.Neo4jURI, s.cfg.Neo4jUser, s.cfg.Neo4jPass)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("neo4j connection: %w", err))
		return
	}
	defer neo4jDriver.Close(ctx)

	embedder, err := embeddings.NewEmbedder(s.cfg)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("embedder setup: %w", err))
		return
	}

	llmClient, err := llm.NewClient(s.cfg)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("llm setup: %w", err))
		return
	}

	svc := persona.NewService(
		persona.NewPostgresVectorStore(pgPool),
		persona.NewNeo4jGraphStore(neo4jDriver),
		persona.NewPostgresStatsStore(pgPool),
		embedder,
		llmClient,
		nil,
	)

	resp, err := svc.Chat(ctx, req.UserID, req.Message, persona.Config{ContextLimit: limit})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("chat failed: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, transformChatResponse(resp))
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req trainRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("user_id is required"))
		return
	}

	client := engine.NewClient(s.cfg.EngineURL)
	result, err := client.Train(r.Context(), req.UserID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("train echo: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, trainResponse{
		Success:           true,
		SessionID:         result.SessionID,
		MessagesProcessed: result.MessagesProcessed,
		PersonalityTraits: result.PersonalityTraits,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodPost)
		return
	}

	var req clearRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if !req.Confirm {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("confirm must be true to clear data"))
		return
	}

	ctx := r.Context()

	if err := ClearAll(ctx, s.cfg, s.logger); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, messageResponse{Message: "echo data cleared"})
}

// ClearAll wipes the message vault, the stats table and the persona graph.
// Shared with the CLI clear command.
func ClearAll(ctx context.Context, cfg config.Config, logger Logger) error {
	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("postgres connection: %w", err)
	}
	defer pgPool.Close()

	if _, err := pgPool.Exec(ctx, "TRUNCATE echo_messages, uploaded_files, echo_stats"); err != nil {
		return fmt.Errorf("truncate postgres tables: %w", err)
	}
	logger.Println("cleared Postgres uploaded_files, echo_messages and echo_stats")

	neo4jDriver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		return fmt.Errorf("neo4j connection: %w", err)
	}
	defer neo4jDriver.Close(ctx)

	session := neo4jDriver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	if err := knowledge.PurgeAll(ctx, session); err != nil {
		return fmt.Errorf("clear neo4j: %w", err)
	}
	logger.Println("persona graph cleared")

	return nil
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed, use %s", allowed))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("api error (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}

func transformChatResponse(resp persona.Response) chatResponse {
	converted := chatResponse{
		Response:   resp.Reply,
		Confidence: resp.Confidence,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	converted.ContextUsed = make([]chatContextMessage, len(resp.ContextUsed))
	for i, msg := range resp.ContextUsed {
		converted.ContextUsed[i] = chatContextMessage{
			ID:      msg.MessageID,
			Content: msg.Content,
			Score:   msg.Score,
		}
	}
	return converted
}
