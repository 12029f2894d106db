package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/echohq/echo-engine/api"
	"github.com/echohq/echo-engine/config"
	"github.com/echohq/echo-engine/database"
	"github.com/echohq/echo-engine/embeddings"
	"github.com/echohq/echo-engine/engine"
	"github.com/echohq/echo-engine/ingestion"
	"github.com/echohq/echo-engine/llm"
	"github.com/echohq/echo-engine/persona"
)

const httpShutdownTimeout = 10 * time.Second

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	switch os.Args[1] {
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "process":
		processCmd(cfg, logger, os.Args[2:])
	case "chat":
		chatCmd(cfg, logger, os.Args[2:])
	case "train":
		trainCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", cfg.ListenAddr, "address to listen on")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	server := &http.Server{
		Addr:    *addr,
		Handler: api.New(cfg, logger).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("echo-engine API listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("serve: %v", err)
	}
}

func processCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("process", flag.ExitOnError)
	path := flags.String("file", "", "path to a chat export file")
	userID := flags.String("user", "", "user to attribute the export to (omit for a dry run without persistence)")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse process flags: %v", err)
	}

	if strings.TrimSpace(*path) == "" {
		logger.Fatalf("--file is required")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		logger.Fatalf("read export: %v", err)
	}
	filename := filepath.Base(*path)

	if strings.TrimSpace(*userID) == "" {
		printResult(logger, ingestion.Process(string(data), filename))
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	neo4jDriver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		logger.Fatalf("neo4j connection: %v", err)
	}
	defer neo4jDriver.Close(ctx)

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	svc := ingestion.NewService(pgPool, neo4jDriver, embedder, logger, cfg.Embeddings.Dimension)
	result, err := svc.ProcessExport(ctx, *userID, filename, string(data))
	if err != nil {
		logger.Fatalf("process export: %v", err)
	}

	printResult(logger, result)
}

func printResult(logger *log.Logger, result ingestion.ProcessingResult) {
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(encoded))
}

func chatCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("chat", flag.ExitOnError)
	userID := flags.String("user", "", "user whose Echo to talk to")
	limit := flags.Int("limit", 5, "number of context messages to retrieve")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse chat flags: %v", err)
	}

	if strings.TrimSpace(*userID) == "" {
		logger.Fatalf("--user is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	neo4jDriver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		logger.Fatalf("neo4j connection: %v", err)
	}
	defer neo4jDriver.Close(ctx)

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	svc := persona.NewService(
		persona.NewPostgresVectorStore(pgPool),
		persona.NewNeo4jGraphStore(neo4jDriver),
		persona.NewPostgresStatsStore(pgPool),
		embedder,
		llmClient,
		logger,
	)

	history := make([]llm.Message, 0)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read message: %v", err)
			}
			return
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "/quit" {
			return
		}

		_, updated, err := svc.ChatStream(ctx, *userID, message, persona.Config{ContextLimit: *limit}, history, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		if err != nil {
			logger.Fatalf("chat failed: %v", err)
		}
		history = updated
		fmt.Println()
	}
}

func trainCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("train", flag.ExitOnError)
	userID := flags.String("user", "", "user whose Echo to train")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse train flags: %v", err)
	}

	if strings.TrimSpace(*userID) == "" {
		logger.Fatalf("--user is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := engine.NewClient(cfg.EngineURL)
	result, err := client.Train(ctx, *userID)
	if err != nil {
		logger.Fatalf("train echo: %v", err)
	}

	logger.Printf("training session %s processed %d messages", result.SessionID, result.MessagesProcessed)
	for trait, value := range result.PersonalityTraits {
		logger.Printf("  %s: %.2f", trait, value)
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete all processed messages, stats and the persona graph. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := api.ClearAll(ctx, cfg, logger); err != nil {
		logger.Fatalf("clear: %v", err)
	}
	logger.Println("echo data removed")
}

func printUsage() {
	fmt.Println("Usage: echo-engine <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  serve     Run the HTTP API")
	fmt.Println("  process   Process a chat export file (use --user to persist the results)")
	fmt.Println("  chat      Talk to a user's Echo interactively")
	fmt.Println("  train     Ask the external engine to retrain a user's Echo")
	fmt.Println("  clear     Remove processed messages, stats and the persona graph")
}
