package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docchat/internal/access"
	"docchat/internal/config"
	"docchat/internal/platform/snowflake"
	"docchat/internal/prompt"
	"docchat/internal/service"
	"docchat/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var debug bool
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.BoolVar(&debug, "debug", false, "Write platform query logs to docchat.log")
	flag.Parse()

	setupLogging(debug)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	password := os.Getenv(cfg.Snowflake.PasswordEnv)
	if password == "" {
		log.Fatalf("missing platform password in env %s", cfg.Snowflake.PasswordEnv)
	}

	ctx := context.Background()
	session, err := snowflake.Open(ctx, snowflake.Config{
		Account:        cfg.Snowflake.Account,
		User:           cfg.Snowflake.User,
		Password:       password,
		Database:       cfg.Snowflake.Database,
		Schema:         cfg.Snowflake.Schema,
		Warehouse:      cfg.Snowflake.Warehouse,
		Role:           cfg.Snowflake.Role,
		Stage:          cfg.Corpus.Stage,
		ChunksTable:    cfg.Corpus.ChunksTable,
		AccessTable:    cfg.Corpus.AccessTable,
		EmbeddingModel: cfg.Corpus.EmbeddingModel,
	})
	if err != nil {
		log.Fatalf("failed to open platform session: %v", err)
	}
	defer session.Close()

	// Access resolution happens once at load; a failure here is fatal
	// because access-control correctness must not be degraded.
	docs, err := access.NewResolver(session, session).Resolve(ctx)
	if err != nil {
		log.Fatalf("failed to resolve accessible documents: %v", err)
	}

	builder := prompt.NewBuilder(session, session, cfg.Retrieval.NumChunks,
		time.Duration(cfg.Presign.TTLSecs)*time.Second)
	svc := service.NewQAService(builder, session)

	m := tui.New(svc, docs, cfg.Models)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

// setupLogging keeps slog quiet by default so it cannot corrupt the TUI.
func setupLogging(debug bool) {
	if !debug {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return
	}
	f, err := os.OpenFile("docchat.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("failed to open debug log: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
}
