package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-processor/internal/points"
	"github.com/zombor/receipt-processor/internal/receipt"
	"github.com/zombor/receipt-processor/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

type config struct {
	port        int
	store       string
	dbPath      string
	imagePath   string
	scannerType string
	geminiKey   string
	geminiModel string
	ollamaURL   string
	ollamaModel string
	logLevel    string
	showVersion bool
}

func parseConfig(args []string) (*config, error) {
	fs := ff.NewFlagSet("receipt-processor")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		store       = fs.StringLong("store", "bolt", "Receipt store: 'bolt', 'sqlite' or 'memory'")
		dbPath      = fs.StringLong("db", "receipts.db", "Database file path (bolt and sqlite stores)")
		imagePath   = fs.StringLong("images", "./images", "Directory for scanned receipt images")
		scannerType = fs.StringLong("scanner", "none", "Receipt image scanner: 'none', 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama vision model name")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("RECEIPT_PROCESSOR")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return nil, err
	}

	return &config{
		port:        *port,
		store:       *store,
		dbPath:      *dbPath,
		imagePath:   *imagePath,
		scannerType: *scannerType,
		geminiKey:   *geminiKey,
		geminiModel: *geminiModel,
		ollamaURL:   *ollamaURL,
		ollamaModel: *ollamaModel,
		logLevel:    *logLevel,
		showVersion: *showVersion,
	}, nil
}

func openDB(cfg *config) (receipt.DB, error) {
	switch cfg.store {
	case "bolt":
		return receipt.NewBoltDB(cfg.dbPath)
	case "sqlite":
		return receipt.NewSQLiteDB(cfg.dbPath)
	case "memory":
		return receipt.NewMemoryDB(), nil
	default:
		return nil, fmt.Errorf("invalid store %q (valid: bolt, sqlite, memory)", cfg.store)
	}
}

func openScanner(ctx context.Context, cfg *config) (scanning.Scanner, error) {
	switch cfg.scannerType {
	case "none", "":
		return nil, nil
	case "gemini":
		apiKey := cfg.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", cfg.geminiModel)
		return scanning.NewGemini(ctx, apiKey, cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		return scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
	default:
		return nil, fmt.Errorf("invalid scanner %q (valid: none, gemini, ollama)", cfg.scannerType)
	}
}

func main() {
	// A missing .env file is fine; flags and the environment still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error: loading .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if cfg.showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level %q\n", cfg.logLevel)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(cfg); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Initializing database...", "store", cfg.store, "path", cfg.dbPath)
	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	scanner, err := openScanner(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}

	var store receipt.Storage
	if scanner != nil {
		defer scanner.Close()
		local, err := receipt.NewLocalStorage(cfg.imagePath)
		if err != nil {
			return fmt.Errorf("initializing image storage: %w", err)
		}
		store = local
	}

	service := receipt.NewService(db, points.NewEngine(), scanner, store)
	server := receipt.NewServer(service)

	errCh := make(chan error, 1)
	addr := fmt.Sprintf(":%d", cfg.port)
	go func() {
		errCh <- server.Start(addr)
	}()
	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
