package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-extract/internal/ocr"
	"github.com/zombor/receipt-extract/internal/pipeline"
	"github.com/zombor/receipt-extract/internal/preprocess"
	"github.com/zombor/receipt-extract/internal/scanning"
	"github.com/zombor/receipt-extract/internal/server"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env is fine; flags and the environment still apply
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}

	flags := ff.NewFlagSet("receipt-extract")
	var (
		port           = flags.IntLong("port", 8080, "HTTP server port")
		authUser       = flags.StringLong("auth-user", "", "Basic auth username for /api/extract (optional)")
		authPass       = flags.StringLong("auth-pass", "", "Basic auth password for /api/extract (optional)")
		gatewayURL     = flags.StringLong("gateway-url", "", "Remote receipt-extract endpoint used as the first tier (optional)")
		gatewayKey     = flags.StringLong("gateway-key", "", "Bearer key sent to and required by the receipt-extract endpoint")
		gatewayTimeout = flags.DurationLong("gateway-timeout", scanning.DefaultGatewayTimeout, "Remote inference timeout")
		backendType    = flags.StringLong("backend", "none", "Inference backend: 'gemini', 'ollama' or 'none'")
		geminiKey      = flags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = flags.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL      = flags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = flags.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		noLocal        = flags.BoolLong("no-local", "Disable on-device recognition fallback")
		ocrLanguage    = flags.StringLong("ocr-language", "eng", "Tesseract language")
		ocrDPI         = flags.IntLong("ocr-dpi", 300, "Resolution hint passed to Tesseract")
		tessdata       = flags.StringLong("tessdata", "", "Tesseract tessdata directory (optional)")
		primaryMode    = flags.StringLong("primary-mode", "block", "Segmentation mode for the first local pass")
		alternateMode  = flags.StringLong("alternate-mode", "sparse", "Segmentation mode for the second local pass")
		maxSide        = flags.IntLong("max-side", preprocess.DefaultMaxSide, "Longest image side after preprocessing")
		debug          = flags.BoolLong("debug", "Log recognized text and other debug output")
		showVersion    = flags.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(flags, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_EXTRACT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(flags))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Initialize the inference backend that serves /v1/receipt-extract
	var (
		backend scanning.Scanner
		err     error
	)
	switch *backendType {
	case "gemini":
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini backend...", "model", *geminiModel)
		backend, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama backend...", "url", *ollamaURL, "model", *ollamaModel)
		backend, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	case "none", "":
	default:
		slog.Error("Invalid backend type", "type", *backendType, "valid", "gemini, ollama or none")
		os.Exit(1)
	}
	if backend != nil {
		defer backend.Close()
	}

	// The remote tier is the configured gateway, or the in-process backend
	var remote scanning.Scanner
	switch {
	case *gatewayURL != "":
		slog.Info("Using remote gateway", "url", *gatewayURL, "timeout", *gatewayTimeout)
		remote, err = scanning.NewGateway(*gatewayURL, *gatewayKey, *gatewayTimeout)
		if err != nil {
			slog.Error("Failed to initialize gateway", "error", err)
			os.Exit(1)
		}
	case backend != nil:
		remote = backend
	default:
		slog.Info("No remote tier configured, using on-device recognition only")
	}

	cfg := pipeline.DefaultConfig()
	if cfg.PrimaryMode, err = ocr.ParseSegMode(*primaryMode); err != nil {
		slog.Error("Invalid primary mode", "error", err)
		os.Exit(1)
	}
	if cfg.AlternateMode, err = ocr.ParseSegMode(*alternateMode); err != nil {
		slog.Error("Invalid alternate mode", "error", err)
		os.Exit(1)
	}

	var engine ocr.Engine
	if !*noLocal {
		engine = ocr.NewTesseract(ocr.Config{
			Language:       *ocrLanguage,
			DPI:            *ocrDPI,
			TessdataPrefix: *tessdata,
		}, nil)
	}

	preprocessor := preprocess.New(nil)
	preprocessor.MaxSide = *maxSide

	extractor := pipeline.NewWithDeps(remote, engine, preprocessor, cfg, nil)

	srv := server.NewServer(extractor, server.Options{
		Backend: backend,
		BasicAuth: server.BasicAuth{
			Username: *authUser,
			Password: *authPass,
		},
		GatewayKey: *gatewayKey,
	})

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := srv.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
