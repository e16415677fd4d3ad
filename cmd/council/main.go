// Command council is a terminal client for the council orchestrator.
//
// Usage:
//
//	council [flags]
//
// Flags:
//
//	-backend string       Orchestrator base URL (default: $COUNCIL_BACKEND_URL or http://localhost:8001)
//	-conversation string  ID of an existing conversation to resume
//	-export string        Path to export the conversation as JSON on exit
//	-log string           Path to a diagnostic log file (default: discard)
//
// A .env file in the working directory is loaded if present.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mstolarz/council"
	bt "github.com/mstolarz/council/bubbletea"
	"github.com/mstolarz/council/councilhttp"
	counciljson "github.com/mstolarz/council/json"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "council: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env before flag parsing so flag defaults can read the env.
	// A missing file is fine; any other error is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	var (
		backend        = flag.String("backend", defaultBackend(), "Orchestrator base URL")
		conversationID = flag.String("conversation", "", "ID of an existing conversation to resume")
		exportPath     = flag.String("export", "", "Path to export the conversation as JSON on exit")
		logPath        = flag.String("log", "", "Path to a diagnostic log file")
	)
	flag.Parse()

	log, closeLog, err := newLogger(*logPath)
	if err != nil {
		return err
	}
	defer closeLog()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := councilhttp.New(
		councilhttp.WithBaseURL(*backend),
		councilhttp.WithLogger(log),
	)

	conv, err := loadOrCreateConversation(ctx, client, *conversationID)
	if err != nil {
		return err
	}
	log.WithField("conversation_id", conv.ID).Info("conversation ready")

	// The backend regenerates conversation titles during a turn; re-fetch
	// the list when the controller signals a change so the log reflects
	// current titles.
	refresh := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metas, err := client.List(ctx)
		if err != nil {
			log.Warnf("refresh conversation list: %v", err)
			return
		}
		log.WithField("conversations", len(metas)).Debug("conversation list refreshed")
	}

	ctrl := council.NewController(client, conv,
		council.WithLogger(log),
		council.WithListRefresh(refresh),
	)

	tuiModel := bt.New(ctx, ctrl, council.DefaultTheme())
	if err := bt.Run(ctx, tuiModel); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	// Export on exit. The orchestrator keeps the authoritative copy; this
	// is a local snapshot for sharing or inspection.
	if *exportPath != "" {
		if err := counciljson.Save(*exportPath, ctrl.Snapshot()); err != nil {
			return fmt.Errorf("export conversation: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Conversation exported to %s\n", *exportPath)
	}

	return nil
}

func defaultBackend() string {
	if v := os.Getenv("COUNCIL_BACKEND_URL"); v != "" {
		return v
	}
	return "http://localhost:8001"
}

// newLogger builds the diagnostic logger. The TUI owns the terminal, so
// output goes to a file when -log is given and is discarded otherwise.
func newLogger(path string) (logrus.FieldLogger, func(), error) {
	log := logrus.New()
	if path == "" {
		log.SetOutput(io.Discard)
		return log, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetLevel(logrus.DebugLevel)
	return log, func() { f.Close() }, nil
}

func loadOrCreateConversation(ctx context.Context, store council.Store, id string) (*council.Conversation, error) {
	if id != "" {
		conv, err := store.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resume conversation %s: %w", id, err)
		}
		return conv, nil
	}
	conv, err := store.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}
