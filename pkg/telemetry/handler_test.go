package telemetry

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParquetHandlerBuffersOnlyErrors(t *testing.T) {
	dir := t.TempDir()

	next := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	h, err := NewParquetHandler(next, dir)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	logger := slog.New(h)
	logger.Info("ingest started", "rows", 100)
	logger.Error("graph upsert failed", "disease", "psoriasis")

	if len(h.buffer) != 1 {
		t.Errorf("expected 1 buffered record, got %d", len(h.buffer))
	}
	if h.buffer[0].Message != "graph upsert failed" {
		t.Errorf("unexpected buffered message: %q", h.buffer[0].Message)
	}
}

func TestParquetHandlerFlush(t *testing.T) {
	dir := t.TempDir()

	next := slog.NewTextHandler(os.Stderr, nil)
	h, err := NewParquetHandler(next, dir)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}

	logger := slog.New(h)
	logger.ErrorContext(context.Background(), "medline fetch failed", "disease", "migraine")

	if err := h.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "errors_*.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("expected 1 parquet file, got %d", len(files))
	}

	// Second flush with empty buffer writes nothing
	if err := h.Flush(); err != nil {
		t.Fatalf("empty flush failed: %v", err)
	}
	files, _ = filepath.Glob(filepath.Join(dir, "errors_*.parquet"))
	if len(files) != 1 {
		t.Errorf("expected still 1 parquet file, got %d", len(files))
	}
}
