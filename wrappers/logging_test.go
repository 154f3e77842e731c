// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package wrappers

import (
	"context"
	"testing"

	"github.com/polykv/store/logging"
	"github.com/polykv/store/stores/memstore"
)

type recordingLogger struct {
	logging.Logger
	lines []string
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{Logger: logging.NewNoOpLogger()}
}

func (l *recordingLogger) Debug(format string, a ...any) { l.lines = append(l.lines, "debug") }
func (l *recordingLogger) Info(format string, a ...any)  { l.lines = append(l.lines, "info") }
func (l *recordingLogger) Warn(format string, a ...any)  { l.lines = append(l.lines, "warn") }
func (l *recordingLogger) Error(format string, a ...any) { l.lines = append(l.lines, "error") }

func TestLoggingDoesNotAlterBehavior(t *testing.T) {
	ctx := context.Background()
	logger := newRecordingLogger()
	w := NewLogging(memstore.New(), logger)

	if err := w.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := w.Get(ctx, "coll", "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got["v"] != 1.0 {
		t.Fatalf("expected passthrough value, got %v", got)
	}
}

func TestLoggingEmitsLinesForOperations(t *testing.T) {
	ctx := context.Background()
	logger := newRecordingLogger()
	w := NewLogging(memstore.New(), logger)

	if err := w.Put(ctx, "coll", "k", map[string]any{"v": 1.0}, nil); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := w.Get(ctx, "coll", "k"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := w.Get(ctx, "coll", "missing"); err != nil {
		t.Fatalf("get miss: %v", err)
	}

	if len(logger.lines) == 0 {
		t.Fatalf("expected log lines to be emitted")
	}
}
