// Copyright 2026 The PolyKV Authors.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package logging

import "testing"

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", Debug, false},
		{"DEBUG", Debug, false},
		{"", Info, false},
		{"info", Info, false},
		{"warn", Warn, false},
		{"warning", Warn, false},
		{"error", Error, false},
		{"bogus", Info, true},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.in)
		if (err != nil) != c.wantErr {
			t.Fatalf("ParseLevel(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
		}
		if got != c.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{Debug: "debug", Info: "info", Warn: "warn", Error: "error"}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Fatalf("%v.String() = %q, want %q", level, got, want)
		}
	}
}

func TestStandardLoggerGetSetLevel(t *testing.T) {
	l := New()
	l.SetLevel(Warn)
	if got := l.GetLevel(); got != Warn {
		t.Fatalf("GetLevel() = %v, want %v", got, Warn)
	}
}

func TestStandardLoggerWithFieldsReturnsUsableLogger(t *testing.T) {
	l := New()
	child := l.WithFields(map[string]any{"collection": "widgets"})
	// WithFields must not panic and must return a Logger whose level tracks
	// the parent logger's underlying logrus instance.
	l.SetLevel(Debug)
	if got := child.GetLevel(); got != Debug {
		t.Fatalf("child.GetLevel() = %v, want %v", got, Debug)
	}
	child.Info("test message %d", 1)
}

func TestNoOpLoggerDiscardsEverything(t *testing.T) {
	l := NewNoOpLogger()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	if got := l.GetLevel(); got != Error {
		t.Fatalf("GetLevel() = %v, want %v", got, Error)
	}
	l.SetLevel(Debug) // no-op, must not panic
	if l.WithFields(map[string]any{"a": 1}) == nil {
		t.Fatal("WithFields returned nil")
	}
}
