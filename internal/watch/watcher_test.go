// Tests for the file watcher: construction, event delivery for watched and
// unwatched files, close semantics, the polling fallback and Settle.
package watch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ///////////////////////////////////////////////
// Constructor Tests
// ///////////////////////////////////////////////

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		files   func(dir string) []string
		wantErr bool
	}{
		{
			name:  "existing file",
			files: func(dir string) []string { return []string{filepath.Join(dir, "lessondeck.toml")} },
		},
		{
			name:  "missing file in existing dir",
			files: func(dir string) []string { return []string{filepath.Join(dir, "deck.toml")} },
		},
		{
			name: "two files sharing a dir",
			files: func(dir string) []string {
				return []string{filepath.Join(dir, "lessondeck.toml"), filepath.Join(dir, "deck.toml")}
			},
		},
		{
			name:    "no files",
			files:   func(string) []string { return nil },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, "lessondeck.toml"), "version = 3\n")

			w, err := New(tt.files(dir), Options{Logger: quiet()})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if w.Events() == nil {
				t.Error("Events() channel is nil")
			}
			if len(w.dirs) != 1 {
				t.Errorf("dirs = %v, want one shared parent", w.dirs)
			}
			if err := w.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
		})
	}
}

// ///////////////////////////////////////////////
// Event Tests
// ///////////////////////////////////////////////

func TestWriteTriggersEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow watcher test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "deck.toml")
	writeFile(t, path, "title = 'a'\n")

	w, err := New([]string{path}, Options{Logger: quiet(), PollInterval: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "title = 'b'\n")

	select {
	case <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for file change event")
	}
}

func TestRenameOverTriggersEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow watcher test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "lessondeck.toml")
	writeFile(t, path, "version = 3\n")

	w, err := New([]string{path}, Options{Logger: quiet(), PollInterval: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	time.Sleep(100 * time.Millisecond)
	tmp := filepath.Join(dir, "lessondeck.toml.tmp")
	writeFile(t, tmp, "version = 3\n[log]\nlevel = 'debug'\n")
	later := time.Now().Add(time.Second)
	os.Chtimes(tmp, later, later)
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-w.Events():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rename event")
	}
}

func TestUnwatchedFileIgnored(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow watcher test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "deck.toml")
	writeFile(t, path, "title = 'a'\n")

	w, err := New([]string{path}, Options{Logger: quiet()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if w.Polling() {
		t.Skip("fsnotify unavailable")
	}

	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "other.txt"), "x")

	select {
	case <-w.Events():
		t.Error("event for a file that is not watched")
	case <-time.After(400 * time.Millisecond):
	}
}

// ///////////////////////////////////////////////
// Close Tests
// ///////////////////////////////////////////////

func TestCloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deck.toml")
	writeFile(t, path, "")

	w, err := New([]string{path}, Options{Logger: quiet()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

// ///////////////////////////////////////////////
// Poll Tests
// ///////////////////////////////////////////////

func TestPollDetectsModification(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow polling test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "deck.toml")
	writeFile(t, path, "title = 'a'\n")

	w, err := New([]string{path}, Options{Poll: true, PollInterval: 50 * time.Millisecond, Logger: quiet()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()
	if !w.Polling() {
		t.Fatal("Polling() = false with Options.Poll set")
	}

	time.Sleep(100 * time.Millisecond)
	later := time.Now().Add(time.Second)
	os.Chtimes(path, later, later)

	select {
	case <-w.Events():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for poll event")
	}
}

func TestPollDetectsCreation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow polling test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "deck.toml")

	w, err := New([]string{path}, Options{Poll: true, PollInterval: 50 * time.Millisecond, Logger: quiet()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, path, "title = 'a'\n")

	select {
	case <-w.Events():
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for creation event")
	}
}

func TestPollStopsOnClose(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow polling test in short mode")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "deck.toml")
	writeFile(t, path, "")

	w, err := New([]string{path}, Options{Poll: true, PollInterval: 50 * time.Millisecond, Logger: quiet()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	w.Close()
	time.Sleep(100 * time.Millisecond)

	later := time.Now().Add(time.Second)
	os.Chtimes(path, later, later)

	select {
	case <-w.Events():
		t.Error("received event after Close; poll should have stopped")
	case <-time.After(300 * time.Millisecond):
	}
}

// ///////////////////////////////////////////////
// Settle Tests
// ///////////////////////////////////////////////

func TestSettleCoalescesBursts(t *testing.T) {
	w := &Watcher{events: make(chan struct{}, 1), done: make(chan struct{})}
	go func() {
		for range 5 {
			w.notify()
			time.Sleep(10 * time.Millisecond)
		}
	}()

	start := time.Now()
	if !w.Settle(80*time.Millisecond, nil) {
		t.Fatal("Settle returned false without done closing")
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("Settle returned after %v, want at least the quiet period", elapsed)
	}
}

func TestSettleDone(t *testing.T) {
	w := &Watcher{events: make(chan struct{}, 1), done: make(chan struct{})}
	done := make(chan struct{})
	close(done)
	if w.Settle(time.Second, done) {
		t.Error("Settle = true after done closed")
	}
}
