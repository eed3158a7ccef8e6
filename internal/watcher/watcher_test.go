package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := New(); err == nil {
		t.Fatalf("expected error for no files")
	}
	if _, err := New(filepath.Join(dir, "missing.reqif")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error for directory")
	}
}

func TestNew_SharedDirectory(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.reqif"), filepath.Join(dir, "b.reqif")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	w, err := New(b, a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(w.dirs) != 1 {
		t.Fatalf("dirs = %v, want one", w.dirs)
	}
	files := w.Files()
	if len(files) != 2 || filepath.Base(files[0]) != "a.reqif" {
		t.Fatalf("Files() = %v", files)
	}
}

func TestRun_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "old.reqif")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, target, "v1")

	w, err := New(target)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Debounce = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) error {
			calls <- changed
			return nil
		})
	}()
	<-w.ready

	writeFile(t, other, "ignored")
	writeFile(t, target, "v2")
	writeFile(t, target, "v3")

	select {
	case changed := <-calls:
		if len(changed) != 1 || filepath.Base(changed[0]) != "old.reqif" {
			t.Fatalf("changed = %v", changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("handler was not called")
	}

	select {
	case changed := <-calls:
		t.Fatalf("unexpected second call with %v", changed)
	case <-time.After(400 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

func TestRun_HandlerError(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "new.reqif")
	writeFile(t, target, "v1")

	w, err := New(target)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Debounce = 50 * time.Millisecond

	boom := errors.New("boom")
	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background(), func(context.Context, []string) error { return boom })
	}()
	<-w.ready
	writeFile(t, target, "v2")

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("Run returned %v, want boom", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop on handler error")
	}
}
