package broker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveRejectsPathOutsideWorkspace(t *testing.T) {
	dir := t.TempDir()
	ws, err := NewWorkspace(dir)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	outside := t.TempDir()
	outsideFile := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(outsideFile, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = ws.Resolve(outsideFile)
	if err != ErrOutsideWorkspace {
		t.Fatalf("err = %v, want ErrOutsideWorkspace", err)
	}
}

func TestResolveAcceptsPathInsideWorkspace(t *testing.T) {
	dir := t.TempDir()
	ws, err := NewWorkspace(dir)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	inside := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(inside, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ws.Resolve("notes.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want, _ := filepath.EvalSymlinks(inside)
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
