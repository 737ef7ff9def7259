package broker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/deepchat/deepchat/internal/llm"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	dir := t.TempDir()
	ws, err := NewWorkspace(dir)
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	return ws
}

func TestDispatchReadFileReturnsContents(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := os.WriteFile(filepath.Join(ws.Root, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	args, _ := json.Marshal(fileArgs{Path: "a.txt"})
	out := Dispatch(context.Background(), &DispatchConfig{Workspace: ws}, llm.ToolCall{ID: "1", Name: "read_file", Arguments: args})
	if out.Suspended() {
		t.Fatalf("read_file should resolve synchronously")
	}
	if out.Result != "hello" {
		t.Fatalf("Result = %q, want hello", out.Result)
	}
}

func TestDispatchReadFileRejectsPathOutsideWorkspace(t *testing.T) {
	ws := newTestWorkspace(t)
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	args, _ := json.Marshal(fileArgs{Path: filepath.Join(outside, "secret.txt")})
	out := Dispatch(context.Background(), &DispatchConfig{Workspace: ws}, llm.ToolCall{ID: "1", Name: "read_file", Arguments: args})
	if out.Suspended() {
		t.Fatalf("read_file should resolve synchronously even on refusal")
	}
	var errBody map[string]string
	if err := json.Unmarshal([]byte(out.Result), &errBody); err != nil {
		t.Fatalf("expected an error JSON payload, got %q", out.Result)
	}
	if errBody["error"] == "" {
		t.Fatalf("expected a non-empty error message")
	}
}

func TestDispatchListDirListsEntries(t *testing.T) {
	ws := newTestWorkspace(t)
	if err := os.Mkdir(filepath.Join(ws.Root, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws.Root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	args, _ := json.Marshal(listDirArgs{Path: "."})
	out := Dispatch(context.Background(), &DispatchConfig{Workspace: ws}, llm.ToolCall{ID: "1", Name: "list_dir", Arguments: args})
	if out.Result == "" {
		t.Fatalf("expected a non-empty listing")
	}
}

func TestDispatchModifyFileReturnsPendingPatch(t *testing.T) {
	ws := newTestWorkspace(t)
	args, _ := json.Marshal(modifyFileArgs{Path: "new.txt", Content: "new content"})
	out := Dispatch(context.Background(), &DispatchConfig{Workspace: ws}, llm.ToolCall{ID: "1", Name: "modify_file", Arguments: args})
	if !out.Suspended() || out.FilePatch == nil {
		t.Fatalf("expected modify_file to suspend with a PendingFilePatch")
	}
	if out.FilePatch.NewContent != "new content" {
		t.Fatalf("NewContent = %q, want %q", out.FilePatch.NewContent, "new content")
	}
}

func TestDispatchModifyFileRefusedWhenReadOnly(t *testing.T) {
	ws := newTestWorkspace(t)
	args, _ := json.Marshal(modifyFileArgs{Path: "new.txt", Content: "new content"})
	out := Dispatch(context.Background(), &DispatchConfig{Workspace: ws, ReadOnly: true}, llm.ToolCall{ID: "1", Name: "modify_file", Arguments: args})
	if out.Suspended() {
		t.Fatalf("expected modify_file to be refused synchronously under --read-only")
	}
	if !containsReadOnly(out.Result) {
		t.Fatalf("expected %q to mention read_only", out.Result)
	}
}

func containsReadOnly(s string) bool {
	for i := 0; i+len("read_only") <= len(s); i++ {
		if s[i:i+len("read_only")] == "read_only" {
			return true
		}
	}
	return false
}

func TestDispatchCodeExecReturnsPendingExec(t *testing.T) {
	ws := newTestWorkspace(t)
	args, _ := json.Marshal(codeExecArgs{Language: "python", Code: "print(1)"})
	out := Dispatch(context.Background(), &DispatchConfig{Workspace: ws}, llm.ToolCall{ID: "1", Name: "code_exec", Arguments: args})
	if !out.Suspended() || out.CodeExec == nil {
		t.Fatalf("expected code_exec to suspend with a PendingCodeExec")
	}
	if out.CodeExec.Code != "print(1)" {
		t.Fatalf("Code = %q, want print(1)", out.CodeExec.Code)
	}
}

func TestDispatchUnknownToolReturnsErrorMessage(t *testing.T) {
	ws := newTestWorkspace(t)
	out := Dispatch(context.Background(), &DispatchConfig{Workspace: ws}, llm.ToolCall{ID: "1", Name: "frobnicate"})
	if out.Suspended() {
		t.Fatalf("unknown tool should resolve synchronously")
	}
	if out.Result != UnknownToolMessage("frobnicate") {
		t.Fatalf("Result = %q, want %q", out.Result, UnknownToolMessage("frobnicate"))
	}
}

func TestDispatchDisabledToolIsRefused(t *testing.T) {
	ws := newTestWorkspace(t)
	args, _ := json.Marshal(listDirArgs{Path: "."})
	out := Dispatch(context.Background(), &DispatchConfig{Workspace: ws, Enabled: map[string]bool{}}, llm.ToolCall{ID: "1", Name: "list_dir", Arguments: args})
	if out.Suspended() {
		t.Fatalf("list_dir should resolve synchronously even when disabled")
	}
	var errBody map[string]string
	if err := json.Unmarshal([]byte(out.Result), &errBody); err != nil || errBody["error"] == "" {
		t.Fatalf("expected a disabled-tool error payload, got %q", out.Result)
	}
}
