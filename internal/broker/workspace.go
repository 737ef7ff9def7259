// Package broker implements the Tool Broker (C7): tool-call
// classification, workspace path containment, the human-in-the-loop
// approval state machines for code_exec/modify_file/question_review,
// and the LiveExec process handle those spawn. Grounded on the
// teacher's internal/tools package and, for workspace containment and
// the pending-approval state machines, on original_source's
// ui/runtime_impl/workspace.rs and
// ui/runtime_loop_helpers/pending/actions.rs.
package broker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideWorkspace is returned verbatim — including the exact
// Chinese text — when a path resolves outside the workspace root,
// matching original_source's resolve_container_path error string
// literally (spec.md §4.7 names this string).
var ErrOutsideWorkspace = errors.New("禁止访问 workspace 之外的路径")

// Workspace resolves and contains tool file paths to a single root
// directory (spec.md §4.7's containment rule).
type Workspace struct {
	Root string // canonicalized absolute path
}

// NewWorkspace canonicalizes root, erroring if it doesn't exist or isn't
// a directory.
func NewWorkspace(root string) (*Workspace, error) {
	trimmed := strings.TrimSpace(root)
	if trimmed == "" {
		return nil, errors.New("workspace path must not be empty")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("workspace path is not a directory")
	}
	return &Workspace{Root: real}, nil
}

// Resolve canonicalizes path (absolute or relative) and verifies it
// falls within the workspace root, returning ErrOutsideWorkspace
// otherwise. Ported from original_source's resolve_container_path,
// minus the host/container mount-path translation (this is a terminal
// client operating directly on the host filesystem, not a sandboxed
// container mount, so the resolved path is returned as-is rather than
// rewritten under a mount prefix).
func (w *Workspace) Resolve(path string) (string, error) {
	raw := strings.TrimSpace(path)
	if raw == "" {
		return "", errors.New("path must not be empty")
	}
	var candidate string
	if filepath.IsAbs(raw) {
		candidate = raw
	} else {
		candidate = filepath.Join(w.Root, raw)
	}
	real, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		// The target may not exist yet (e.g. a file about to be
		// written) — fall back to canonicalizing the parent directory
		// (EvalSymlinks) and re-check containment on that, since the file
		// itself can't be canonicalized.
		real, err = resolveNonExistent(candidate)
		if err != nil {
			return "", err
		}
	}
	if !withinRoot(real, w.Root) {
		return "", ErrOutsideWorkspace
	}
	return real, nil
}

func resolveNonExistent(path string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	realDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(realDir, base), nil
}

func withinRoot(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
