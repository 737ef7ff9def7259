package broker

import (
	"os"
	"strings"

	diff "github.com/shogoki/gotextdiff"
)

// BuildFilePatch renders a unified diff between the file's current
// content and the modify_file tool call's proposed content, grounded on
// the teacher's internal/ui/unified_diff.go's gotextdiff.Diff call. The
// raw unified diff is stored as Diff; Preview is a shortened version
// capped at previewLines for the overlay's scroll-free summary row.
// NewContent is kept verbatim (not just the diff) since Apply needs the
// full proposed file, not a patch-applier.
func BuildFilePatch(toolCallID, path, oldContent, newContent string, previewLines int) *PendingFilePatch {
	raw := diff.Diff(path, []byte(oldContent), path, []byte(newContent))
	text := string(raw)
	return &PendingFilePatch{
		ToolCallID: toolCallID,
		Path:       path,
		Diff:       text,
		Preview:    truncateDiff(text, previewLines),
		NewContent: newContent,
	}
}

// FileApplier is the default Applier: it writes NewContent to Path
// verbatim, preserving the file's existing permissions via os.WriteFile
// defaulting to 0644 for a file that doesn't yet exist (dispatchModifyFile
// already resolved Path through Workspace.Resolve when it built the
// patch, so containment is Workspace.Resolve's job, not this one's).
type FileApplier struct{}

func (FileApplier) Apply(pending *PendingFilePatch) error {
	return os.WriteFile(pending.Path, []byte(pending.NewContent), 0644)
}

func truncateDiff(diffText string, maxLines int) string {
	if maxLines <= 0 {
		return diffText
	}
	lines := strings.Split(diffText, "\n")
	if len(lines) <= maxLines {
		return diffText
	}
	return strings.Join(lines[:maxLines], "\n") + "\n…"
}
