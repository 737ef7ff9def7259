package llm

import "testing"

func TestToolResultMessage_PlainText(t *testing.T) {
	msg := ToolResultMessage("call-1", "write_file", "Created new file: /tmp/test.go (10 lines).")

	if len(msg.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(msg.Parts))
	}
	result := msg.Parts[0].ToolResult
	if result == nil {
		t.Fatal("expected ToolResult to be non-nil")
	}
	if result.Content != "Created new file: /tmp/test.go (10 lines)." {
		t.Errorf("Content = %q, want raw text", result.Content)
	}
	if result.IsError {
		t.Error("expected IsError = false")
	}
	if msg.Role != RoleTool {
		t.Errorf("Role = %q, want %q", msg.Role, RoleTool)
	}
}

func TestSystemUserAssistantText(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		role Role
	}{
		{"system", SystemText("be terse"), RoleSystem},
		{"user", UserText("hi"), RoleUser},
		{"assistant", AssistantText("hello"), RoleAssistant},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.msg.Role != c.role {
				t.Errorf("Role = %q, want %q", c.msg.Role, c.role)
			}
			if len(c.msg.Parts) != 1 || c.msg.Parts[0].Type != PartText {
				t.Fatalf("expected a single text part, got %#v", c.msg.Parts)
			}
		})
	}
}
