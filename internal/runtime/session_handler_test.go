package runtime

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/deepchat/deepchat/internal/chatmodel"
	"github.com/deepchat/deepchat/internal/llm"
)

func TestHandlePendingCommandSessionSaveAppendsConfirmation(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	d, _, _ := newTestDispatcher()
	d.Session = &FileSessionHandler{AppName: "deepchat-test"}
	active := d.Model.Active()
	active.App.Messages = append(active.App.Messages, chatmodel.Message{
		Role:  llm.RoleUser,
		Parts: []llm.Part{{Type: llm.PartText, Text: "hello"}},
	})

	d.HandlePendingCommand(SessionCommand{Action: "save"})

	last := active.App.Messages[len(active.App.Messages)-1]
	if !strings.HasPrefix(last.TextContent(), "已保存会话：") {
		t.Fatalf("expected a 已保存会话 confirmation, got %q", last.TextContent())
	}
	if active.ConversationID == "" {
		t.Fatalf("expected the tab to remember its conversation id after saving")
	}
	if !strings.HasSuffix(last.TextContent(), filepath.Join("conversations", active.ConversationID+".json")) {
		t.Fatalf("expected the confirmation to name the saved file path, got %q", last.TextContent())
	}
}

func TestHandlePendingCommandSessionSaveTwiceReusesID(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	d, _, _ := newTestDispatcher()
	d.Session = &FileSessionHandler{AppName: "deepchat-test"}

	d.HandlePendingCommand(SessionCommand{Action: "save"})
	first := d.Model.Active().ConversationID
	d.HandlePendingCommand(SessionCommand{Action: "save"})
	second := d.Model.Active().ConversationID

	if first == "" || first != second {
		t.Fatalf("expected the second save to reuse the first conversation id, got %q then %q", first, second)
	}
}
