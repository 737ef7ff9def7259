package runtime

import (
	"time"

	"github.com/deepchat/deepchat/internal/session"
	"github.com/deepchat/deepchat/internal/tabs"
)

// FileSessionHandler implements SessionHandler against the JSON
// conversation files in internal/session, handling the `/save` and
// `/open` pending-command variants that reach the active tab as a
// SessionCommand.
type FileSessionHandler struct {
	AppName string
}

func (h *FileSessionHandler) Handle(cmd SessionCommand, tab *tabs.Tab) (string, error) {
	switch cmd.Action {
	case "save":
		conv := session.FromTab(tab.ConversationID, tab.Category, tab.App)
		path, err := session.SaveConversation(h.AppName, conv, time.Now())
		if err != nil {
			return "", err
		}
		tab.ConversationID = conv.ID
		return path, nil
	case "open":
		conv, err := session.LoadConversation(h.AppName, cmd.Path)
		if err != nil {
			return "", err
		}
		tab.ConversationID = conv.ID
		tab.App.Messages = conv.Messages
		return cmd.Path, nil
	}
	return "", nil
}
