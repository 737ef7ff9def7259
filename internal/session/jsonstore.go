package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deepchat/deepchat/internal/chatmodel"
)

// Conversation is the exact shape spec.md §6 names for a persisted
// conversation file: one JSON document per tab under
// ~/.local/share/<app>/conversations/<id>.json. This is the source of
// truth for conversation content. Nothing in the application opens the
// sqlite-backed Store in this package, so these files are the only
// persisted copy.
type Conversation struct {
	ID                  string              `json:"id"`
	Category            string              `json:"category"`
	Messages            []chatmodel.Message `json:"messages"`
	ModelKey            string              `json:"model_key,omitempty"`
	PromptKey           string              `json:"prompt_key,omitempty"`
	CodeExecContainerID string              `json:"code_exec_container_id,omitempty"`
}

// NewConversationID mirrors spec.md §6's id default: concatenated
// seconds.micros of the Unix epoch at creation.
func NewConversationID(t time.Time) string {
	return fmt.Sprintf("%d.%d", t.Unix(), t.UnixMicro()%1_000_000)
}

// ConversationDir returns ~/.local/share/<app>/conversations,
// creating it if missing.
func ConversationDir(appName string) (string, error) {
	dataDir, err := dataDirFor(appName)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(dataDir, "conversations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create conversations dir: %w", err)
	}
	return dir, nil
}

func dataDirFor(appName string) (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// ConversationPath returns the full path a conversation with the given
// id would be saved to.
func ConversationPath(appName, id string) (string, error) {
	dir, err := ConversationDir(appName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, id+".json"), nil
}

// SaveConversation writes c to its conversation file, assigning a fresh
// ID via NewConversationID if c.ID is empty. Returns the path written.
func SaveConversation(appName string, c *Conversation, now time.Time) (string, error) {
	if c.ID == "" {
		c.ID = NewConversationID(now)
	}
	path, err := ConversationPath(appName, c.ID)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode conversation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write conversation file: %w", err)
	}
	return path, nil
}

// LoadConversation reads a conversation file by id.
func LoadConversation(appName, id string) (*Conversation, error) {
	path, err := ConversationPath(appName, id)
	if err != nil {
		return nil, err
	}
	return loadConversationFile(path)
}

// LoadConversationFromPath reads a conversation file at an explicit
// path rather than by id. --resume does not call it; it loads by id
// through LoadConversation.
func LoadConversationFromPath(path string) (*Conversation, error) {
	return loadConversationFile(path)
}

func loadConversationFile(path string) (*Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversation file: %w", err)
	}
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode conversation file %s: %w", path, err)
	}
	return &c, nil
}

// FromTab builds a Conversation snapshot from a tab's category/App, the
// shape SaveConversation persists. existingID is carried over from a
// prior save (empty for a tab that has never been saved), letting
// repeated /save calls overwrite the same file instead of minting a new
// one each time.
func FromTab(existingID, category string, app *chatmodel.App) *Conversation {
	return &Conversation{
		ID:        existingID,
		Category:  category,
		Messages:  app.Messages,
		ModelKey:  app.ModelKey,
		PromptKey: app.PromptKey,
	}
}
