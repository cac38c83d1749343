package tmdb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type sessionFile struct {
	SessionID string `json:"session_id"`
}

// LoadSession reads a previously saved session id. A missing or unreadable
// file returns empty without error so callers fall back to the auth flow.
func LoadSession(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var stored sessionFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return ""
	}
	return stored.SessionID
}

// SaveSession persists the session id for later runs.
func SaveSession(path, sessionID string) error {
	data, err := json.MarshalIndent(sessionFile{SessionID: sessionID}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
