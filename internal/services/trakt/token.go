package trakt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadToken reads previously saved token material. A missing or unreadable
// file returns nil without error so callers fall back to the device flow.
func LoadToken(path string) *Token {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil
	}
	if token.AccessToken == "" {
		return nil
	}
	return &token
}

// SaveToken persists token material for later runs.
func SaveToken(path string, token *Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}
