package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	bitbarSecret    = "project/mobile/firefox-tv/tokens"
	bitbarTokenFile = ".bitbar_token.json"
)

type bitbarToken struct {
	APIKey   string `json:"api_key"`
	CloudURL string `json:"cloud_url"`
}

// writeBitbarToken stores the device-farm credentials for the test scripts
// of the same task. The file is readable by the task user only.
func (a *App) writeBitbarToken(ctx context.Context) error {
	raw, err := a.client.Secret(ctx, bitbarSecret)
	if err != nil {
		return fmt.Errorf("failed to fetch device farm token: %w", err)
	}

	var token bitbarToken
	if err := json.Unmarshal(raw, &token); err != nil {
		return fmt.Errorf("failed to decode device farm token: %w", err)
	}
	if token.APIKey == "" || token.CloudURL == "" {
		return fmt.Errorf("secret %s must contain api_key and cloud_url", bitbarSecret)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	path := filepath.Join(a.config.OutputDir, bitbarTokenFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	a.logger.Info("Device farm token written.", "path", path)
	return nil
}
