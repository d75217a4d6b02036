package syncconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// SyncConfig holds sync-related settings.
type SyncConfig struct {
	URL            string `json:"url"`
	PurgeAfterDays *int   `json:"purge_after_days,omitempty"` // nil = default 30
}

// Config is the global jtp config stored at ~/.config/jtp/config.json.
type Config struct {
	Sync SyncConfig `json:"sync"`
}

// AuthCredentials stores authentication state at ~/.config/jtp/auth.json.
type AuthCredentials struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	DeviceID string `json:"device_id"`
}

const defaultPurgeAfterDays = 30

// ConfigDir returns ~/.config/jtp, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "jtp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// LoadConfig reads the global config from ~/.config/jtp/config.json.
func LoadConfig() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes the global config to ~/.config/jtp/config.json.
func SaveConfig(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// LoadAuth reads auth credentials from ~/.config/jtp/auth.json.
// Returns nil without error when no credentials are stored.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveAuth writes auth credentials to ~/.config/jtp/auth.json (0600 perms).
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "auth.json"), data, 0600)
}

// ClearAuth removes the auth.json file.
func ClearAuth() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, "auth.json"))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GetServerURL returns the remote store URL.
// Priority: JTP_SYNC_URL env > config.json. Empty means sync is not set up.
func GetServerURL() string {
	if v := os.Getenv("JTP_SYNC_URL"); v != "" {
		return v
	}
	cfg, err := LoadConfig()
	if err == nil {
		return cfg.Sync.URL
	}
	return ""
}

// GetToken returns the auth token.
// Priority: JTP_AUTH_TOKEN env > auth.json.
func GetToken() string {
	if v := os.Getenv("JTP_AUTH_TOKEN"); v != "" {
		return v
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil {
		return creds.Token
	}
	return ""
}

// GetUserID returns the remote user id.
// Priority: JTP_USER_ID env > auth.json.
func GetUserID() string {
	if v := os.Getenv("JTP_USER_ID"); v != "" {
		return v
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil {
		return creds.UserID
	}
	return ""
}

// IsAuthenticated returns true if a token and user id are available.
func IsAuthenticated() bool {
	return GetToken() != "" && GetUserID() != ""
}

// GetDeviceID returns the device ID from auth.json, generating and
// persisting one if needed.
func GetDeviceID() (string, error) {
	creds, err := LoadAuth()
	if err != nil {
		return "", err
	}
	if creds != nil && creds.DeviceID != "" {
		return creds.DeviceID, nil
	}
	id := uuid.NewString()
	if creds == nil {
		creds = &AuthCredentials{}
	}
	creds.DeviceID = id
	if err := SaveAuth(creds); err != nil {
		return "", err
	}
	return id, nil
}

// GetPurgeAfterDays returns how long synced tombstones are retained.
// Priority: JTP_SYNC_PURGE_DAYS env > config.json > default (30).
func GetPurgeAfterDays() int {
	if v := os.Getenv("JTP_SYNC_PURGE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	cfg, err := LoadConfig()
	if err == nil && cfg.Sync.PurgeAfterDays != nil && *cfg.Sync.PurgeAfterDays >= 0 {
		return *cfg.Sync.PurgeAfterDays
	}
	return defaultPurgeAfterDays
}
