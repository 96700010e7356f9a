package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Secrets holds credentials for the upstream APIs. Values from the secrets
// file can be overridden through the environment (a .env file is honored).
type Secrets struct {
	Twitch   TwitchSecrets   `json:"TWITCH"`
	MediaCMS MediaCMSSecrets `json:"MEDIACMS"`
}

type TwitchSecrets struct {
	ClientID     string `json:"CLIENT_ID"`
	ClientSecret string `json:"CLIENT_SECRET"`
}

type MediaCMSSecrets struct {
	URL      string `json:"URL"`
	Username string `json:"USERNAME"`
	Password string `json:"PASSWORD"`
}

// LoadSecrets reads the secrets file and applies environment overrides.
func LoadSecrets(path string) (*Secrets, error) {
	// Missing .env is fine, the secrets file alone is enough.
	_ = godotenv.Load()

	secrets := &Secrets{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
		}
	} else if err := json.Unmarshal(data, secrets); err != nil {
		return nil, fmt.Errorf("malformed secrets file %s: %w", path, err)
	}

	applyEnv(&secrets.Twitch.ClientID, "TWITCH_CLIENT_ID")
	applyEnv(&secrets.Twitch.ClientSecret, "TWITCH_CLIENT_SECRET")
	applyEnv(&secrets.MediaCMS.URL, "MEDIACMS_URL")
	applyEnv(&secrets.MediaCMS.Username, "MEDIACMS_USERNAME")
	applyEnv(&secrets.MediaCMS.Password, "MEDIACMS_PASSWORD")

	if secrets.Twitch.ClientID == "" || secrets.Twitch.ClientSecret == "" {
		return nil, fmt.Errorf("missing Twitch credentials in %s", path)
	}

	return secrets, nil
}

func applyEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
