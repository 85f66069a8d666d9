package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "PK1...xyz"
}

// CheckAPIKeys returns the status of the market data credentials.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Alpaca API Key", cfg.News.AlpacaKey, EnvPrefix+"_NEWS_ALPACA_KEY", "APCA_API_KEY_ID"),
		checkKey("Alpaca API Secret", cfg.News.AlpacaSecret, EnvPrefix+"_NEWS_ALPACA_SECRET", "APCA_API_SECRET_KEY"),
	}
}

// HasAlpacaCredentials reports whether both Alpaca credentials are present.
func (c *Config) HasAlpacaCredentials() bool {
	return c.News.AlpacaKey != "" && c.News.AlpacaSecret != ""
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:   name,
		IsSet:  value != "",
		Source: KeySourceNone,
	}
	if value == "" {
		return status
	}
	status.Source = KeySourceConfig
	for _, e := range envVars {
		if os.Getenv(e) != "" {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
