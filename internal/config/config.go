package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers supported by the persistence adapter
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageBlob     = "blob"
)

// Chat providers
const (
	ChatProviderBackend = "backend"
	ChatProviderOpenAI  = "openai"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Backend  BackendConfig
	Chat     ChatConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StorageConfig selects and configures the persistence adapter backend
type StorageConfig struct {
	Driver      string
	DatabaseURL string
	Blob        BlobConfig
}

// BlobConfig holds Azure Blob Storage configuration
type BlobConfig struct {
	AccountName string
	AccountKey  string
	Container   string
}

// BackendConfig holds the remote HealthMate backend configuration
type BackendConfig struct {
	URL           string
	AuthPrefix    string
	HealthTimeout time.Duration
}

// ChatConfig selects the chat provider
type ChatConfig struct {
	Provider string
	OpenAI   OpenAIConfig
}

// OpenAIConfig holds Azure OpenAI configuration
type OpenAIConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
}

// SecurityConfig holds the key used to encrypt the stored access token
type SecurityConfig struct {
	SessionKey string // hex-encoded, 32 bytes
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("healthmate")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)
	v.SetDefault("server.allowedorigins", []string{"*"})

	// Storage defaults
	v.SetDefault("storage.driver", StorageMemory)
	v.SetDefault("storage.blob.container", "healthmate-state")

	// Backend defaults
	v.SetDefault("backend.url", "http://localhost:8000")
	v.SetDefault("backend.authprefix", "/api")
	v.SetDefault("backend.healthtimeout", 5*time.Second)

	// Chat defaults
	v.SetDefault("chat.provider", ChatProviderBackend)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Storage
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.databaseurl", "DATABASE_URL")
	v.BindEnv("storage.blob.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	v.BindEnv("storage.blob.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")
	v.BindEnv("storage.blob.container", "AZURE_STORAGE_CONTAINER")

	// Backend
	v.BindEnv("backend.url", "BACKEND_URL", "VITE_API_URL")
	v.BindEnv("backend.authprefix", "BACKEND_AUTH_PREFIX")
	v.BindEnv("backend.healthtimeout", "BACKEND_HEALTH_TIMEOUT")

	// Chat
	v.BindEnv("chat.provider", "CHAT_PROVIDER")
	v.BindEnv("chat.openai.endpoint", "AZURE_OPENAI_ENDPOINT")
	v.BindEnv("chat.openai.apikey", "AZURE_OPENAI_API_KEY")
	v.BindEnv("chat.openai.deployment", "AZURE_OPENAI_DEPLOYMENT")

	// Security
	v.BindEnv("security.sessionkey", "SESSION_ENCRYPTION_KEY")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}

	if c.Backend.HealthTimeout <= 0 {
		return fmt.Errorf("backend.healthtimeout must be positive")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.databaseurl is required for the postgres driver")
		}
	case StorageBlob:
		if c.Storage.Blob.AccountName == "" || c.Storage.Blob.AccountKey == "" {
			return fmt.Errorf("azure storage credentials are required for the blob driver")
		}
		if c.Storage.Blob.Container == "" {
			return fmt.Errorf("storage.blob.container is required for the blob driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Chat.Provider {
	case ChatProviderBackend:
	case ChatProviderOpenAI:
		if c.Chat.OpenAI.Endpoint == "" || c.Chat.OpenAI.APIKey == "" || c.Chat.OpenAI.Deployment == "" {
			return fmt.Errorf("chat.openai endpoint, apikey and deployment are required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown chat provider %q", c.Chat.Provider)
	}

	if c.Security.SessionKey != "" {
		if _, err := c.SessionKeyBytes(); err != nil {
			return err
		}
	}

	return nil
}

// SessionKeyBytes decodes the session encryption key. It returns nil when unset.
func (c *Config) SessionKeyBytes() ([]byte, error) {
	if c.Security.SessionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.Security.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("security.sessionkey must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("security.sessionkey must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
