package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the main configuration for lexdesk.
type Config struct {
	BaseDir      string             `toml:"base_dir"`
	LogDir       string             `toml:"log_dir"`
	LogLevel     string             `toml:"log_level" env:"LEXDESK_LOG_LEVEL"` // DEBUG, INFO, WARN or ERROR
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Storage      StorageConfig      `toml:"storage"`
	Encryption   EncryptionConfig   `toml:"encryption"`
	Integrations IntegrationsConfig `toml:"integrations"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr                   string `toml:"addr" env:"LEXDESK_ADDR"`
	ReadTimeoutSeconds     int    `toml:"read_timeout_seconds"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// DatabaseConfig represents configuration for the persistent store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// StorageConfig represents configuration for the blob store holding uploaded files.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible services; empty for AWS

	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty" env:"LEXDESK_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty" env:"LEXDESK_S3_SECRET_ACCESS_KEY"`

	// Filesystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`
}

// EncryptionConfig selects at-rest encryption of stored files.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default) or "age"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// IntegrationsConfig holds third-party credentials. Every secret can be
// supplied through its environment variable instead of the file.
type IntegrationsConfig struct {
	Email         EmailConfig         `toml:"email"`
	Stripe        StripeConfig        `toml:"stripe"`
	Calendar      CalendarConfig      `toml:"calendar"`
	CourtListener CourtListenerConfig `toml:"court_listener"`
	AI21          AI21Config          `toml:"ai21"`
	Clockify      ClockifyConfig      `toml:"clockify"`
}

type EmailConfig struct {
	ResendAPIKey string `toml:"resend_api_key" env:"RESEND_API_KEY"`
	FromEmail    string `toml:"from_email" env:"LEXDESK_FROM_EMAIL"`
	BaseURL      string `toml:"base_url,omitempty"`
}

type StripeConfig struct {
	SecretKey     string `toml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `toml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	BaseURL       string `toml:"base_url,omitempty"`
}

type CalendarConfig struct {
	ClientID     string `toml:"client_id" env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	BaseURL      string `toml:"base_url,omitempty"`
}

type CourtListenerConfig struct {
	APIKey  string `toml:"api_key" env:"COURT_LISTENER_API_KEY"`
	BaseURL string `toml:"base_url,omitempty"`
}

type AI21Config struct {
	APIKey  string `toml:"api_key" env:"AI21_API_KEY"`
	BaseURL string `toml:"base_url,omitempty"`
}

type ClockifyConfig struct {
	APIKey      string `toml:"api_key" env:"CLOCKIFY_API_KEY"`
	WorkspaceID string `toml:"workspace_id" env:"CLOCKIFY_WORKSPACE_ID"`
	BaseURL     string `toml:"base_url,omitempty"`
}

// NewConfig creates a new Config rooted at baseDir with local defaults.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:  baseDir,
		LogDir:   filepath.Join(baseDir, "log"),
		LogLevel: "INFO",
		Server: ServerConfig{
			Addr:                   "127.0.0.1:8080",
			ReadTimeoutSeconds:     15,
			ShutdownTimeoutSeconds: 10,
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Storage:  StorageConfig{Type: "filesystem", FSRoot: filepath.Join(baseDir, "files")},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "lexdesk.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "lexdesk.key"),
		},
	}
}

// Validate checks the tagged unions for a known type and its required fields.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "memory":
	case "sqlite":
		if c.Database.DataDir == "" {
			return fmt.Errorf("database: data_dir required for sqlite")
		}
	default:
		return fmt.Errorf("database: unknown type %q", c.Database.Type)
	}

	switch c.Storage.Type {
	case "memory":
	case "filesystem":
		if c.Storage.FSRoot == "" {
			return fmt.Errorf("storage: fs_root required for filesystem storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage: s3_bucket required for s3 storage")
		}
	default:
		return fmt.Errorf("storage: unknown type %q", c.Storage.Type)
	}

	switch c.Encryption.Type {
	case "", "none":
	case "age":
		if c.Encryption.PublicKeyPath == "" || c.Encryption.PrivateKeyPath == "" {
			return fmt.Errorf("encryption: key paths required for age")
		}
	default:
		return fmt.Errorf("encryption: unknown type %q", c.Encryption.Type)
	}

	switch c.LogLevel {
	case "", "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values from the environment variables named in
// the env tags. Unset variables leave the file values in place.
func ApplyEnv(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path and applies
// environment overrides.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may hold API secrets.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
