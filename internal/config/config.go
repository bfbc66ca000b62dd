// Package config provides YAML-based configuration for the server and the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the root of the YAML configuration file
type AppConfig struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Storage configuration for the sync collaborator
	Storage StorageConfig `yaml:"storage"`

	// Client configuration for the CLI
	Client ClientConfig `yaml:"client"`

	// Persistence of client state between CLI runs
	Persistence PersistenceConfig `yaml:"persistence"`

	// Advanced options
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bind_address"`
	EnableCORS   bool   `yaml:"enable_cors"`
	AllowOrigins string `yaml:"allow_origins"`
	ReadTimeout  int    `yaml:"read_timeout_seconds"`
	WriteTimeout int    `yaml:"write_timeout_seconds"`
	IdleTimeout  int    `yaml:"idle_timeout_seconds"`
	BodyLimit    string `yaml:"body_limit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `yaml:"data_directory"`
	UploadsDirectory string `yaml:"uploads_directory"`
}

// ClientConfig contains settings for talking to the analysis backend
type ClientConfig struct {
	BackendURL            string `yaml:"backend_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	UploadField           string `yaml:"upload_field"`
}

// PersistenceConfig selects where client state is kept
type PersistenceConfig struct {
	Backend      string `yaml:"backend"` // file, sqlite, duckdb or memory
	Codec        string `yaml:"codec"`   // json or msgpack
	NamespaceKey string `yaml:"namespace_key"`
	Directory    string `yaml:"directory"`
}

// AdvancedConfig contains tuning options
type AdvancedConfig struct {
	EnableRequestLogging bool `yaml:"enable_request_logging"`
	ShowErrorDetails     bool `yaml:"show_error_details"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "100M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
		},
		Client: ClientConfig{
			BackendURL:            "http://localhost:8000",
			RequestTimeoutSeconds: 60,
			UploadField:           "file",
		},
		Persistence: PersistenceConfig{
			Backend:      "file",
			Codec:        "json",
			NamespaceKey: "analysis-app-storage",
			Directory:    "./data/state",
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging: true,
			ShowErrorDetails:     false,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is created
// with the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration as YAML
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Analysis client and storage server configuration\n# This file is auto-generated on first run\n\n")
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, append(header, output...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects settings the rest of the program cannot use
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Persistence.Backend {
	case "file", "sqlite", "duckdb", "memory":
	default:
		return fmt.Errorf("unknown persistence backend %q", c.Persistence.Backend)
	}
	switch c.Persistence.Codec {
	case "", "json", "msgpack":
	default:
		return fmt.Errorf("unknown persistence codec %q", c.Persistence.Codec)
	}
	if c.Client.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves every directory that still sits under the default data dir
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		old := c.Storage.DataDirectory
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = rebase(c.Storage.UploadsDirectory, old, dataDir)
		c.Persistence.Directory = rebase(c.Persistence.Directory, old, dataDir)
	}

	if url := os.Getenv("ANALISIS_BACKEND_URL"); url != "" {
		c.Client.BackendURL = url
	}

	if backend := os.Getenv("ANALISIS_STATE_BACKEND"); backend != "" {
		c.Persistence.Backend = strings.ToLower(backend)
	}
}

func rebase(path, oldBase, newBase string) string {
	rel, err := filepath.Rel(filepath.Clean(oldBase), filepath.Clean(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.Join(newBase, rel)
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Persistence.Directory,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetAllowOrigins splits the comma-separated origin list
func (c *AppConfig) GetAllowOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}
	if c.Persistence.Backend != "memory" {
		dirs = append(dirs, c.Persistence.Directory)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
