// Package config loads dlview settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Feed describes the status feed to subscribe to.
type Feed struct {
	Address                 string `toml:"address"`
	HandshakeTimeoutSeconds int    `toml:"handshake_timeout_seconds"`
	// Origin, when set, is sent as the Origin header of the handshake.
	Origin string `toml:"origin"`
}

// Render describes the render target.
type Render struct {
	ContainerID string `toml:"container_id"`
	HumanSizes  bool   `toml:"human_sizes"`
}

// Serve configures the page server.
type Serve struct {
	Listen string `toml:"listen"`
}

// Relay configures the snapshot relay.
type Relay struct {
	Listen string `toml:"listen"`
}

// Logging configures the debug log.
type Logging struct {
	Dir            string `toml:"dir"`
	Verbose        bool   `toml:"verbose"`
	RetentionCount int    `toml:"retention_count"`
}

// Config holds every dlview setting.
type Config struct {
	Feed    Feed    `toml:"feed"`
	Render  Render  `toml:"render"`
	Serve   Serve   `toml:"serve"`
	Relay   Relay   `toml:"relay"`
	Logging Logging `toml:"logging"`
}

// HandshakeTimeout returns the feed handshake timeout as a duration.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Feed.HandshakeTimeoutSeconds) * time.Second
}

// DefaultConfigPath returns the default location of the config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load reads the config at path, or the default location when path is empty.
// A missing file yields defaults. It returns the resolved path and whether
// the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

func (c *Config) normalize() error {
	if addr := strings.TrimSpace(os.Getenv(envFeedAddress)); addr != "" {
		c.Feed.Address = addr
	}
	c.Feed.Address = strings.TrimSpace(c.Feed.Address)
	c.Feed.Origin = strings.TrimSpace(c.Feed.Origin)
	if c.Feed.Address == "" {
		c.Feed.Address = defaultFeedAddress
	}
	if c.Feed.HandshakeTimeoutSeconds == 0 {
		c.Feed.HandshakeTimeoutSeconds = defaultHandshakeTimeoutSeconds
	}
	if strings.TrimSpace(c.Render.ContainerID) == "" {
		c.Render.ContainerID = defaultContainerID
	}
	if c.Logging.Dir != "" {
		dir, err := expandPath(c.Logging.Dir)
		if err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
		c.Logging.Dir = dir
	}
	return nil
}

// Marshal encodes the config as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}

// ErrExists is returned by WriteDefault when the target file already exists.
var ErrExists = errors.New("config file already exists")

// WriteDefault writes the default configuration to path, or the default
// location when path is empty, creating parent directories as needed.
// It never overwrites an existing file.
func WriteDefault(path string) (string, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return "", err
	}
	if exists {
		return resolved, fmt.Errorf("%w: %s", ErrExists, resolved)
	}

	cfg := Default()
	data, err := cfg.Marshal()
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return resolved, nil
}
