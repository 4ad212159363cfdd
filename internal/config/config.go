// Package config loads the bulkvcs configuration: object-db and blob-store
// root overrides, the read-only guard, and commit author identity. A global
// config file is merged with a repo-local one; repo values win, and
// environment variables override both.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envObjectDB  = "BULK_GIT_DIR"
	envBlobStore = "BULK_BLOB_STORE"

	globalConfigName = ".bulkvcsconfig"
	repoConfigName   = "config"
)

// Config holds bulkvcs's persisted settings.
type Config struct {
	User UserConfig `json:"user"`
	Core CoreConfig `json:"core"`
}

// UserConfig holds commit authorship identity.
type UserConfig struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CoreConfig holds the object-db/blob-store roots and the read-only guard.
// ReadOnly is a pointer so merging can tell an explicit false apart from an
// absent key: only a config file that actually sets the field overrides it.
type CoreConfig struct {
	ObjectDBRoot  string `json:"object_db_root,omitempty"`
	BlobStoreRoot string `json:"blob_store_root,omitempty"`
	ReadOnly      *bool  `json:"read_only,omitempty"`
}

// IsReadOnly reports whether the read-only guard is set.
func (c *CoreConfig) IsReadOnly() bool {
	return c.ReadOnly != nil && *c.ReadOnly
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{}
}

func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, globalConfigName), nil
}

func repoConfigPath(objectDBRoot string) string {
	return filepath.Join(objectDBRoot, repoConfigName)
}

// Load reads the global config, then the repo config at
// <objectDBRoot>/config (repo wins on conflict), then applies the two
// environment variables as the final override. objectDBRoot may be the
// value already resolved from flags/env, used only to locate the repo
// config file.
func Load(objectDBRoot string) (*Config, error) {
	cfg := DefaultConfig()

	if globalPath, err := globalConfigPath(); err == nil {
		if data, err := os.ReadFile(globalPath); err == nil {
			var global Config
			if err := json.Unmarshal(data, &global); err == nil {
				merge(cfg, &global)
			}
		}
	}

	if objectDBRoot != "" {
		if data, err := os.ReadFile(repoConfigPath(objectDBRoot)); err == nil {
			var repo Config
			if err := json.Unmarshal(data, &repo); err == nil {
				merge(cfg, &repo)
			}
		}
	}

	if v := os.Getenv(envObjectDB); v != "" {
		cfg.Core.ObjectDBRoot = v
	}
	if v := os.Getenv(envBlobStore); v != "" {
		cfg.Core.BlobStoreRoot = v
	}

	return cfg, nil
}

func merge(dst, src *Config) {
	if src.User.Name != "" {
		dst.User.Name = src.User.Name
	}
	if src.User.Email != "" {
		dst.User.Email = src.User.Email
	}
	if src.Core.ObjectDBRoot != "" {
		dst.Core.ObjectDBRoot = src.Core.ObjectDBRoot
	}
	if src.Core.BlobStoreRoot != "" {
		dst.Core.BlobStoreRoot = src.Core.BlobStoreRoot
	}
	if src.Core.ReadOnly != nil {
		dst.Core.ReadOnly = src.Core.ReadOnly
	}
}

// Save writes cfg to the repo config file under objectDBRoot.
func Save(objectDBRoot string, cfg *Config) error {
	if err := os.MkdirAll(objectDBRoot, 0o755); err != nil {
		return fmt.Errorf("creating object db root: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(repoConfigPath(objectDBRoot), data, 0o644)
}

// Author formats the configured commit identity as "Name <email>", failing
// if either half is unset.
func (c *Config) Author() (string, error) {
	if c.User.Name == "" || c.User.Email == "" {
		return "", fmt.Errorf("user.name and user.email not configured")
	}
	return fmt.Sprintf("%s <%s>", c.User.Name, c.User.Email), nil
}

// GetValue retrieves a dotted "section.field" config value as a string.
func GetValue(cfg *Config, key string) (string, error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid config key %q (expected section.field)", key)
	}
	switch parts[0] {
	case "user":
		switch parts[1] {
		case "name":
			return cfg.User.Name, nil
		case "email":
			return cfg.User.Email, nil
		}
	case "core":
		switch parts[1] {
		case "object_db_root":
			return cfg.Core.ObjectDBRoot, nil
		case "blob_store_root":
			return cfg.Core.BlobStoreRoot, nil
		case "read_only":
			return fmt.Sprintf("%t", cfg.Core.IsReadOnly()), nil
		}
	}
	return "", fmt.Errorf("unknown config key %q", key)
}
