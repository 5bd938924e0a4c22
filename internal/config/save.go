package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/lydakis/sitectl/internal/paths"
)

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	return SaveTo(paths.ConfigFile(), cfg)
}

// SaveTo encodes cfg as TOML and replaces path atomically. A nil cfg
// writes Default(). The file is 0600 since headers may carry credentials.
func SaveTo(path string, cfg *Config) error {
	if cfg == nil {
		cfg = Default()
	}

	var payload bytes.Buffer
	if err := toml.NewEncoder(&payload).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := paths.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return writeAtomic(path, payload.Bytes())
}

// writeAtomic writes data to a sibling temp file and renames it over path,
// so readers never observe a partial config.
func writeAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp config file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("setting config permissions: %w", err)
	}
	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp config file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp config file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp config file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing config file: %w", err)
	}
	return nil
}
