// Package config resolves the vbm directories and the user defaults file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// XDGDirs holds the resolved XDG-compliant directory paths for vbm.
type XDGDirs struct {
	// Config is ~/.config/vbm  (XDG_CONFIG_HOME)
	Config string
	// Data is ~/.local/share/vbm  (XDG_DATA_HOME)
	Data string
}

// xdgBase returns the XDG base directory, falling back to the given default
// when the environment variable is unset or empty.
func xdgBase(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, fallback)
}

// DefaultXDGDirs returns the directory set for the current environment.
func DefaultXDGDirs() XDGDirs {
	return XDGDirs{
		Config: filepath.Join(xdgBase("XDG_CONFIG_HOME", ".config"), "vbm"),
		Data:   filepath.Join(xdgBase("XDG_DATA_HOME", ".local/share"), "vbm"),
	}
}

// ConfigFile returns the path to the defaults file.
func (d XDGDirs) ConfigFile() string {
	return filepath.Join(d.Config, "config.yaml")
}

// TopologiesDir holds topologies saved by `vbm generate --save`.
func (d XDGDirs) TopologiesDir() string {
	return filepath.Join(d.Data, "topologies")
}

// EnsureDirs creates the vbm directories with mode 0700.
func (d XDGDirs) EnsureDirs() error {
	for _, dir := range []string{d.Config, d.TopologiesDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
