package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config with optional booleans so an absent key can be
// told apart from false.
type FileConfig struct {
	ProgID        string `toml:"prog_id"`
	Visible       *bool  `toml:"visible"`
	DisplayAlerts *bool  `toml:"display_alerts"`
	SheetName     string `toml:"sheet_name"`
	Output        string `toml:"output"`
	PageSize      int    `toml:"page_size"`
	Debug         *bool  `toml:"debug"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.excel-com/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".excel-com", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setString("prog-id", fc.ProgID, &cfg.ProgID)
	s.setString("sheet-name", fc.SheetName, &cfg.SheetName)
	s.setString("output", fc.Output, &cfg.Output)
	s.setInt("page-size", fc.PageSize, &cfg.PageSize)

	s.setBool("visible", fc.Visible, &cfg.Visible)
	s.setBool("display-alerts", fc.DisplayAlerts, &cfg.DisplayAlerts)
	s.setBool("debug", fc.Debug, &cfg.Debug)
}

// Load reads path into cfg when the file exists. A missing file is not an
// error; flags and defaults are used as they are.
func Load(cfg *Config, path string, changed map[string]bool) error {
	if path == "" || !FileExists(path) {
		return nil
	}
	fc, err := LoadFileConfig(path)
	if err != nil {
		return err
	}
	ApplyFileConfig(cfg, fc, changed)
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
