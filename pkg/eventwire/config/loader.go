package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile loads a settings file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read settings file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported settings file extension: %s", ext)
	}
}

// LoadSettings loads the eventwire settings from a file. An empty path or a
// missing file yields the defaults, so processes run unconfigured out of the
// box; any other read or parse failure is an error.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return SettingsFrom(New(nil)), nil
	}
	cfg, err := FromFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return SettingsFrom(New(nil)), nil
		}
		return Settings{}, err
	}
	return SettingsFrom(cfg), nil
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}
