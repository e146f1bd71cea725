package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigPath is where Load looks when no path is given.
const DefaultConfigPath = "~/.config/llsub/config.toml"

// Load builds the configuration from the TOML file at path, the environment
// and opts. An empty path falls back to DefaultConfigPath, then ./llsub.toml;
// a missing default file is not an error, a missing explicit one is.
func Load(path string, opts ...Option) (*Config, string, error) {
	config := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}
	if path != "" && !exists {
		return nil, "", fmt.Errorf("config file %s does not exist", resolved)
	}

	if exists {
		if err := decodeFile(resolved, &config); err != nil {
			return nil, "", err
		}
	}

	cfg, err := finish(&config, opts)
	if err != nil {
		return nil, "", err
	}
	if !exists {
		resolved = ""
	}
	return cfg, resolved, nil
}

func decodeFile(path string, config *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: %s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		return expanded, exists, err
	}

	defaultPath, err := expandPath(DefaultConfigPath)
	if err != nil {
		return "", false, err
	}
	if exists, err := isFile(defaultPath); err != nil || exists {
		return defaultPath, exists, err
	}

	projectPath, err := filepath.Abs("llsub.toml")
	if err != nil {
		return "", false, err
	}
	exists, err := isFile(projectPath)
	return projectPath, exists, err
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// SampleTOML renders cfg as a TOML document, with secrets left out.
func SampleTOML(cfg Config) ([]byte, error) {
	cfg.Google.APIKey = ""
	cfg.LLM.APIKey = ""
	return toml.Marshal(cfg)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
