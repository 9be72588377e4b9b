package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"itrun/pkg/logging"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/itrun"
	projectConfigDir = ".itrun"
	configFileName   = "config.yaml"
)

// LoadConfig loads the itrun configuration by layering default, user, project
// and explicit settings. explicitPath may be empty; when set, the file must exist.
func LoadConfig(explicitPath string) (RunnerConfig, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. User-specific configuration is optional
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine user config path: %v", err)
	} else if err := overlayIfExists(userConfigPath, &config); err != nil {
		return RunnerConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
	}

	// 3. Project-specific configuration is optional
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine project config path: %v", err)
	} else if err := overlayIfExists(projectConfigPath, &config); err != nil {
		return RunnerConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
	}

	// 4. Explicit configuration must be readable
	if explicitPath != "" {
		if err := overlayFromFile(explicitPath, &config); err != nil {
			return RunnerConfig{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
	}

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	dir, err := GetUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func overlayIfExists(filePath string, config *RunnerConfig) error {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	logging.Debug("Config", "Loading configuration layer %s", filePath)
	return overlayFromFile(filePath, config)
}

// overlayFromFile decodes a YAML file on top of config. Fields absent from the
// file keep their current value; lists present in the file replace the current list.
func overlayFromFile(filePath string, config *RunnerConfig) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
