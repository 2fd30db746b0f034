package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadFile reads scraper overrides from a YAML document shaped like ScraperConfig.
func LoadFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Overrides{}, ErrConfigNotFound
		}
		return Overrides{}, err
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Overrides{}, err
	}
	return o, nil
}

// FindConfigFile returns explicit when it exists, otherwise the first of
// ./.appcrawl.yaml and $XDG_CONFIG_HOME/appcrawl/config.yaml that exists.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}

	candidates := []string{DefaultConfigFile, filepath.Join(ConfigDir(), "config.yaml")}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// ConfigDir is the per-user configuration directory.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DataDir is where screenshots and the state database go by default.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
