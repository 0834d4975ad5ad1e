// Package config loads tracematch settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the service.
type Config struct {
	DataDir      string
	DBPath       string
	TemplatePath string
	PluginDir    string
	WebDir       string
	Addr         string

	Scanner       string
	ScanPeriod    time.Duration
	PluginTimeout time.Duration
	K             int

	Locations          []string
	Gestures           []string
	ExamplesPerGesture int
}

// Load reads envFile if it exists, then builds a Config from the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	dataDir := getEnv("TRACEMATCH_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tracematch")
	}

	cfg := &Config{
		DataDir:      dataDir,
		DBPath:       getEnv("TRACEMATCH_DB_PATH", filepath.Join(dataDir, "fingerprints.db")),
		TemplatePath: getEnv("TRACEMATCH_TEMPLATE_PATH", filepath.Join(dataDir, "gestures001.dat")),
		PluginDir:    getEnv("TRACEMATCH_PLUGIN_DIR", filepath.Join(dataDir, "plugins")),
		WebDir:       getEnv("TRACEMATCH_WEB_DIR", ""),
		Addr:         getEnv("TRACEMATCH_ADDR", ":8080"),

		Scanner:       getEnv("TRACEMATCH_SCANNER", "wifi-scan"),
		ScanPeriod:    getEnvAsDuration("TRACEMATCH_SCAN_PERIOD", 3*time.Second),
		PluginTimeout: getEnvAsDuration("TRACEMATCH_PLUGIN_TIMEOUT", 5*time.Second),
		K:             getEnvAsInt("TRACEMATCH_K", 3),

		Locations:          getEnvAsList("TRACEMATCH_LOCATIONS", []string{"Location 1", "Location 2", "Location 3", "Location 4"}),
		Gestures:           getEnvAsList("TRACEMATCH_GESTURES", []string{"circle", "check", "triangle"}),
		ExamplesPerGesture: getEnvAsInt("TRACEMATCH_EXAMPLES_PER_GESTURE", 3),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.K <= 0:
		return fmt.Errorf("TRACEMATCH_K must be positive, got %d", c.K)
	case c.ScanPeriod <= 0:
		return fmt.Errorf("TRACEMATCH_SCAN_PERIOD must be positive, got %s", c.ScanPeriod)
	case c.PluginTimeout <= 0:
		return fmt.Errorf("TRACEMATCH_PLUGIN_TIMEOUT must be positive, got %s", c.PluginTimeout)
	case c.ExamplesPerGesture <= 0:
		return fmt.Errorf("TRACEMATCH_EXAMPLES_PER_GESTURE must be positive, got %d", c.ExamplesPerGesture)
	case len(c.Gestures) == 0:
		return errors.New("TRACEMATCH_GESTURES must name at least one gesture")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blank entries.
func getEnvAsList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
