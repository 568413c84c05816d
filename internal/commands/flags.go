package commands

import (
	"os"
	"path/filepath"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/config"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/data/db"
)

// appName names the config, data and log directories.
const appName = "4ndr0debugger"

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string
	Model      string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// DB is opened in the Before hook after migrations have run
	DB *db.DB
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName)
}
