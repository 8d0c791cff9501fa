package commands

import (
	"github.com/colonyops/beacon/internal/core/config"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/beacon/config.yaml.
func DefaultConfigPath() string {
	p, _ := config.DefaultPaths()
	return p
}

// DefaultDataDir returns $XDG_DATA_HOME/beacon.
func DefaultDataDir() string {
	_, d := config.DefaultPaths()
	return d
}
