// Package config loads and saves TOML configuration shared by the
// sasm, slink, and semu command-line tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the defaults each tool falls back to when a flag isn't
// given explicitly on the command line.
type Config struct {
	// Assembler settings
	Assembler struct {
		DefaultOutput string `toml:"default_output"`
		Verbose       bool   `toml:"verbose"`
	} `toml:"assembler"`

	// Linker settings
	Linker struct {
		DefaultOutput string `toml:"default_output"`
		Verbose       bool   `toml:"verbose"`
	} `toml:"linker"`

	// Emulator settings
	Emulator struct {
		MaxSteps    int  `toml:"max_steps"`
		EnableTrace bool `toml:"enable_trace"`
	} `toml:"emulator"`

	// Debugger settings
	Debugger struct {
		HistorySize   int  `toml:"history_size"`
		ShowRegisters bool `toml:"show_registers"`
		ShowMemory    bool `toml:"show_memory"`
		MemoryColumns int  `toml:"memory_columns"`
	} `toml:"debugger"`

	// API server settings
	APIServer struct {
		ListenAddr   string `toml:"listen_addr"`
		PollInterval int    `toml:"poll_interval_ms"`
	} `toml:"api_server"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Assembler.DefaultOutput = "a.o86"
	cfg.Assembler.Verbose = false

	cfg.Linker.DefaultOutput = "exec.sa"
	cfg.Linker.Verbose = false

	// Zero means unlimited; a program that never executes HALT runs
	// forever unless a tool opts into a budget.
	cfg.Emulator.MaxSteps = 0
	cfg.Emulator.EnableTrace = false

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowRegisters = true
	cfg.Debugger.ShowMemory = true
	cfg.Debugger.MemoryColumns = 8

	cfg.APIServer.ListenAddr = "127.0.0.1:8086"
	cfg.APIServer.PollInterval = 50

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "simple86")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "simple86")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file, falling back
// to DefaultConfig if no file exists yet.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the given file, falling back to
// DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the given file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("config: create directory %s: %w", dir, err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}

	return nil
}
