package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/rexliu/mcprobe/pkg/mcp"
)

// ServerConfig names the server under test and how to launch it.
type ServerConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Workdir string   `toml:"workdir"`
}

// ProbeConfig defines the scripted conversation knobs.
type ProbeConfig struct {
	ProtocolVersion string `toml:"protocolVersion"`
	ClientName      string `toml:"clientName"`
	ClientVersion   string `toml:"clientVersion"`
	ReadTimeoutMS   int    `toml:"readTimeoutMS"`
}

// StorageConfig defines the run-history database location.
type StorageConfig struct {
	DBPath string `toml:"dbPath"`
}

// LoggingConfig defines basic logging knobs.
type LoggingConfig struct {
	Level       string `toml:"level"`
	FilePath    string `toml:"filePath"`
	FileMaxSize int    `toml:"fileMaxSizeMB"`
}

// ProfileConfig aggregates configuration for a profile.
type ProfileConfig struct {
	ProfileName string        `toml:"profileName"`
	Server      ServerConfig  `toml:"server"`
	Probe       ProbeConfig   `toml:"probe"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
}

// CommandLine returns the server invocation as argv, or nil when unset.
func (cfg *ProfileConfig) CommandLine() []string {
	if cfg.Server.Command == "" {
		return nil
	}
	return append([]string{cfg.Server.Command}, cfg.Server.Args...)
}

// Load reads config.toml from the provided path.
func Load(path string) (*ProfileConfig, error) {
	var cfg ProfileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadProfile reads config.toml from a profile directory.
func LoadProfile(dir string) (*ProfileConfig, error) {
	return Load(filepath.Join(dir, "config.toml"))
}

// Save writes cfg to path as TOML.
func Save(path string, cfg *ProfileConfig) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}

// DefaultProfile returns a profile seeded with probe defaults.
func DefaultProfile(name string) *ProfileConfig {
	cfg := &ProfileConfig{ProfileName: name}
	cfg.Storage.DBPath = "history.db"
	cfg.applyDefaults()
	return cfg
}

// ResolvePath joins rel onto the profile directory unless rel is absolute.
func ResolvePath(profileDir, rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(profileDir, rel)
}

func (cfg *ProfileConfig) validate() error {
	if cfg.ProfileName == "" {
		return fmt.Errorf("profileName required")
	}
	cfg.applyDefaults()
	return nil
}

func (cfg *ProfileConfig) applyDefaults() {
	if cfg.Probe.ProtocolVersion == "" {
		cfg.Probe.ProtocolVersion = mcp.ProtocolVersion
	}
	if cfg.Probe.ClientName == "" {
		cfg.Probe.ClientName = "mcprobe"
	}
	if cfg.Probe.ClientVersion == "" {
		cfg.Probe.ClientVersion = "1.0.0"
	}
	if cfg.Probe.ReadTimeoutMS <= 0 {
		cfg.Probe.ReadTimeoutMS = 10000
	}
}
