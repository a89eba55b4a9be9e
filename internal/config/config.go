// Package config provides configuration file support for sonda.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the sonda configuration file structure.
type Config struct {
	// Ping holds defaults of the ping command
	Ping PingDefaults `yaml:"ping"`

	// Traceroute holds defaults of the traceroute command
	Traceroute TraceDefaults `yaml:"traceroute"`

	// Output selects how results are printed
	Output OutputDefaults `yaml:"output"`

	// MaxMind points at local GeoLite2/GeoIP2 databases
	MaxMind MaxMindConfig `yaml:"maxmind"`

	// LogLevel is a logrus level name
	LogLevel string `yaml:"log_level"`

	// Aliases for common targets
	Aliases map[string]string `yaml:"aliases,omitempty"`
}

// PingDefaults holds default values for echo runs.
type PingDefaults struct {
	TTL      int           `yaml:"ttl"`
	Size     int           `yaml:"size"`
	Count    int           `yaml:"count"` // -1 runs until interrupted
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
	Quiet    bool          `yaml:"quiet"`
}

// TraceDefaults holds default values for trace parameters.
type TraceDefaults struct {
	FirstTTL   int           `yaml:"first_ttl"`
	MaxHops    int           `yaml:"max_hops"`
	Queries    int           `yaml:"queries"`
	PacketSize int           `yaml:"packet_size"`
	Timeout    time.Duration `yaml:"timeout"`

	// ICMPType is the probe message: echo or timestamp
	ICMPType string `yaml:"icmp_type"`
	Debug    bool   `yaml:"debug"`
}

// OutputDefaults holds output mode defaults.
type OutputDefaults struct {
	NoColor      bool `yaml:"no_color"`
	JSON         bool `yaml:"json"`
	CSV          bool `yaml:"csv"`
	TUI          bool `yaml:"tui"`
	VerboseTable bool `yaml:"verbose_table"`
}

// MaxMindConfig holds paths of MaxMind databases. Empty paths disable the
// corresponding annotation.
type MaxMindConfig struct {
	ASNDB  string `yaml:"asn_db"`
	CityDB string `yaml:"city_db"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Ping: PingDefaults{
			TTL:      64,
			Size:     56,
			Count:    -1,
			Interval: time.Second,
			Timeout:  time.Second,
		},
		Traceroute: TraceDefaults{
			FirstTTL:   1,
			MaxHops:    30,
			Queries:    3,
			PacketSize: 40,
			Timeout:    time.Second,
			ICMPType:   "echo",
		},
		LogLevel: "warn",
		Aliases:  make(map[string]string),
	}
}

// Load reads configuration from the default config file locations.
// It searches in order:
//  1. ./sonda.yaml (current directory)
//  2. ./.sonda.yaml
//  3. $XDG_CONFIG_HOME/sonda/config.yaml or ~/.config/sonda/config.yaml
//  4. %APPDATA%\sonda\config.yaml (Windows)
//
// If no config file is found, returns default configuration.
func Load() (*Config, string, error) {
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			config, err := LoadFrom(path)
			return config, path, err
		}
	}

	// No config file found, return defaults
	return DefaultConfig(), "", nil
}

// LoadFrom reads configuration from a specific file path. Keys missing
// from the file keep their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Resolve returns the target an alias stands for, or target itself.
func (c *Config) Resolve(target string) string {
	if alias, ok := c.Aliases[target]; ok && alias != "" {
		return alias
	}
	return target
}

// WriteExample writes the annotated example configuration to path,
// creating its directory. An existing file is never overwritten.
func WriteExample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(GenerateExample()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// getConfigPaths returns the list of config file paths to search.
func getConfigPaths() []string {
	paths := []string{
		"sonda.yaml",
		"sonda.yml",
		".sonda.yaml",
		".sonda.yml",
	}

	// Add user config path
	userPath := getUserConfigPath()
	if userPath != "" {
		paths = append(paths, userPath)
	}

	return paths
}

// getUserConfigPath returns the user-specific config file path.
func getUserConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "sonda", "config.yaml")
		}
	default: // Linux, macOS, etc.
		// Check XDG_CONFIG_HOME first
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "sonda", "config.yaml")
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".config", "sonda", "config.yaml")
		}
	}
	return ""
}

// GetConfigPath returns the path where user config would be saved.
func GetConfigPath() string {
	return getUserConfigPath()
}

// GenerateExample generates an example configuration file content.
func GenerateExample() string {
	return `# sonda configuration file
# Location: ~/.config/sonda/config.yaml (Linux/macOS)
#           %APPDATA%\sonda\config.yaml (Windows)
#           ./sonda.yaml (current directory)

ping:
  ttl: 64                 # IP time to live of echo requests
  size: 56                # Payload bytes after the ICMP header
  count: -1               # Requests to send, -1 until interrupted
  interval: 1s            # Wait between requests
  timeout: 1s             # Wait for each reply
  quiet: false            # Print only the summary

traceroute:
  first_ttl: 1            # Starting hop
  max_hops: 30            # Maximum number of hops
  queries: 3              # Probes per hop
  packet_size: 40         # ICMP bytes per probe
  timeout: 1s             # Wait for each probe
  icmp_type: echo         # echo or timestamp
  debug: false            # Set SO_DEBUG on the socket

output:
  no_color: false         # Disable colors
  json: false             # JSON output
  csv: false              # CSV output (traceroute)
  tui: false              # Interactive TUI (traceroute)
  verbose_table: false    # Detailed table output

# Local MaxMind databases for hop annotation (optional)
maxmind:
  asn_db: ""              # e.g. /usr/share/GeoIP/GeoLite2-ASN.mmdb
  city_db: ""             # e.g. /usr/share/GeoIP/GeoLite2-City.mmdb

log_level: warn           # trace, debug, info, warn, error

# Target aliases (optional)
aliases:
  dns: 8.8.8.8
  cf: 1.1.1.1
`
}
