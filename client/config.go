package client

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// DefaultLocalSockname is the forwarding daemon's socket path.
const DefaultLocalSockname = "/tmp/.ccnd.sock"

// Config carries the handle's environment-derived settings. It is
// captured once at handle creation; the environment is never
// consulted afterwards, so tests can inject their own values.
type Config struct {
	// SocketPath overrides the daemon socket path entirely.
	SocketPath string `yaml:"socket_path"`
	// LocalPort, at most 10 characters, is appended to the default
	// socket path as ".<port>".
	LocalPort string `yaml:"local_port"`
	// Verbose enables error reporting through the logger.
	Verbose bool `yaml:"verbose"`
	// TapPrefix, when set, enables raw outbound traffic capture to
	// "<prefix>-<pid>-<sec>-<usec>".
	TapPrefix string `yaml:"tap"`
}

// DefaultConfig reads CCN_DEBUG, CCN_TAP and CCN_LOCAL_PORT.
func DefaultConfig() Config {
	return Config{
		LocalPort: os.Getenv("CCN_LOCAL_PORT"),
		Verbose:   os.Getenv("CCN_DEBUG") != "",
		TapPrefix: os.Getenv("CCN_TAP"),
	}
}

// LoadConfig reads a Config from a YAML file, strictly.
func LoadConfig(file string) (Config, error) {
	f, err := os.Open(file)
	if err != nil {
		return Config{}, fmt.Errorf("open configuration file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f, yaml.Strict())
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse configuration file: %w", err)
	}
	return cfg, nil
}

// SocketName resolves the daemon socket path this configuration
// selects.
func (c Config) SocketName() string {
	return c.socketName("")
}

// socketName resolves the daemon socket path for Connect. An
// explicit name wins, then the configured override, then the default
// with the optional port suffix.
func (c Config) socketName(name string) string {
	if name != "" {
		return name
	}
	if c.SocketPath != "" {
		return c.SocketPath
	}
	if c.LocalPort != "" && len(c.LocalPort) <= 10 {
		return DefaultLocalSockname + "." + c.LocalPort
	}
	return DefaultLocalSockname
}
