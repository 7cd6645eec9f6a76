package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Bus  BusConfig           `toml:"bus"`
	Log  LogConfig           `toml:"log"`
	UI   UIConfig            `toml:"ui"`
	Keys map[string][]string `toml:"keys"`
}

// BusConfig names the daemon endpoints on the message bus.
type BusConfig struct {
	Address                string        `toml:"address" mapstructure:"address"`
	Destination            string        `toml:"destination" mapstructure:"destination"`
	ConfigurationPath      string        `toml:"configuration_path" mapstructure:"configuration_path"`
	ConfigurationInterface string        `toml:"configuration_interface" mapstructure:"configuration_interface"`
	CallPath               string        `toml:"call_path" mapstructure:"call_path"`
	CallInterface          string        `toml:"call_interface" mapstructure:"call_interface"`
	Timeout                time.Duration `toml:"timeout" mapstructure:"timeout"`
	SignalBuffer           int           `toml:"signal_buffer" mapstructure:"signal_buffer"`
}

// LogConfig holds log file settings.
type LogConfig struct {
	File  string `toml:"file" mapstructure:"file"`
	Level string `toml:"level" mapstructure:"level"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	RefreshInterval time.Duration `toml:"refresh_interval" mapstructure:"refresh_interval"`
	AltScreen       bool          `toml:"alt_screen" mapstructure:"alt_screen"`
}

// Load reads configuration from file and env. Env var overrides use prefix RURING_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("RURING_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(homeDir(), ".config", "ruring"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("RURING")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// a missing default file is fine, an explicit one is not
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return normalize(c), nil
}

// Default returns the built-in configuration without consulting files or env.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return normalize(c)
}

// Dump writes cfg as TOML.
func Dump(w io.Writer, cfg Config) error {
	enc := toml.NewEncoder(w)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bus.address", "")
	v.SetDefault("bus.destination", "cx.ring.Ring")
	v.SetDefault("bus.configuration_path", "/cx/ring/Ring/ConfigurationManager")
	v.SetDefault("bus.configuration_interface", "cx.ring.Ring.ConfigurationManager")
	v.SetDefault("bus.call_path", "/cx/ring/Ring/CallManager")
	v.SetDefault("bus.call_interface", "cx.ring.Ring.CallManager")
	v.SetDefault("bus.timeout", 2*time.Second)
	v.SetDefault("bus.signal_buffer", 64)
	v.SetDefault("log.file", filepath.Join(homeDir(), ".local", "state", "ruring", "ruring.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("ui.refresh_interval", time.Second)
	v.SetDefault("ui.alt_screen", true)
}

func normalize(c Config) Config {
	if c.Bus.Timeout <= 0 {
		c.Bus.Timeout = 2 * time.Second
	}
	if c.Bus.SignalBuffer <= 0 {
		c.Bus.SignalBuffer = 64
	}
	if c.UI.RefreshInterval <= 0 {
		c.UI.RefreshInterval = time.Second
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if len(c.Keys) > 0 {
		keys := make(map[string][]string, len(c.Keys))
		for action, list := range c.Keys {
			action = strings.ToLower(strings.TrimSpace(action))
			if action == "" || len(list) == 0 {
				continue
			}
			keys[action] = append([]string(nil), list...)
		}
		c.Keys = keys
	}
	return c
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return os.Getenv("HOME")
}
