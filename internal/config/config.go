// Package config loads dohapi settings from flags, DOHAPI_* environment
// variables and a YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/shalmon/dohapi/internal/appdir"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "DOHAPI"

// Defaults applied when no flag, env var or file sets a key.
const (
	DefaultOutput      = "text"
	DefaultConcurrency = 10
	DefaultDoHBurst    = 10
	DefaultCacheTTL    = 5 * time.Minute
)

// Config is the resolved configuration.
type Config struct {
	// ConfigFile is the file the configuration was read from.
	ConfigFile string `mapstructure:"-"`

	Verbose     bool          `mapstructure:"verbose"`
	Output      string        `mapstructure:"output"`
	Provider    string        `mapstructure:"provider"`
	Proxy       string        `mapstructure:"proxy"`
	UserAgent   string        `mapstructure:"user_agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
	DoHRPS      float64       `mapstructure:"doh_rps"`
	DoHBurst    int           `mapstructure:"doh_burst"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// DefaultConfigPath returns <UserConfigDir>/dohapi/config.yaml.
func DefaultConfigPath() (string, error) {
	return appdir.ConfigFile()
}

// RegisterFlags adds the global flags backing every config key to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default <user config dir>/dohapi/config.yaml)")
	fs.BoolP("verbose", "v", false, "enable debug logging")
	fs.StringP("output", "o", DefaultOutput, "output format: text, json, table")
	fs.StringP("provider", "p", "", "DoH provider used to resolve hostnames (default CloudFlare)")
	fs.String("proxy", "", "SOCKS5 proxy URL (socks5://host:port)")
	fs.String("user-agent", "", "User-Agent for outgoing requests")
	fs.Duration("timeout", 0, "per-request timeout (0 = no timeout)")
	fs.IntP("concurrency", "c", DefaultConcurrency, "number of requests run in parallel")
	fs.Float64("doh-rps", 0, "maximum DoH queries per second (0 = unlimited)")
	fs.Int("doh-burst", DefaultDoHBurst, "DoH query burst size")
	fs.Duration("cache-ttl", DefaultCacheTTL, "maximum DoH answer cache lifetime (0 disables the cache)")
}

// Load resolves the configuration for fs, which must carry the flags added by
// RegisterFlags. The config file is created empty (0600) when missing.
func Load(fs *pflag.FlagSet) (*Config, error) {
	path, err := fs.GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}
	if err := appdir.EnsureFile(path); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		bindErr = errors.Join(bindErr, v.BindPFlag(NormalizeKey(f.Name), f))
	})
	if bindErr != nil {
		return nil, fmt.Errorf("binding flags: %w", bindErr)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ConfigFile = path
	return &cfg, nil
}

// Set validates value for key and writes it to the config file at path.
// Only keys already present in the file are kept alongside it; resolved
// defaults are never written back.
func Set(path, key, value string) error {
	parsed, err := ParseValue(key, value)
	if err != nil {
		return err
	}
	if d, ok := parsed.(time.Duration); ok {
		parsed = d.String()
	}

	raw := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}
	raw[NormalizeKey(key)] = parsed

	out, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return appdir.WriteFile(path, out)
}
