package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Storage backends for the local blob.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds application configuration.
type Config struct {
	QuickAddFolder string  `mapstructure:"quickAddFolder" yaml:"quickAddFolder"`
	Storage        Storage `mapstructure:"storage" yaml:"storage"`
	Remote         Remote  `mapstructure:"remote" yaml:"remote"`
	Server         Server  `mapstructure:"server" yaml:"server"`
	Log            Log     `mapstructure:"log" yaml:"log"`
	Cull           Cull    `mapstructure:"cull" yaml:"cull"`
}

// Storage selects where anonymous (signed-out) data lives.
type Storage struct {
	Backend       string `mapstructure:"backend" yaml:"backend"` // json | sqlite | redis
	Path          string `mapstructure:"path" yaml:"path"`
	RedisAddr     string `mapstructure:"redisAddr" yaml:"redisAddr,omitempty"`
	RedisPassword string `mapstructure:"redisPassword" yaml:"redisPassword,omitempty"`
	RedisDB       int    `mapstructure:"redisDB" yaml:"redisDB,omitempty"`
	RedisKey      string `mapstructure:"redisKey" yaml:"redisKey,omitempty"`
}

// Remote configures the account service used once signed in.
type Remote struct {
	BaseURL   string        `mapstructure:"baseURL" yaml:"baseURL"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	TokenFile string        `mapstructure:"tokenFile" yaml:"tokenFile"`
}

// Server configures `bm serve`.
type Server struct {
	Listen   string    `mapstructure:"listen" yaml:"listen"`
	DataDir  string    `mapstructure:"dataDir" yaml:"dataDir"`
	Accounts []Account `mapstructure:"accounts" yaml:"accounts,omitempty"`
}

// Account maps a bearer token to an account name on the reference server.
type Account struct {
	Name  string `mapstructure:"name" yaml:"name"`
	Token string `mapstructure:"token" yaml:"token"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

type Cull struct {
	ExcludeDomains []string      `mapstructure:"excludeDomains" yaml:"excludeDomains"`
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultConfig returns the default configuration rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		QuickAddFolder: "Read Later",
		Storage: Storage{
			Backend: BackendJSON,
			Path:    filepath.Join(dir, "bookmarks.json"),
		},
		Remote: Remote{
			BaseURL:   "http://localhost:8080",
			Timeout:   15 * time.Second,
			TokenFile: filepath.Join(dir, "token"),
		},
		Server: Server{
			Listen:  ":8080",
			DataDir: filepath.Join(dir, "server"),
		},
		Log: Log{
			Level:  "warn",
			Pretty: true,
		},
		Cull: Cull{
			ExcludeDomains: []string{"github.com", "gitlab.com"},
			Concurrency:    10,
			Timeout:        10 * time.Second,
		},
	}
}

// Load reads config from the YAML file at path, applying BM_* environment
// overrides (e.g. BM_STORAGE_BACKEND) and defaults for missing fields.
// Creates the file with defaults if it doesn't exist.
func Load(path string) (*Config, error) {
	defaults := DefaultConfig(filepath.Dir(path))

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// Non-fatal: defaults still apply when the file can't be written.
		_ = Save(path, &defaults)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, defaults)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &cfg, nil
}

// setDefaults registers every leaf so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("quickAddFolder", d.QuickAddFolder)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.redisAddr", "localhost:6379")
	v.SetDefault("storage.redisPassword", "")
	v.SetDefault("storage.redisDB", 0)
	v.SetDefault("storage.redisKey", "")
	v.SetDefault("remote.baseURL", d.Remote.BaseURL)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.tokenFile", d.Remote.TokenFile)
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.dataDir", d.Server.DataDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
	v.SetDefault("cull.excludeDomains", d.Cull.ExcludeDomains)
	v.SetDefault("cull.concurrency", d.Cull.Concurrency)
	v.SetDefault("cull.timeout", d.Cull.Timeout)
}

// Save writes config to the YAML file.
// Creates the directory if it doesn't exist.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultDir returns ~/.config/bm.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "bm"), nil
}

// DefaultPath returns the default config path: ~/.config/bm/config.yaml
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
