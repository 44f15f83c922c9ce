package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/chronodrachma/verushash/pkg/core/consensus"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "VERUSHASH"

// Config holds the runtime options for the vrshash tools.
type Config struct {
	ChainName     string
	LogLevel      string
	LogFormat     string
	Engine        string
	LegacyReverse bool

	// CacheDir enables the Badger digest cache. CacheMemory keeps it in memory.
	CacheDir    string
	CacheMemory bool

	// RedisAddr is the host:port of a Redis server and enables the Redis
	// digest cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		ChainName: "VRSC",
		LogLevel:  "info",
		LogFormat: "text",
		Engine:    consensus.EngineAuto,
	}
}

// SetDefaults registers Defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("chain-name", d.ChainName)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("engine", d.Engine)
	v.SetDefault("legacy-reverse", d.LegacyReverse)
	v.SetDefault("cache-dir", d.CacheDir)
	v.SetDefault("cache-memory", d.CacheMemory)
	v.SetDefault("redis-addr", d.RedisAddr)
	v.SetDefault("redis-password", d.RedisPassword)
	v.SetDefault("redis-db", d.RedisDB)
}

// Load reads a Config from v, which may be backed by flags, a config file
// and VERUSHASH_* environment variables.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := Config{
		ChainName:     v.GetString("chain-name"),
		LogLevel:      v.GetString("log-level"),
		LogFormat:     v.GetString("log-format"),
		Engine:        v.GetString("engine"),
		LegacyReverse: v.GetBool("legacy-reverse"),
		CacheDir:      v.GetString("cache-dir"),
		CacheMemory:   v.GetBool("cache-memory"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated options.
func (c Config) Validate() error {
	switch c.Engine {
	case consensus.EngineAuto, consensus.EngineNative, consensus.EngineSHA256:
	default:
		return errors.Errorf("engine must be one of auto, native, sha256; got %q", c.Engine)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("log-format must be text or json; got %q", c.LogFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log-level")
	}
	if c.CacheDir != "" && c.CacheMemory {
		return errors.New("cache-dir and cache-memory are mutually exclusive")
	}
	return nil
}

// NewLogger builds the logrus entry every component logs through.
func NewLogger(c Config) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger.WithField("app", "vrshash")
}
