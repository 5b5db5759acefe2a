package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/flowgraph/flowchart/pkg/flowchart"
	"github.com/flowgraph/flowchart/pkg/serialization"
)

// Flag names for Viper binding
const (
	// Global flags
	FlagConfig   = "config"
	FlagVerbose  = "verbose"
	FlagLogFile  = "log-file"
	FlagLogLevel = "log-level"
	FlagStore    = "store"
	FlagDSN      = "dsn"

	// Replay command flags
	FlagFrom            = "from"
	FlagSaveAs          = "save-as"
	FlagTag             = "tag"
	FlagTimeout         = "timeout"
	FlagContinueOnError = "continue-on-error"
	FlagIncludeData     = "include-data"
	FlagMetrics         = "metrics"

	// Output flags
	FlagJSON   = "json"
	FlagFormat = "format"

	// List command flags
	FlagName  = "name"
	FlagLimit = "limit"
)

// EnvPrefix prefixes every environment override, e.g. FLOWCHART_STORE_DSN.
const EnvPrefix = "FLOWCHART"

// Config is the CLI configuration.
// Precedence (later overrides earlier): defaults, config file, FLOWCHART_*
// environment variables, flags.
type Config struct {
	Diagram       flowchart.Config    `mapstructure:"diagram"`
	Store         StoreConfig         `mapstructure:"store"`
	Serialization SerializationConfig `mapstructure:"serialization"`
	Log           LogConfig           `mapstructure:"log"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Driver   string        `mapstructure:"driver"` // memory, sqlite, postgres, redis
	DSN      string        `mapstructure:"dsn"`    // sqlite path, postgres DSN or redis URL
	Prefix   string        `mapstructure:"prefix"` // redis key prefix
	TTL      time.Duration `mapstructure:"ttl"`    // redis document expiry, 0 keeps forever
	MaxBytes int64         `mapstructure:"max_bytes"`
}

// SerializationConfig configures document and snapshot blobs.
type SerializationConfig struct {
	Codec       string `mapstructure:"codec"`
	Compression string `mapstructure:"compression"`
	Key         string `mapstructure:"key"` // hex-encoded AES key
}

// LogConfig configures logging and file rotation.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Store drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

var errUnknownDriver = errors.New("unknown store driver")

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	d := flowchart.DefaultConfig()
	v.SetDefault("diagram.container", d.Container)
	v.SetDefault("diagram.direction", d.Direction)
	v.SetDefault("diagram.width", d.Width)
	v.SetDefault("diagram.height", d.Height)
	v.SetDefault("diagram.renderer", d.Renderer)
	v.SetDefault("diagram.back_step", d.BackStep)
	v.SetDefault("diagram.base_node_color", d.BaseNodeColor)
	v.SetDefault("diagram.base_edge_color", d.BaseEdgeColor)
	v.SetDefault("diagram.fit_view", d.FitView)
	v.SetDefault("diagram.resize_quiet_period", d.ResizeQuietPeriod)

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.prefix", "flowchart")
	v.SetDefault("store.ttl", time.Duration(0))
	v.SetDefault("store.max_bytes", int64(0))

	v.SetDefault("serialization.codec", "msgpack")
	v.SetDefault("serialization.compression", "zstd")
	v.SetDefault("serialization.key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)
}

// loadConfig reads the optional config file and unmarshals the merged
// settings. An explicit --config path must exist; otherwise flowchart.yaml
// in the working directory is used when present.
func loadConfig(v *viper.Viper) (*Config, error) {
	if path := v.GetString(FlagConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("flowchart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := flowchart.ValidateConfig(cfg.Diagram); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverRedis:
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownDriver, cfg.Store.Driver)
	}
	return &cfg, nil
}

// serializer builds the blob pipeline from the config.
func (c SerializationConfig) serializer() (*serialization.Serializer, error) {
	codec, err := serialization.CodecByName(c.Codec)
	if err != nil {
		return nil, err
	}
	compression, err := serialization.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	var key []byte
	if c.Key != "" {
		if key, err = hex.DecodeString(c.Key); err != nil {
			return nil, fmt.Errorf("serialization key: %w", err)
		}
	}
	return serialization.New(serialization.Options{Codec: codec, Compression: compression, Key: key})
}
