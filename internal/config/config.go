// Package config loads wordline settings from defaults, a YAML file, .env and
// WORDLINE_* environment variables, in increasing order of precedence
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shivavenkatesh/wordline/internal/chunking"
	"github.com/shivavenkatesh/wordline/internal/transcript"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "WORDLINE"

// Config holds all wordline settings
type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Chunking ChunkingConfig `mapstructure:"chunking"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// LogConfig controls logger construction
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

// ChunkingConfig holds default segmentation parameters
type ChunkingConfig struct {
	TargetChunkChars     int  `mapstructure:"target_chunk_chars"`
	MinTurnsPerChunk     int  `mapstructure:"min_turns_per_chunk"`
	FallbackChunkChars   int  `mapstructure:"fallback_chunk_chars"`
	FallbackOverlapChars int  `mapstructure:"fallback_overlap_chars"`
	AllowNameOnlyHeader  bool `mapstructure:"allow_name_only_header"`
}

// CacheConfig sizes the segmentation result cache
type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// IngestConfig controls directory indexing
type IngestConfig struct {
	MaxParallel int      `mapstructure:"max_parallel"`
	Ignore      []string `mapstructure:"ignore"`
}

// WatchConfig controls the directory watcher
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "~/.wordline")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 3457)
	v.SetDefault("server.max_upload_mb", 20)

	v.SetDefault("chunking.target_chunk_chars", chunking.DefaultTargetChunkChars)
	v.SetDefault("chunking.min_turns_per_chunk", chunking.DefaultMinTurnsPerChunk)
	v.SetDefault("chunking.fallback_chunk_chars", chunking.DefaultFallbackChunkChars)
	v.SetDefault("chunking.fallback_overlap_chars", chunking.DefaultFallbackOverlapChars)
	v.SetDefault("chunking.allow_name_only_header", true)

	v.SetDefault("cache.size", 256)
	v.SetDefault("ingest.max_parallel", 4)
	v.SetDefault("ingest.ignore", transcript.DefaultConfig().IndexIgnore)
	v.SetDefault("watch.debounce", 500*time.Millisecond)
}

// Load reads configuration. An explicit configPath must exist; otherwise
// wordline.yaml is looked up in the working directory and the default data
// directory, and its absence is not an error.
func Load(configPath string) (*Config, error) {
	// .env is optional and never overrides variables already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		v.SetConfigName("wordline")
		v.AddConfigPath(".")
		v.AddConfigPath(ExpandHome("~/.wordline"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.DataDir = ExpandHome(cfg.DataDir)
	if cfg.Ingest.MaxParallel < 1 {
		cfg.Ingest.MaxParallel = 1
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 20
	}
	return &cfg, nil
}

// ChunkingOptions converts the chunking section to segmenter options
func (c *Config) ChunkingOptions() chunking.Options {
	return chunking.Options{
		TargetChunkChars:     c.Chunking.TargetChunkChars,
		MinTurnsPerChunk:     c.Chunking.MinTurnsPerChunk,
		FallbackChunkChars:   c.Chunking.FallbackChunkChars,
		FallbackOverlapChars: c.Chunking.FallbackOverlapChars,
		AllowNameOnlyHeader:  c.Chunking.AllowNameOnlyHeader,
	}.Normalize()
}

// Service builds the transcript service configuration
func (c *Config) Service(defaultProject string) transcript.Config {
	return transcript.Config{
		DataDir:        c.DataDir,
		DefaultProject: defaultProject,
		IndexIgnore:    c.Ingest.Ignore,
		MaxParallel:    c.Ingest.MaxParallel,
		Defaults:       c.ChunkingOptions(),
	}
}

// DBPath returns the SQLite database location
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "wordline.db")
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
