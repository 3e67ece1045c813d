package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RMG_DASHBOARD_SERVER_ADDR.
const EnvPrefix = "RMG_DASHBOARD"

// Config holds process configuration for rmgdash.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Charts   ChartsConfig   `mapstructure:"charts"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr     string `mapstructure:"addr"`
	BasePath string `mapstructure:"base_path"`
}

// DatasetConfig selects the demo dataset and extra widget packs.
type DatasetConfig struct {
	Seed      int64    `mapstructure:"seed"`
	Manifests []string `mapstructure:"manifests"`
}

// ChatConfig tunes the simulated collaboration replies.
type ChatConfig struct {
	ReplyDelay time.Duration `mapstructure:"reply_delay"`
}

// ChartsConfig tunes chart rendering.
type ChartsConfig struct {
	Theme      string        `mapstructure:"theme"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	AssetsHost string        `mapstructure:"assets_host"`
}

// UpstreamConfig points at a live resourcing API. When URL is empty the
// generated demo dataset is served.
type UpstreamConfig struct {
	URL         string        `mapstructure:"url"`
	APIKey      string        `mapstructure:"api_key"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// Enabled reports whether a live upstream is configured.
func (u UpstreamConfig) Enabled() bool {
	return strings.TrimSpace(u.URL) != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_path", "/rmg")
	v.SetDefault("dataset.seed", int64(20240611))
	v.SetDefault("dataset.manifests", []string{})
	v.SetDefault("chat.reply_delay", "1500ms")
	v.SetDefault("charts.theme", "westeros")
	v.SetDefault("charts.cache_ttl", "1m")
	v.SetDefault("charts.assets_host", "")
	v.SetDefault("upstream.url", "")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.snapshot_ttl", "5m")
	v.SetDefault("log.verbose", false)
}

// Load reads configuration from path (or RMG_DASHBOARD_CONFIG when path is
// empty) and the environment. A missing default file is not an error; an
// explicit path that cannot be read is.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("rmgdash")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if c.Server.BasePath != "" && !strings.HasPrefix(c.Server.BasePath, "/") {
		return fmt.Errorf("config: server.base_path must start with /, got %q", c.Server.BasePath)
	}
	if c.Chat.ReplyDelay < 0 {
		return fmt.Errorf("config: chat.reply_delay must not be negative")
	}
	return nil
}
