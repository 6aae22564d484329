package config

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr         string   `mapstructure:"addr" env:"HTTP_ADDR,default=:8080"`
		AllowOrigins []string `mapstructure:"allow_origins" env:"HTTP_ALLOW_ORIGINS"`
	} `mapstructure:"http"`
	Downloads struct {
		Dir string        `mapstructure:"dir" env:"DOWNLOADS_DIR,default=downloads"`
		TTL time.Duration `mapstructure:"ttl" env:"DOWNLOADS_TTL,default=30m"`
	} `mapstructure:"downloads"`
	Extractor struct {
		Binary   string `mapstructure:"binary" env:"EXTRACTOR_BINARY,default=yt-dlp"`
		CacheDir string `mapstructure:"cache_dir" env:"EXTRACTOR_CACHE_DIR,default=/tmp/yt-dlp"`
	} `mapstructure:"extractor"`
	Session struct {
		Capacity int `mapstructure:"capacity" env:"SESSION_CAPACITY,default=10000"`
	} `mapstructure:"session"`
	Telegram struct {
		Bot struct {
			Token string `mapstructure:"token" env:"TELEGRAM_BOT_TOKEN"`
		} `mapstructure:"bot"`
		App struct {
			ID         int    `mapstructure:"id" env:"TELEGRAM_APP_ID"`
			Hash       string `mapstructure:"hash" env:"TELEGRAM_APP_HASH"`
			SessionDir string `mapstructure:"session_dir" env:"TELEGRAM_APP_SESSION_DIR,default=sessions"`
		} `mapstructure:"app"`
	} `mapstructure:"telegram"`
}

// BotEnabled reports whether the Telegram front end should run.
func (c *Config) BotEnabled() bool {
	return len(c.Telegram.Bot.Token) > 0
}

// UserbotEnabled reports whether uploads go through the MTProto client.
func (c *Config) UserbotEnabled() bool {
	return c.BotEnabled() && c.Telegram.App.ID != 0 && len(c.Telegram.App.Hash) > 0
}

func NewConfig(ctx context.Context, configPath string) (*Config, error) {
	var conf Config
	if len(configPath) == 0 {
		if err := envconfig.Process(ctx, &conf); err != nil {
			return nil, errors.Wrap(err, "failed to process config environment variables")
		}
		return &conf, conf.validate()
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config file '%s'", configPath)
	}
	defer f.Close()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadConfig(f); err != nil {
		return nil, errors.Wrap(err, "failed to read config yaml file")
	}
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "failed to decode config yaml file")
	}

	return &conf, conf.validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("downloads.dir", "downloads")
	v.SetDefault("downloads.ttl", "30m")
	v.SetDefault("extractor.binary", "yt-dlp")
	v.SetDefault("extractor.cache_dir", "/tmp/yt-dlp")
	v.SetDefault("session.capacity", 10_000)
	v.SetDefault("telegram.app.session_dir", "sessions")
}

func (c *Config) validate() error {
	if c.Session.Capacity < 1 {
		return errors.Errorf("session capacity must be positive, got %d", c.Session.Capacity)
	}
	if c.Downloads.TTL <= 0 {
		return errors.Errorf("downloads ttl must be positive, got %s", c.Downloads.TTL)
	}
	if len(c.Downloads.Dir) == 0 {
		return errors.New("downloads dir must not be empty")
	}

	return nil
}
