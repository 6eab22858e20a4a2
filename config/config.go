package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 进程级配置；来源为 config.yaml + TAGSTREAM_ 前缀环境变量
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Poll     PollConfig     `mapstructure:"poll"`
	Hashtags HashtagConfig  `mapstructure:"hashtags"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// BrowsePageSize 按标签浏览时单页帖子数上限
	BrowsePageSize int `mapstructure:"browse_page_size"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	// Driver 取 sqlite 或 postgres
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Addr    string        `mapstructure:"addr"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type PollConfig struct {
	// ExportPath 非空时启动拉取循环，从该频道导出文件增量读取
	ExportPath string        `mapstructure:"export_path"`
	Interval   time.Duration `mapstructure:"interval"`
	Timeout    time.Duration `mapstructure:"timeout"`
	PageSize   int           `mapstructure:"page_size"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
}

type HashtagConfig struct {
	// Vocabulary 固定识别的标签集合（含 # 前缀），启动时幂等写入统计表
	Vocabulary []string `mapstructure:"vocabulary"`
}

// Load 读取配置；文件缺失时仅用默认值与环境变量
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.browse_page_size", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "tagstream.db")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.ttl", 5*time.Minute)
	v.SetDefault("poll.interval", 5*time.Second)
	v.SetDefault("poll.timeout", 30*time.Second)
	v.SetDefault("poll.page_size", 100)
	v.SetDefault("poll.rate_per_sec", 1)
	v.SetDefault("hashtags.vocabulary", []string{})

	v.SetEnvPrefix("TAGSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
