package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config IdeaHub 客户端与本地开发服务端共用的配置
type Config struct {
	API struct {
		BaseURL   string
		Token     string
		Timeout   time.Duration
		RateLimit float64 // requests per second, 0 disables throttling
		Burst     int
		UserAgent string
	}
	Log struct {
		Level string
		Mode  string // "development" or "production"
	}
	Database struct {
		Type     string // "sqlite" or "postgres"
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	Redis struct {
		Addr        string
		Password    string
		DB          int
		SnapshotTTL time.Duration
	}
	Feed struct {
		DefaultTab         string
		RefetchOnTabChange bool
	}
	Telemetry struct {
		ServiceName  string
		OTLPEndpoint string
		SentryDSN    string
		Environment  string
	}
	Server struct {
		Addr          string
		JWTSecret     string
		TokenTTL      time.Duration
		CORSOrigins   []string
		TrendInterval time.Duration
		TrendWindow   time.Duration
	}
}

// Load 读取配置：config.yaml（可选）+ IDEAHUB_ 前缀环境变量 + 默认值
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("IDEAHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := FromViper(v)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper maps an already populated viper instance onto Config.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.API.BaseURL = strings.TrimRight(v.GetString("api.base_url"), "/")
	cfg.API.Token = v.GetString("api.token")
	cfg.API.Timeout = v.GetDuration("api.timeout")
	cfg.API.RateLimit = v.GetFloat64("api.rate_limit")
	cfg.API.Burst = v.GetInt("api.burst")
	cfg.API.UserAgent = v.GetString("api.user_agent")

	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Mode = v.GetString("log.mode")

	cfg.Database.Type = v.GetString("database.type")
	cfg.Database.Host = v.GetString("database.host")
	cfg.Database.Port = v.GetString("database.port")
	cfg.Database.User = v.GetString("database.user")
	cfg.Database.Password = v.GetString("database.password")
	cfg.Database.DBName = v.GetString("database.dbname")
	cfg.Database.SSLMode = v.GetString("database.sslmode")

	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.Redis.SnapshotTTL = v.GetDuration("redis.snapshot_ttl")

	cfg.Feed.DefaultTab = v.GetString("feed.default_tab")
	cfg.Feed.RefetchOnTabChange = v.GetBool("feed.refetch_on_tab_change")

	cfg.Telemetry.ServiceName = v.GetString("telemetry.service_name")
	cfg.Telemetry.OTLPEndpoint = v.GetString("telemetry.otlp_endpoint")
	cfg.Telemetry.SentryDSN = v.GetString("telemetry.sentry_dsn")
	cfg.Telemetry.Environment = v.GetString("telemetry.environment")

	cfg.Server.Addr = v.GetString("server.addr")
	cfg.Server.JWTSecret = v.GetString("server.jwt_secret")
	cfg.Server.TokenTTL = v.GetDuration("server.token_ttl")
	cfg.Server.CORSOrigins = v.GetStringSlice("server.cors_origins")
	cfg.Server.TrendInterval = v.GetDuration("server.trend_interval")
	cfg.Server.TrendWindow = v.GetDuration("server.trend_window")

	return cfg
}

// Default returns the configuration built from defaults only. Handy in tests.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return FromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.burst", 5)
	v.SetDefault("api.user_agent", "ideahub-client/1.0")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.mode", "development")

	// 本地状态库（会话 token、已评分记录）
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.dbname", "ideahub.db")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", 10*time.Minute)

	v.SetDefault("feed.default_tab", "trending")
	v.SetDefault("feed.refetch_on_tab_change", true)

	v.SetDefault("telemetry.service_name", "ideahub")
	v.SetDefault("telemetry.environment", "development")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_secret", "ideahub-dev-secret")
	v.SetDefault("server.token_ttl", 24*time.Hour)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.trend_interval", time.Minute)
	v.SetDefault("server.trend_window", 24*time.Hour)
}

func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if cfg.Database.DBName == "" {
		return fmt.Errorf("database.dbname is required")
	}
	switch cfg.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.type must be sqlite or postgres, got %q", cfg.Database.Type)
	}
	if _, err := parseTab(cfg.Feed.DefaultTab); err != nil {
		return err
	}
	return nil
}

func parseTab(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trending", "new", "best":
		return s, nil
	}
	return "", fmt.Errorf("feed.default_tab must be trending, new or best, got %q", s)
}
