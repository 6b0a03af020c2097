package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig      `mapstructure:"auth"`
	Model     ModelConfig     `mapstructure:"model"`
	Path      PathConfig      `mapstructure:"path"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	ExpireTime  time.Duration `mapstructure:"expire_hours"`
	APIKey      string        `mapstructure:"api_key"`
	APIKeyHash  string        `mapstructure:"api_key_hash"` // bcrypt 哈希，设置后优先于明文比对
	AdminAPIKey string        `mapstructure:"admin_api_key"`
}

type ModelConfig struct {
	ArtifactDir    string `mapstructure:"artifact_dir"`
	TopK           int    `mapstructure:"top_k"`
	MinioEndpoint  string `mapstructure:"minio_endpoint"`
	MinioAccessID  string `mapstructure:"minio_access_key"`
	MinioSecret    string `mapstructure:"minio_secret_key"`
	MinioBucket    string `mapstructure:"minio_bucket"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`
	MinioKeyPrefix string `mapstructure:"minio_key_prefix"`
}

type PathConfig struct {
	MaxDepth   int `mapstructure:"max_depth"`
	MaxBreadth int `mapstructure:"max_breadth"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("LEARNPATH")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	viper.BindEnv("auth.api_key", "API_KEY")
	viper.BindEnv("auth.api_key_hash", "API_KEY_HASH")
	viper.BindEnv("auth.admin_api_key", "ADMIN_API_KEY")

	// Model artifacts / MinIO
	viper.BindEnv("model.artifact_dir", "MODEL_ARTIFACT_DIR")
	viper.BindEnv("model.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("model.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("model.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("model.minio_bucket", "MINIO_BUCKET")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("server.port", "SERVER_PORT")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Auth.ExpireTime = cfg.Auth.ExpireTime * time.Hour

	if cfg.Model.TopK <= 0 {
		cfg.Model.TopK = 3
	}
	if cfg.Path.MaxDepth <= 0 {
		cfg.Path.MaxDepth = 2
	}
	if cfg.Path.MaxBreadth <= 0 {
		cfg.Path.MaxBreadth = 3
	}
	if cfg.Model.ArtifactDir == "" {
		cfg.Model.ArtifactDir = "models"
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.Auth.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.Auth.JWTSecret))
	}

	return &cfg, nil
}
