package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	OptionPolicyStrict  = "strict"
	OptionPolicyLenient = "lenient"

	// 旧版示例配置中的占位密钥，任何模式下都不接受
	placeholderJWTSecret = "change-me-to-a-32-character-secret!!"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Mail      MailConfig
	Survey    SurveyConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool   `mapstructure:"-"`
	MigrateOnly  bool   `mapstructure:"-"`
	Path         string `mapstructure:"-"`
}

type ServerConfig struct {
	Port        string
	Mode        string
	WatchConfig bool `mapstructure:"watch_config"`
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

// Configured 连接参数是否足以连接数据库
func (c DatabaseConfig) Configured() bool {
	return c.Host != "" && c.DBName != ""
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type MailConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	APIKey         string   `mapstructure:"api_key"`
	From           string   `mapstructure:"from"`
	To             []string `mapstructure:"to"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

func (c MailConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type SurveyConfig struct {
	OptionPolicy string `mapstructure:"option_policy"`
	Timezone     string `mapstructure:"timezone"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type RedisConfig struct {
	Enabled           bool
	Host              string
	Port              int
	Password          string
	DB                int
	SummaryTTLSeconds int `mapstructure:"summary_ttl_seconds"`
}

func (c RedisConfig) SummaryTTL() time.Duration {
	if c.SummaryTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.SummaryTTLSeconds) * time.Second
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("mail.from", "CBME Survey <onboarding@resend.dev>")
	v.SetDefault("mail.timeout_seconds", 10)
	v.SetDefault("survey.option_policy", OptionPolicyStrict)
	v.SetDefault("survey.timezone", "Asia/Taipei")
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.summary_ttl_seconds", 300)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CBME_SURVEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Database
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Mail
	v.BindEnv("mail.api_key", "RESEND_API_KEY")
	v.BindEnv("mail.to", "EMAIL_TO")
	v.BindEnv("mail.from", "EMAIL_FROM")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Path = path

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Survey.OptionPolicy {
	case OptionPolicyStrict, OptionPolicyLenient:
	default:
		return fmt.Errorf("survey.option_policy must be %q or %q, got %q", OptionPolicyStrict, OptionPolicyLenient, c.Survey.OptionPolicy)
	}

	if c.JWT.Secret == placeholderJWTSecret {
		return fmt.Errorf("JWT secret is the published placeholder, set JWT_SECRET")
	}
	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("JWT secret is not set, JWT_SECRET is required in release mode")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
		}
	}

	if c.Mail.Enabled && (c.Mail.APIKey == "" || len(c.Mail.To) == 0) {
		return fmt.Errorf("mail is enabled but api_key or recipients are missing")
	}

	return nil
}
