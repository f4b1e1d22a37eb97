package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Log        LogConfig        `mapstructure:"log"`
	Quota      QuotaConfig      `mapstructure:"quota"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Generation GenerationConfig `mapstructure:"generation"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // 控制台彩色输出，开发环境使用
}

// QuotaConfig 免费用户每日配额
type QuotaConfig struct {
	DailyLimit     int `mapstructure:"daily_limit"`
	FreeMaxDays    int `mapstructure:"free_max_days"`
	PremiumMaxDays int `mapstructure:"premium_max_days"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// 重复事件记录保留时长
	EventTTL time.Duration `mapstructure:"event_ttl"`
}

// GenerationConfig 内容生成相关配置
type GenerationConfig struct {
	Temperature float64        `mapstructure:"temperature"`
	MaxTokens   int            `mapstructure:"max_tokens"`
	Timeout     time.Duration  `mapstructure:"timeout"` // 单次模型调用超时
	Primary     ProviderConfig `mapstructure:"primary"`
	Secondary   ProviderConfig `mapstructure:"secondary"`
}

type ProviderConfig struct {
	Name    string `mapstructure:"name"`
	Kind    string `mapstructure:"kind"` // openai, anthropic, gemini
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// IsRelease 是否生产环境
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("quota.daily_limit", 2)
	v.SetDefault("quota.free_max_days", 30)
	v.SetDefault("quota.premium_max_days", 90)
	v.SetDefault("stripe.event_ttl", 72*time.Hour)
	v.SetDefault("generation.temperature", 0.8)
	v.SetDefault("generation.max_tokens", 4000)
	v.SetDefault("generation.timeout", 30*time.Second)
	v.SetDefault("generation.primary.name", "deepseek")
	v.SetDefault("generation.primary.kind", "openai")
	v.SetDefault("generation.primary.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("generation.primary.model", "deepseek-chat")
	v.SetDefault("generation.secondary.name", "claude")
	v.SetDefault("generation.secondary.kind", "anthropic")
	v.SetDefault("generation.secondary.model", "claude-3-7-sonnet-latest")
}

func Load(configPath string) (*Config, error) {
	// .env 中的密钥优先注入环境变量，文件不存在时忽略
	_ = godotenv.Load()

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
