package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr            string        `yaml:"addr" validate:"required"`
	Mode            string        `yaml:"mode" validate:"omitempty,oneof=debug release test"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type MySQL struct {
	DSN          string `yaml:"dsn" validate:"required"`
	MaxOpenConns int    `yaml:"maxOpenConns" validate:"omitempty,min=1"`
	MaxIdleConns int    `yaml:"maxIdleConns" validate:"omitempty,min=0"`
}

type Redis struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
}

type JWT struct {
	AccessSecret  string        `yaml:"accessSecret" validate:"required"`
	RefreshSecret string        `yaml:"refreshSecret" validate:"required"`
	AccessTTL     time.Duration `yaml:"accessTTL"`
	RefreshTTL    time.Duration `yaml:"refreshTTL"`
}

// Kafka 为空表示不启用通知转发
type Kafka struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic" validate:"required_with=Brokers"`
	RelayInterval time.Duration `yaml:"relayInterval"`
	RelayBatch    int           `yaml:"relayBatch" validate:"omitempty,min=1"`
	MaxRetry      int           `yaml:"maxRetry" validate:"omitempty,min=1"`
}

func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0
}

type SMTP struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type Notify struct {
	QueueSize int           `yaml:"queueSize" validate:"omitempty,min=1"`
	Workers   int           `yaml:"workers" validate:"omitempty,min=1"`
	UnreadTTL time.Duration `yaml:"unreadTTL"`
}

type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
}

type RateLimit struct {
	RPS   float64 `yaml:"rps" validate:"min=0"`
	Burst int     `yaml:"burst" validate:"min=0"`
}

type Config struct {
	Env       string    `yaml:"env"`
	Server    Server    `yaml:"server"`
	MySQL     MySQL     `yaml:"mysql"`
	Redis     Redis     `yaml:"redis"`
	JWT       JWT       `yaml:"jwt"`
	Kafka     Kafka     `yaml:"kafka"`
	SMTP      SMTP      `yaml:"smtp"`
	Notify    Notify    `yaml:"notify"`
	Log       Log       `yaml:"log"`
	RateLimit RateLimit `yaml:"rateLimit"`
}

var validate = validator.New()

// 密钥类配置允许用环境变量覆盖
const (
	EnvMySQLDSN      = "VOLUNTEER_MYSQL_DSN"
	EnvRedisPassword = "VOLUNTEER_REDIS_PASSWORD"
	EnvAccessSecret  = "VOLUNTEER_JWT_ACCESS_SECRET"
	EnvRefreshSecret = "VOLUNTEER_JWT_REFRESH_SECRET"
	EnvSMTPPassword  = "VOLUNTEER_SMTP_PASSWORD"
)

// Load 读取 yaml，叠加环境变量，补默认值后校验
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	override(&c.MySQL.DSN, EnvMySQLDSN)
	override(&c.Redis.Password, EnvRedisPassword)
	override(&c.JWT.AccessSecret, EnvAccessSecret)
	override(&c.JWT.RefreshSecret, EnvRefreshSecret)
	override(&c.SMTP.Password, EnvSMTPPassword)
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.MySQL.MaxOpenConns == 0 {
		c.MySQL.MaxOpenConns = 50
	}
	if c.MySQL.MaxIdleConns == 0 {
		c.MySQL.MaxIdleConns = 10
	}
	if c.Kafka.RelayInterval <= 0 {
		c.Kafka.RelayInterval = time.Second
	}
	if c.Kafka.RelayBatch == 0 {
		c.Kafka.RelayBatch = 200
	}
	if c.Kafka.MaxRetry == 0 {
		c.Kafka.MaxRetry = 5
	}
	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = 1024
	}
	if c.Notify.Workers == 0 {
		c.Notify.Workers = 4
	}
	if c.Notify.UnreadTTL <= 0 {
		c.Notify.UnreadTTL = 10 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
