package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"dignity-dialogue"`

	// PostgreSQL 配置，host / user / database 必填
	PostgreSQLHost     string `env:"POSTGRESQL_HOST"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"10"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"50"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"dd"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// 短信通道：twilio, aliyun, stub
	// 凭据缺失时自动退化为 stub，不会真正发出短信
	SMSProvider       string `env:"SMS_PROVIDER" envDefault:"twilio"`
	TwilioAccountSID  string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `env:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `env:"TWILIO_PHONE_NUMBER"`
	// 阿里云通道的 AccessKey 通过 ALIBABA_CLOUD_ACCESS_KEY_ID / ALIBABA_CLOUD_ACCESS_KEY_SECRET 由 SDK 自动读取
	AliCloudAccessKeyID     string `env:"ALIBABA_CLOUD_ACCESS_KEY_ID"`
	AliCloudAccessKeySecret string `env:"ALIBABA_CLOUD_ACCESS_KEY_SECRET"`
	SMSSignName             string `env:"SMS_SIGN_NAME"`
	SMSTemplateCode         string `env:"SMS_TEMPLATE_CODE"`
	// 连续失败达到阈值后熔断，reset 之后放行一次探测
	SMSBreakerFailures int           `env:"SMS_BREAKER_FAILURES" envDefault:"5"`
	SMSBreakerReset    time.Duration `env:"SMS_BREAKER_RESET" envDefault:"1m"`

	// 人机验证：recaptcha, aliyun, none
	CaptchaProvider    string `env:"CAPTCHA_PROVIDER" envDefault:"recaptcha"`
	RecaptchaSecretKey string `env:"RECAPTCHA_SECRET_KEY"`
	RecaptchaVerifyURL string `env:"RECAPTCHA_VERIFY_URL" envDefault:"https://www.google.com/recaptcha/api/siteverify"`
	CaptchaSceneID     string `env:"CAPTCHA_SCENE_ID"`
	// 同一个 token 只允许使用一次
	CaptchaTokenTTL time.Duration `env:"CAPTCHA_TOKEN_TTL" envDefault:"10m"`

	// 派发 worker 配置
	DispatchBatchSize int           `env:"DISPATCH_BATCH_SIZE" envDefault:"10"`
	DispatchInterval  time.Duration `env:"DISPATCH_INTERVAL" envDefault:"5m"`
	DispatchLockTTL   time.Duration `env:"DISPATCH_LOCK_TTL" envDefault:"2m"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪配置
	OTelEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelSampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"0.1"`
	ServiceVersion  string  `env:"SERVICE_VERSION" envDefault:"dev"`

	// 速率限制配置，只作用于提交接口
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitWindow  int  `env:"RATE_LIMIT_WINDOW" envDefault:"60"` // 秒
	RateLimitMax     int  `env:"RATE_LIMIT_MAX" envDefault:"5"`
}

// Load 读取 .env（可选）和环境变量
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate 检查必填项，可选项缺失只打印告警
func (c *Config) Validate() error {
	var missing []string
	if c.PostgreSQLHost == "" {
		missing = append(missing, "POSTGRESQL_HOST")
	}
	if c.PostgreSQLUser == "" {
		missing = append(missing, "POSTGRESQL_USER")
	}
	if c.PostgreSQLDatabase == "" {
		missing = append(missing, "POSTGRESQL_DATABASE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required store configuration: %s", strings.Join(missing, ", "))
	}

	if c.DispatchBatchSize <= 0 {
		return fmt.Errorf("DISPATCH_BATCH_SIZE must be positive, got %d", c.DispatchBatchSize)
	}

	if !c.SMSConfigured() {
		log.Printf("WARN: %s credentials are not set, dispatch will run in stub mode", c.SMSProvider)
	}

	if c.CaptchaProvider == "recaptcha" && c.RecaptchaSecretKey == "" {
		log.Printf("WARN: RECAPTCHA_SECRET_KEY is not set, human verification is disabled")
	}

	return nil
}

// SMSConfigured 当前选择的短信通道凭据是否齐全
func (c *Config) SMSConfigured() bool {
	switch c.SMSProvider {
	case "twilio":
		return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
	case "aliyun":
		return c.AliCloudAccessKeyID != "" && c.AliCloudAccessKeySecret != "" &&
			c.SMSSignName != "" && c.SMSTemplateCode != ""
	default:
		return false
	}
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
