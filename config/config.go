package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	Port          string
	AppEnv        string
	MongoURI      string
	DBName        string
	JWTSecret     string
	TokenTTL      time.Duration
	RedisURL      string
	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
	MaxUploadMB   int64
	SMTPHost      string
	SMTPPort      int
	MailUser      string
	MailPass      string
	BaseURL       string
	SyncSchedule  string
	SyncTimeout   time.Duration
	ResetThrottle time.Duration
}

// Load reads configuration from the environment (after godotenv has merged .env).
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetDefault("PORT", "5000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DB", "bookstore")
	v.SetDefault("JWT_SECRET_KEY", defaultJWTSecret)
	v.SetDefault("TOKEN_TTL", "0s")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("AWS_S3_BUCKET", "")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_ACCESS_KEY_ID", "")
	v.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	v.SetDefault("MAX_UPLOAD_MB", 5)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("USER_EMAIL", "")
	v.SetDefault("USER_PASS", "")
	v.SetDefault("APP_BASE_URL", "http://localhost:5000")
	v.SetDefault("SYNC_SCHEDULE", "*/15 * * * *")
	v.SetDefault("SYNC_TIMEOUT", "30s")
	v.SetDefault("RESET_THROTTLE", "1m")

	cfg := &Config{
		Port:          v.GetString("PORT"),
		AppEnv:        v.GetString("APP_ENV"),
		MongoURI:      v.GetString("MONGODB_URI"),
		DBName:        v.GetString("MONGODB_DB"),
		JWTSecret:     v.GetString("JWT_SECRET_KEY"),
		TokenTTL:      v.GetDuration("TOKEN_TTL"),
		RedisURL:      v.GetString("REDIS_URL"),
		S3Bucket:      v.GetString("AWS_S3_BUCKET"),
		S3Region:      v.GetString("AWS_REGION"),
		S3AccessKeyID: v.GetString("AWS_ACCESS_KEY_ID"),
		S3SecretKey:   v.GetString("AWS_SECRET_ACCESS_KEY"),
		MaxUploadMB:   v.GetInt64("MAX_UPLOAD_MB"),
		SMTPHost:      v.GetString("SMTP_HOST"),
		SMTPPort:      v.GetInt("SMTP_PORT"),
		MailUser:      v.GetString("USER_EMAIL"),
		MailPass:      v.GetString("USER_PASS"),
		BaseURL:       strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		SyncSchedule:  strings.TrimSpace(v.GetString("SYNC_SCHEDULE")),
		SyncTimeout:   v.GetDuration("SYNC_TIMEOUT"),
		ResetThrottle: v.GetDuration("RESET_THROTTLE"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MaxUploadBytes is the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB * 1024 * 1024
}

// Validate checks the values Load cannot default sensibly.
func (c *Config) Validate() error {
	if c.MongoURI == "" || c.DBName == "" {
		return fmt.Errorf("MONGODB_URI and MONGODB_DB are required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWTSecret == defaultJWTSecret && !c.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET_KEY must be set to a strong secret outside development")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.TokenTTL < 0 || c.SyncTimeout <= 0 || c.ResetThrottle < 0 {
		return fmt.Errorf("TOKEN_TTL, SYNC_TIMEOUT and RESET_THROTTLE must not be negative")
	}
	return nil
}

// LogStatus reports which optional integrations are configured. Secrets are never printed.
func (c *Config) LogStatus() {
	log.Printf("env APP_ENV = %s", c.AppEnv)
	log.Printf("env MONGODB_DB = %s", c.DBName)
	optional := []struct {
		key string
		set bool
	}{
		{"REDIS_URL", c.RedisURL != ""},
		{"AWS_S3_BUCKET", c.S3Bucket != ""},
		{"USER_EMAIL", c.MailUser != ""},
		{"SYNC_SCHEDULE", c.SyncSchedule != ""},
	}
	for _, o := range optional {
		if o.set {
			log.Printf("env %s loaded", o.key)
		} else {
			log.Printf("env %s not set (optional)", o.key)
		}
	}
}
