package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDB     string `mapstructure:"MONGO_DB"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	JWTSecret    string `mapstructure:"JWT_SECRET"`
	FrontendURL  string `mapstructure:"FRONTEND_URL"`
	DashboardURL string `mapstructure:"DASHBOARD_URL"`

	MailHost string `mapstructure:"MAIL_HOST"`
	MailPort int    `mapstructure:"MAIL_PORT"`
	MailUser string `mapstructure:"MAIL_USER"`
	MailPass string `mapstructure:"MAIL_PASS"`
	MailFrom string `mapstructure:"MAIL_FROM"`

	StorageURL    string `mapstructure:"SUPABASE_STORAGE_URL"`
	StorageKey    string `mapstructure:"SUPABASE_SERVICE_KEY"`
	StorageBucket string `mapstructure:"SUPABASE_BUCKET"`

	PurgeInterval time.Duration `mapstructure:"PURGE_INTERVAL"`
	RateLimit     int           `mapstructure:"RATE_LIMIT"`
	RateWindow    time.Duration `mapstructure:"RATE_WINDOW"`

	// TrustProxy liga a leitura de X-Forwarded-For/X-Real-IP; só com proxy na frente.
	TrustProxy     bool `mapstructure:"TRUST_PROXY"`
	ExportMaxLeads int  `mapstructure:"EXPORT_MAX_LEADS"`
}

var defaults = map[string]any{
	"ENV":                  "development",
	"PORT":                 "5000",
	"LOG_LEVEL":            "info",
	"MONGO_URI":            "",
	"MONGO_DB":             "funnel_leads",
	"DATABASE_URL":         "",
	"REDIS_URL":            "",
	"RABBITMQ_URL":         "",
	"JWT_SECRET":           "",
	"FRONTEND_URL":         "*",
	"DASHBOARD_URL":        "http://localhost:5173/dashboard/leads",
	"MAIL_HOST":            "",
	"MAIL_PORT":            587,
	"MAIL_USER":            "",
	"MAIL_PASS":            "",
	"MAIL_FROM":            "",
	"SUPABASE_STORAGE_URL": "",
	"SUPABASE_SERVICE_KEY": "",
	"SUPABASE_BUCKET":      "branding",
	"PURGE_INTERVAL":       "1h",
	"RATE_LIMIT":           100,
	"RATE_WINDOW":          "15m",
	"TRUST_PROXY":          false,
	"EXPORT_MAX_LEADS":     10000,
}

// Load lê o .env (se existir) e depois as variáveis de ambiente, que têm prioridade.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)
	return FromViper(viper.New())
}

func FromViper(v *viper.Viper) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config inválida: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) MailEnabled() bool {
	return c.MailHost != "" && c.MailFrom != ""
}

func (c *Config) StorageEnabled() bool {
	return c.StorageURL != "" && c.StorageKey != ""
}

// Validate confere as chaves obrigatórias para subir a API.
func (c *Config) Validate() error {
	var missing []string
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("variáveis obrigatórias ausentes: %s", strings.Join(missing, ", "))
	}

	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return errors.New("RATE_LIMIT e RATE_WINDOW devem ser positivos")
	}
	if c.PurgeInterval <= 0 {
		return errors.New("PURGE_INTERVAL deve ser positivo")
	}
	if c.ExportMaxLeads <= 0 {
		return errors.New("EXPORT_MAX_LEADS deve ser positivo")
	}
	return nil
}
