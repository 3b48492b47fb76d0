package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Admin    AdminConfig
	Email    EmailConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  []string
}

type DatabaseConfig struct {
	URL     string
	Timeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AdminConfig struct {
	Token string
}

type EmailConfig struct {
	Provider string
	APIKey   string
	Endpoint string
	From     string
	Timeout  time.Duration
}

type WorkerConfig struct {
	EmailRuleWorkers int
	PollInterval     time.Duration
}

const (
	ProviderResend = "resend"
	ProviderLog    = "log"
)

var AppConfig *Config

// Load reads .env (if present), then resolves values with defaults <
// config file < environment. configPath may be empty.
func Load(configPath string) error {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	cfg, err := Resolve(configPath)
	if err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

// Resolve builds a Config without touching the package-level AppConfig
func Resolve(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if v.IsSet("email_api_key") && v.InConfig("email_api_key") {
		return nil, fmt.Errorf("email_api_key not allowed in config files (use the EMAIL_API_KEY environment variable)")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("port"),
			Mode:         v.GetString("gin_mode"),
			ReadTimeout:  v.GetInt("read_timeout"),
			WriteTimeout: v.GetInt("write_timeout"),
			CORSOrigins:  splitList(v.GetString("cors_origins")),
		},
		Database: DatabaseConfig{
			URL:     v.GetString("database_url"),
			Timeout: v.GetDuration("persistence_timeout"),
		},
		Log: LogConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
		Admin: AdminConfig{
			Token: v.GetString("admin_token"),
		},
		Email: EmailConfig{
			Provider: strings.ToLower(v.GetString("email_provider")),
			APIKey:   v.GetString("email_api_key"),
			Endpoint: v.GetString("email_endpoint"),
			From:     v.GetString("email_from"),
			Timeout:  v.GetDuration("transport_timeout"),
		},
		Worker: WorkerConfig{
			EmailRuleWorkers: v.GetInt("email_rule_workers"),
			PollInterval:     v.GetDuration("worker_poll_interval"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("read_timeout", 15)
	v.SetDefault("write_timeout", 15)
	v.SetDefault("cors_origins", "*")
	v.SetDefault("database_url", "sqlite://./formpilot.db")
	v.SetDefault("persistence_timeout", "5s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("admin_token", "")
	v.SetDefault("email_provider", ProviderLog)
	v.SetDefault("email_api_key", "")
	v.SetDefault("email_endpoint", "https://api.resend.com/emails")
	v.SetDefault("email_from", "no-reply@formpilot.local")
	v.SetDefault("transport_timeout", "10s")
	v.SetDefault("email_rule_workers", 1)
	v.SetDefault("worker_poll_interval", "2s")
}

// Validate checks ranges and provider requirements
func (c *Config) Validate() error {
	port, err := parsePort(c.Server.Port)
	if err != nil {
		return err
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("read and write timeouts must be positive")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.Database.Timeout <= 0 {
		return fmt.Errorf("persistence_timeout must be positive, got %v", c.Database.Timeout)
	}
	if c.Email.Timeout <= 0 {
		return fmt.Errorf("transport_timeout must be positive, got %v", c.Email.Timeout)
	}
	switch c.Email.Provider {
	case ProviderLog:
	case ProviderResend:
		if c.Email.APIKey == "" {
			return fmt.Errorf("EMAIL_API_KEY is required when email_provider is %q", ProviderResend)
		}
		if c.Email.Endpoint == "" {
			return fmt.Errorf("email_endpoint is required when email_provider is %q", ProviderResend)
		}
	default:
		return fmt.Errorf("unknown email_provider %q (expected %q or %q)", c.Email.Provider, ProviderResend, ProviderLog)
	}
	if c.Worker.EmailRuleWorkers < 0 {
		return fmt.Errorf("email_rule_workers must not be negative, got %d", c.Worker.EmailRuleWorkers)
	}
	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("worker_poll_interval must be positive, got %v", c.Worker.PollInterval)
	}
	return nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
