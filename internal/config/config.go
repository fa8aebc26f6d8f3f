package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
	Services Services `yaml:"services"`
	Session  Session  `yaml:"session"`
	Flow     Flow     `yaml:"flow"`
	Payment  Payment  `yaml:"payment"`
	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Notify   Notify   `yaml:"notify"`
	SendGrid SendGrid `yaml:"sendgrid"`
	Twilio   Twilio   `yaml:"twilio"`
	Stripe   Stripe   `yaml:"stripe"`
}

type HTTP struct {
	Addr           string   `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Services holds the base URL of every backend the frontend talks to,
// including the service path segment.
type Services struct {
	UserURL         string        `yaml:"user_url" env:"USER_SERVICE_URL" env-default:"http://localhost:8081/user-service"`
	BusURL          string        `yaml:"bus_url" env:"BUS_SERVICE_URL" env-default:"http://localhost:8082/bus-service"`
	BookingURL      string        `yaml:"booking_url" env:"BOOKING_SERVICE_URL" env-default:"http://localhost:8083/booking-service"`
	PaymentURL      string        `yaml:"payment_url" env:"PAYMENT_SERVICE_URL" env-default:"http://localhost:8084/payment-service"`
	NotificationURL string        `yaml:"notification_url" env:"NOTIFICATION_SERVICE_URL" env-default:"http://localhost:8085/notification-service"`
	Timeout         time.Duration `yaml:"timeout" env:"SERVICE_TIMEOUT" env-default:"10s"`
	// ScheduleDateOffsetDays is added to the travel date before the bus
	// service is queried.
	ScheduleDateOffsetDays int `yaml:"schedule_date_offset_days" env:"SCHEDULE_DATE_OFFSET_DAYS" env-default:"1"`
}

type Session struct {
	Secret string        `yaml:"secret" env:"SESSION_SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	Secure bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

type Flow struct {
	Store         string        `yaml:"store" env:"FLOW_STORE" env-default:"memory"`
	TTL           time.Duration `yaml:"ttl" env:"FLOW_TTL" env-default:"30m"`
	SweepSchedule string        `yaml:"sweep_schedule" env:"FLOW_SWEEP_SCHEDULE" env-default:"@every 5m"`
}

type Payment struct {
	Currency string `yaml:"currency" env:"PAYMENT_CURRENCY" env-default:"usd"`
}

type Postgres struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Notify struct {
	// Provider selects how confirmation emails go out: "service" posts to
	// the notification service, "sendgrid" sends directly.
	Provider string `yaml:"provider" env:"NOTIFY_PROVIDER" env-default:"service"`
}

type SendGrid struct {
	APIKey    string `yaml:"api_key" env:"SENDGRID_API_KEY"`
	FromEmail string `yaml:"from_email" env:"SENDGRID_FROM_EMAIL"`
	FromName  string `yaml:"from_name" env:"SENDGRID_FROM_NAME" env-default:"NextStop"`
}

type Twilio struct {
	AccountSID string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `yaml:"from_number" env:"TWILIO_FROM_NUMBER"`
}

// Enabled reports whether all credentials needed to send SMS are present.
func (t Twilio) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

type Stripe struct {
	SecretKey string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
}

// Options controls where configuration is read from.
type Options struct {
	// EnvFile is loaded into the process environment first. A missing file
	// is not an error.
	EnvFile string
	// ConfigFile is an optional YAML file. Environment variables override
	// its values; a missing file means env only.
	ConfigFile string
}

func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", opts.EnvFile, err)
		}
	}

	cfg := &Config{}
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err == nil {
			if err := cleanenv.ReadConfig(opts.ConfigFile, cfg); err != nil {
				return nil, fmt.Errorf("config: reading %s: %w", opts.ConfigFile, err)
			}
			return cfg, cfg.validate()
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: reading env: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	for name, u := range map[string]string{
		"USER_SERVICE_URL":         c.Services.UserURL,
		"BUS_SERVICE_URL":          c.Services.BusURL,
		"BOOKING_SERVICE_URL":      c.Services.BookingURL,
		"PAYMENT_SERVICE_URL":      c.Services.PaymentURL,
		"NOTIFICATION_SERVICE_URL": c.Services.NotificationURL,
	} {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("config: %s must be an http(s) URL, got %q", name, u)
		}
	}
	switch c.Flow.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: FLOW_STORE must be memory or redis, got %q", c.Flow.Store)
	}
	switch c.Notify.Provider {
	case "service", "sendgrid":
	default:
		return fmt.Errorf("config: NOTIFY_PROVIDER must be service or sendgrid, got %q", c.Notify.Provider)
	}
	if c.Notify.Provider == "sendgrid" && (c.SendGrid.APIKey == "" || c.SendGrid.FromEmail == "") {
		return errors.New("config: NOTIFY_PROVIDER=sendgrid needs SENDGRID_API_KEY and SENDGRID_FROM_EMAIL")
	}
	if c.Flow.TTL <= 0 {
		return errors.New("config: FLOW_TTL must be positive")
	}
	return nil
}
