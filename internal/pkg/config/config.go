package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (windows, poll intervals, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	CORS        CORSConfig
	Log         LogConfig
	JWT         JWTConfig
	Stripe      StripeConfig
	Scheduler   SchedulerConfig
	Reservation ReservationConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type JWTConfig struct {
	Secret   string `envconfig:"JWT_SECRET" required:"true"`
	Duration string `envconfig:"JWT_DURATION" default:"24h"`
}

type StripeConfig struct {
	SecretKey            string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	WebhookSecret        string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	ConnectWebhookSecret string `envconfig:"STRIPE_CONNECT_WEBHOOK_SECRET" required:"true"`
	SuccessURL           string `envconfig:"STRIPE_CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/booking/success"`
	CancelURL            string `envconfig:"STRIPE_CHECKOUT_CANCEL_URL" default:"http://localhost:3000/booking/cancel"`
	// InstanceTag routes webhook events back to the deployment that opened the
	// checkout session; events tagged for another instance are acknowledged unprocessed.
	InstanceTag string `envconfig:"STRIPE_INSTANCE_TAG" required:"true"`
}

type SchedulerConfig struct {
	PollInterval time.Duration `envconfig:"SCHEDULER_POLL_INTERVAL" default:"5s"`
	LockTTL      time.Duration `envconfig:"SCHEDULER_LOCK_TTL" default:"2m"`
	MaxRetries   int           `envconfig:"SCHEDULER_MAX_RETRIES" default:"5"`
	BackoffBase  time.Duration `envconfig:"SCHEDULER_BACKOFF_BASE" default:"30s"`
	BatchSize    int32         `envconfig:"SCHEDULER_BATCH_SIZE" default:"10"`
}

type ReservationConfig struct {
	PaymentWindow      time.Duration `envconfig:"RESERVATION_PAYMENT_WINDOW" default:"30m"`
	ConfirmationWindow time.Duration `envconfig:"RESERVATION_CONFIRMATION_WINDOW" default:"1h"`
	ReceiptDelay       time.Duration `envconfig:"RESERVATION_RECEIPT_DELAY" default:"5m"`
	CancelNotifyDelay  time.Duration `envconfig:"RESERVATION_CANCEL_NOTIFY_DELAY" default:"2m"`
	CleanupInterval    time.Duration `envconfig:"RESERVATION_CLEANUP_INTERVAL" default:"1h"`
	CleanupRetention   time.Duration `envconfig:"RESERVATION_CLEANUP_RETENTION" default:"24h"`
	AccountDeleteDelay time.Duration `envconfig:"ACCOUNT_DELETE_DELAY" default:"720h"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Log: LogConfig{
			Level:      "error",
			TimeZone:   "UTC",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Stripe: StripeConfig{
			SecretKey:            "sk_test_dummy",
			WebhookSecret:        "whsec_dummy",
			ConnectWebhookSecret: "whsec_connect_dummy",
			InstanceTag:          "test-1",
		},
		Scheduler: SchedulerConfig{
			PollInterval: 50 * time.Millisecond,
			LockTTL:      time.Minute,
			MaxRetries:   5,
			BackoffBase:  10 * time.Millisecond,
			BatchSize:    10,
		},
		Reservation: ReservationConfig{
			PaymentWindow:      30 * time.Minute,
			ConfirmationWindow: time.Hour,
			ReceiptDelay:       5 * time.Minute,
			CancelNotifyDelay:  2 * time.Minute,
			CleanupInterval:    time.Hour,
			CleanupRetention:   24 * time.Hour,
			AccountDeleteDelay: 720 * time.Hour,
		},
	}
}
