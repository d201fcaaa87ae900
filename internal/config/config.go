package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cartloom/checkout/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig
	Sentry     SentryConfig
	S3         S3Config
	Stripe     StripeConfig
	Orders     OrdersConfig `validate:"required"`
	Receipts   ReceiptsConfig
	Admin      AdminConfig
	Catalog    CatalogConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type SentryConfig struct {
	Enabled     bool
	DSN         string
	Environment string
	SampleRate  float64
}

// S3Config configures the object storage client. Endpoint is optional and
// allows S3-compatible stores (e.g. Cloudflare R2) to be used in place of S3.
type S3Config struct {
	Region   string
	Endpoint string
}

// StripeAccount holds per-account credentials. The storefront runs an "old"
// and a "new" Stripe account side by side; each gets its own webhook route.
type StripeAccount struct {
	SecretKey     string
	WebhookSecret string
}

type StripeConfig struct {
	Accounts       map[string]StripeAccount
	DefaultAccount string
}

// Account returns the credentials for the named account.
func (c StripeConfig) Account(name string) (StripeAccount, bool) {
	acct, ok := c.Accounts[name]
	return acct, ok
}

// CounterBackend selects how the order number counter is persisted.
type CounterBackend string

const (
	CounterBackendFile   CounterBackend = "file"
	CounterBackendS3     CounterBackend = "s3"
	CounterBackendMemory CounterBackend = "memory"
)

// DeliveryMode selects how the delivery window printed on receipts is derived
// from the order date.
type DeliveryMode string

const (
	// DeliveryModeSingle prints a single date, order date + OffsetDays.
	DeliveryModeSingle DeliveryMode = "single"
	// DeliveryModeRange prints a "Month D–D" range, order date + RangeStartDays
	// through + RangeEndDays.
	DeliveryModeRange DeliveryMode = "range"
)

type DeliveryConfig struct {
	Mode           DeliveryMode
	OffsetDays     int
	RangeStartDays int
	RangeEndDays   int
}

type OrdersConfig struct {
	// Counter backend and seed. The seed is only used when no counter exists yet.
	CounterBackend CounterBackend `validate:"required"`
	CounterSeed    int64
	CounterPath    string
	CounterBucket  string
	CounterKey     string

	// TemplatesDir contains one subdirectory per amount in cents, each holding
	// the eligible PDF templates for that price point.
	TemplatesDir string `validate:"required"`

	// Layout of the text overlay. Empty family falls back to the built-in layout.
	LayoutFamily string

	// Font used for every overlay in a render. Must be a PDF core font or a
	// user font installed from FontFile.
	FontName string
	FontFile string

	Delivery DeliveryConfig
}

// ReceiptBackend selects where rendered receipts are persisted.
type ReceiptBackend string

const (
	ReceiptBackendLocal ReceiptBackend = "local"
	ReceiptBackendS3    ReceiptBackend = "s3"
)

type ReceiptsConfig struct {
	Backend   ReceiptBackend
	LocalDir  string
	Bucket    string
	KeyPrefix string
}

type AdminConfig struct {
	Password string
}

// Product is one storefront price point. The catalog replaces the per-price
// handler variants with a single lookup table.
type Product struct {
	AmountCents int64
	Description string
}

type CatalogConfig struct {
	Products map[string]Product
}

func NewConfig() (*Configuration, error) {
	// Local development keeps credentials in a .env file
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartloom")

	v.SetEnvPrefix("CARTLOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", string(types.ModeLocal))
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("orders.counterbackend", string(CounterBackendFile))
	v.SetDefault("orders.counterpath", "data/order-counter.json")
	v.SetDefault("orders.counterkey", "order-counter.txt")
	v.SetDefault("orders.templatesdir", "templates")
	v.SetDefault("orders.fontname", "Helvetica")
	v.SetDefault("orders.delivery.mode", string(DeliveryModeRange))
	v.SetDefault("orders.delivery.offsetdays", 7)
	v.SetDefault("orders.delivery.rangestartdays", 13)
	v.SetDefault("orders.delivery.rangeenddays", 17)
	v.SetDefault("receipts.backend", string(ReceiptBackendLocal))
	v.SetDefault("receipts.localdir", "orders")
	v.SetDefault("stripe.defaultaccount", "new")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development.
// Useful for scripts and tests that don't read a config file.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Orders: OrdersConfig{
			CounterBackend: CounterBackendMemory,
			TemplatesDir:   "templates",
			FontName:       "Helvetica",
			Delivery: DeliveryConfig{
				Mode:           DeliveryModeRange,
				OffsetDays:     7,
				RangeStartDays: 13,
				RangeEndDays:   17,
			},
		},
		Receipts: ReceiptsConfig{
			Backend:  ReceiptBackendLocal,
			LocalDir: "orders",
		},
	}
}
