package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "PRACTICERX"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "PRACTICERX_APP_ENV"
	EnvPort     = "PRACTICERX_APP_PORT"
	EnvDBDSN    = "PRACTICERX_DB_DSN"
	EnvDBHost   = "PRACTICERX_DB_HOST"
	EnvDBUser   = "PRACTICERX_DB_USER"
	EnvDBName   = "PRACTICERX_DB_NAME"
	EnvRedisURL = "PRACTICERX_REDIS_URL"

	EnvJWTSecret = "PRACTICERX_JWT_SECRET"
	EnvJWTIssuer = "PRACTICERX_JWT_ISSUER"

	EnvGCPProjectID         = "PRACTICERX_GCP_PROJECT_ID"
	EnvPubSubPharmacyTopic  = "PRACTICERX_PUBSUB_PHARMACY_TOPIC"
	EnvShippingBaseURL      = "PRACTICERX_SHIPPING_BASE_URL"
	EnvSquareAccessToken    = "PRACTICERX_SQUARE_ACCESS_TOKEN"
	EnvSquareLocationID     = "PRACTICERX_SQUARE_LOCATION_ID"
	EnvCheckoutMerchantFee  = "PRACTICERX_CHECKOUT_MERCHANT_FEE_PERCENTAGE"
	EnvCheckoutCartClaimTTL = "PRACTICERX_CHECKOUT_CART_CLAIM_TTL"
	EnvReconcileStaleAfter  = "PRACTICERX_RECONCILE_STALE_AFTER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CSRF         CSRFConfig
	CORS         CORSConfig
	Checkout     CheckoutConfig
	Shipping     ShippingConfig
	Square       SquareConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Reconcile    ReconcileConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Checkout.MerchantFeePercentage < 0 || cfg.Checkout.MerchantFeePercentage > 100 {
		return nil, fmt.Errorf("%s must be between 0 and 100", EnvCheckoutMerchantFee)
	}
	if fee := cfg.Checkout.DefaultMerchantFee(); !fee.Equal(fee.Round(2)) {
		return nil, fmt.Errorf("%s must have at most 2 decimal places", EnvCheckoutMerchantFee)
	}
	if cfg.Checkout.CartClaimTTL <= cfg.Checkout.PaymentTimeout+cfg.Checkout.SideEffectTimeout {
		return nil, fmt.Errorf("%s must exceed the payment timeout plus the side effect timeout", EnvCheckoutCartClaimTTL)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRACTICERX_APP_ENV" required:"true"`
	Port         string `envconfig:"PRACTICERX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRACTICERX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRACTICERX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PRACTICERX_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PRACTICERX_DB_DSN"`
	Driver string `envconfig:"PRACTICERX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRACTICERX_DB_HOST"`
	LegacyPort     int    `envconfig:"PRACTICERX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRACTICERX_DB_USER"`
	LegacyPassword string `envconfig:"PRACTICERX_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRACTICERX_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRACTICERX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRACTICERX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRACTICERX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRACTICERX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRACTICERX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRACTICERX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRACTICERX_REDIS_ADDR"`
	Password     string        `envconfig:"PRACTICERX_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRACTICERX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRACTICERX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRACTICERX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRACTICERX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRACTICERX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRACTICERX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PRACTICERX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PRACTICERX_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PRACTICERX_JWT_EXPIRATION_MINUTES" default:"60"`
	RequireSession    bool   `envconfig:"PRACTICERX_JWT_REQUIRE_SESSION" default:"true"`
}

type CSRFConfig struct {
	TTL time.Duration `envconfig:"PRACTICERX_CSRF_TTL" default:"2h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PRACTICERX_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type CheckoutConfig struct {
	MerchantFeePercentage float64       `envconfig:"PRACTICERX_CHECKOUT_MERCHANT_FEE_PERCENTAGE" default:"3.75"`
	Currency              string        `envconfig:"PRACTICERX_CHECKOUT_CURRENCY" default:"USD"`
	ShippingTimeout       time.Duration `envconfig:"PRACTICERX_CHECKOUT_SHIPPING_TIMEOUT" default:"10s"`
	PaymentTimeout        time.Duration `envconfig:"PRACTICERX_CHECKOUT_PAYMENT_TIMEOUT" default:"30s"`
	SideEffectTimeout     time.Duration `envconfig:"PRACTICERX_CHECKOUT_SIDE_EFFECT_TIMEOUT" default:"5s"`
	CartClaimTTL          time.Duration `envconfig:"PRACTICERX_CHECKOUT_CART_CLAIM_TTL" default:"5m"`
}

// DefaultMerchantFee returns the configured fee percentage as a decimal.
func (c CheckoutConfig) DefaultMerchantFee() decimal.Decimal {
	return decimal.NewFromFloat(c.MerchantFeePercentage)
}

type ShippingConfig struct {
	BaseURL string `envconfig:"PRACTICERX_SHIPPING_BASE_URL" required:"true"`
	APIKey  string `envconfig:"PRACTICERX_SHIPPING_API_KEY"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"PRACTICERX_SQUARE_ACCESS_TOKEN" required:"true"`
	Env         string `envconfig:"PRACTICERX_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"PRACTICERX_SQUARE_LOCATION_ID" required:"true"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PRACTICERX_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PRACTICERX_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PRACTICERX_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PharmacyTopic string `envconfig:"PRACTICERX_PUBSUB_PHARMACY_TOPIC" required:"true"`
}

type ReconcileConfig struct {
	Interval   time.Duration `envconfig:"PRACTICERX_RECONCILE_INTERVAL" default:"15m"`
	StaleAfter time.Duration `envconfig:"PRACTICERX_RECONCILE_STALE_AFTER" default:"1h"`
	LockTTL    time.Duration `envconfig:"PRACTICERX_RECONCILE_LOCK_TTL" default:"10m"`
	BatchSize  int           `envconfig:"PRACTICERX_RECONCILE_BATCH_SIZE" default:"200"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PRACTICERX_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
