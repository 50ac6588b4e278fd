package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "agilestore"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "AGILESTORE_DB_DSN"
	EnvDBHost = "AGILESTORE_DB_HOST"
	EnvDBUser = "AGILESTORE_DB_USER"
	EnvDBName = "AGILESTORE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Pricing       PricingConfig
	Midtrans      MidtransConfig
	StatusWorker  StatusWorkerConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Invoice       InvoiceConfig
	Translator    TranslatorConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGILESTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"AGILESTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGILESTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGILESTORE_LOG_WARN_STACK" default:"false"`
	BaseURL      string `envconfig:"AGILESTORE_APP_BASE_URL" default:"https://agilestore.id"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AGILESTORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AGILESTORE_DB_DSN"`
	Driver string `envconfig:"AGILESTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGILESTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"AGILESTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGILESTORE_DB_USER"`
	LegacyPassword string `envconfig:"AGILESTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGILESTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGILESTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGILESTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGILESTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGILESTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGILESTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGILESTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGILESTORE_REDIS_ADDR"`
	Password     string        `envconfig:"AGILESTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGILESTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGILESTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGILESTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGILESTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGILESTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGILESTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"AGILESTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"AGILESTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"AGILESTORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"AGILESTORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int           `envconfig:"AGILESTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int           `envconfig:"AGILESTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int           `envconfig:"AGILESTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int           `envconfig:"AGILESTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int           `envconfig:"AGILESTORE_ARGON_KEY_LEN" default:"32"`
	ResetTokenTTL    time.Duration `envconfig:"AGILESTORE_PASSWORD_RESET_TTL" default:"1h"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AGILESTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AGILESTORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AGILESTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AGILESTORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AGILESTORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AGILESTORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGILESTORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGILESTORE_AUTO_MIGRATE" default:"false"`
}

// PricingConfig drives display-currency conversion. Stored amounts are always
// IDR; the USD rate only affects formatting for the "en" locale.
type PricingConfig struct {
	DefaultUSDRate float64       `envconfig:"AGILESTORE_PRICING_USD_RATE" default:"15500"`
	RateCacheTTL   time.Duration `envconfig:"AGILESTORE_PRICING_RATE_CACHE_TTL" default:"6h"`
}

type MidtransConfig struct {
	ServerKey     string        `envconfig:"AGILESTORE_MIDTRANS_SERVER_KEY"`
	ClientKey     string        `envconfig:"AGILESTORE_MIDTRANS_CLIENT_KEY"`
	Env           string        `envconfig:"AGILESTORE_MIDTRANS_ENV" default:"sandbox"`
	HTTPTimeout   time.Duration `envconfig:"AGILESTORE_MIDTRANS_HTTP_TIMEOUT" default:"15s"`
	TokenValidity time.Duration `envconfig:"AGILESTORE_MIDTRANS_TOKEN_VALIDITY" default:"24h"`
}

// Environment returns the normalized Midtrans environment (sandbox/production).
func (m MidtransConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// StatusWorkerConfig drives the pending-order status poll cycle.
type StatusWorkerConfig struct {
	Interval        time.Duration `envconfig:"AGILESTORE_STATUS_POLL_INTERVAL" default:"15s"`
	MaxPollAttempts int           `envconfig:"AGILESTORE_STATUS_POLL_MAX_ATTEMPTS" default:"5"`
	BatchSize       int           `envconfig:"AGILESTORE_STATUS_POLL_BATCH_SIZE" default:"50"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"AGILESTORE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"AGILESTORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"AGILESTORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"AGILESTORE_PUBSUB_ORDERS_TOPIC" default:"ags-order-events"`
	OrdersSubscription    string `envconfig:"AGILESTORE_PUBSUB_ORDERS_SUBSCRIPTION"`
	CustomersTopic        string `envconfig:"AGILESTORE_PUBSUB_CUSTOMERS_TOPIC" default:"ags-customer-events"`
	CustomersSubscription string `envconfig:"AGILESTORE_PUBSUB_CUSTOMERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"AGILESTORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"AGILESTORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"AGILESTORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type InvoiceConfig struct {
	TemplatePath string `envconfig:"AGILESTORE_INVOICE_TEMPLATE" default:"assets/invoice/invoice.typ.tmpl"`
	FontDir      string `envconfig:"AGILESTORE_INVOICE_FONT_DIR"`
	TypstBin     string `envconfig:"AGILESTORE_INVOICE_TYPST_BIN" default:"typst"`
}

type TranslatorConfig struct {
	Endpoint    string        `envconfig:"AGILESTORE_TRANSLATOR_ENDPOINT"`
	APIKey      string        `envconfig:"AGILESTORE_TRANSLATOR_API_KEY"`
	HTTPTimeout time.Duration `envconfig:"AGILESTORE_TRANSLATOR_HTTP_TIMEOUT" default:"10s"`
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
