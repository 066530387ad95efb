package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Pin           PinConfig
	FeatureFlags  FeatureFlagsConfig
	Payout        PayoutConfig
	Throttle      ThrottleConfig
	Tiers         TierConfig
	Ingestion     IngestionConfig
	PubSub        PubSubConfig
	GCP           GCPConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Notifications NotificationsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Tiers.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STREAMVAULT_APP_ENV" required:"true"`
	Port         string `envconfig:"STREAMVAULT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STREAMVAULT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STREAMVAULT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STREAMVAULT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STREAMVAULT_DB_DSN"`
	Driver string `envconfig:"STREAMVAULT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STREAMVAULT_DB_HOST"`
	LegacyPort     int    `envconfig:"STREAMVAULT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STREAMVAULT_DB_USER"`
	LegacyPassword string `envconfig:"STREAMVAULT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STREAMVAULT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STREAMVAULT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STREAMVAULT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STREAMVAULT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STREAMVAULT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STREAMVAULT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STREAMVAULT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STREAMVAULT_REDIS_ADDR"`
	Password     string        `envconfig:"STREAMVAULT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STREAMVAULT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STREAMVAULT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STREAMVAULT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STREAMVAULT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STREAMVAULT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STREAMVAULT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"STREAMVAULT_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"STREAMVAULT_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"STREAMVAULT_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"STREAMVAULT_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// PinConfig tunes the argon2id parameters used for withdrawal PIN digests.
type PinConfig struct {
	ArgonMemoryKB    int `envconfig:"STREAMVAULT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STREAMVAULT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STREAMVAULT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STREAMVAULT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STREAMVAULT_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STREAMVAULT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STREAMVAULT_AUTO_MIGRATE" default:"false"`
}

// PayoutConfig carries the withdrawal policy knobs. Injected into the payout
// workflow constructor so thresholds stay testable and overridable.
type PayoutConfig struct {
	MinWithdrawalCents int64   `envconfig:"STREAMVAULT_PAYOUT_MIN_WITHDRAWAL_CENTS" default:"1800"`
	FeePercent         float64 `envconfig:"STREAMVAULT_PAYOUT_FEE_PERCENT" default:"3"`
}

// TierConfig holds the view thresholds for each tier above bronze and the
// per-view rate for every tier. Rates are decimal USD strings per view.
type TierConfig struct {
	SilverViews   int64 `envconfig:"STREAMVAULT_TIER_SILVER_VIEWS" default:"10000"`
	GoldViews     int64 `envconfig:"STREAMVAULT_TIER_GOLD_VIEWS" default:"50000"`
	PlatinumViews int64 `envconfig:"STREAMVAULT_TIER_PLATINUM_VIEWS" default:"200000"`

	BronzeRate   string `envconfig:"STREAMVAULT_TIER_BRONZE_RATE" default:"0.002"`
	SilverRate   string `envconfig:"STREAMVAULT_TIER_SILVER_RATE" default:"0.003"`
	GoldRate     string `envconfig:"STREAMVAULT_TIER_GOLD_RATE" default:"0.004"`
	PlatinumRate string `envconfig:"STREAMVAULT_TIER_PLATINUM_RATE" default:"0.005"`
}

func (t TierConfig) validate() error {
	if t.SilverViews <= 0 || t.GoldViews <= t.SilverViews || t.PlatinumViews <= t.GoldViews {
		return fmt.Errorf("tier view thresholds must be positive and strictly increasing")
	}
	return nil
}

// ThrottleConfig bounds the abuse-prone creator endpoints. Withdrawal
// submission burns PIN attempts, so it gets both per-IP and per-user counters.
type ThrottleConfig struct {
	WithdrawalWindow    time.Duration `envconfig:"STREAMVAULT_THROTTLE_WITHDRAWAL_WINDOW" default:"1m"`
	WithdrawalIPLimit   int           `envconfig:"STREAMVAULT_THROTTLE_WITHDRAWAL_IP_LIMIT" default:"30"`
	WithdrawalUserLimit int           `envconfig:"STREAMVAULT_THROTTLE_WITHDRAWAL_USER_LIMIT" default:"5"`
}

// IngestionConfig guards the internal view-accrual endpoint.
type IngestionConfig struct {
	ServiceToken string `envconfig:"STREAMVAULT_INGESTION_SERVICE_TOKEN"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"STREAMVAULT_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription       string `envconfig:"STREAMVAULT_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"STREAMVAULT_PUBSUB_NOTIFICATION_TOPIC" default:"sv-notification-events"`
	NotificationSubscription string `envconfig:"STREAMVAULT_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STREAMVAULT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"STREAMVAULT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STREAMVAULT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset            string `envconfig:"STREAMVAULT_BIGQUERY_DATASET" default:"streamvault"`
	EarningsFactsTable string `envconfig:"STREAMVAULT_BIGQUERY_EARNINGS_TABLE" default:"earnings_facts"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"STREAMVAULT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"STREAMVAULT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"STREAMVAULT_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"STREAMVAULT_OUTBOX_IDEMPOTENCY_TTL" default:"72h"`
}

type NotificationsConfig struct {
	RetentionDays int `envconfig:"STREAMVAULT_NOTIFICATION_RETENTION_DAYS" default:"90"`
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
