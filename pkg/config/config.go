package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "PROVENLY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvDBDSN  = "PROVENLY_DB_DSN"
	EnvDBHost = "PROVENLY_DB_HOST"
	EnvDBUser = "PROVENLY_DB_USER"
	EnvDBName = "PROVENLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Admin         AdminConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Idempotency   IdempotencyConfig
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
	Env          string `envconfig:"PROVENLY_APP_ENV" required:"true"`
	Port         string `envconfig:"PROVENLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROVENLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROVENLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AdminConfig seeds the ledger administrator identity on boot.
type AdminConfig struct {
	ActorID string `envconfig:"PROVENLY_ADMIN_ACTOR_ID"`
}

type DBConfig struct {
	DSN    string `envconfig:"PROVENLY_DB_DSN"`
	Driver string `envconfig:"PROVENLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROVENLY_DB_HOST"`
	LegacyPort     int    `envconfig:"PROVENLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROVENLY_DB_USER"`
	LegacyPassword string `envconfig:"PROVENLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROVENLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROVENLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROVENLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROVENLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROVENLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROVENLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"PROVENLY_REDIS_URL"`
	Address      string        `envconfig:"PROVENLY_REDIS_ADDR"`
	Password     string        `envconfig:"PROVENLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROVENLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROVENLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROVENLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROVENLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROVENLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROVENLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PROVENLY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PROVENLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PROVENLY_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"PROVENLY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PROVENLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PROVENLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PROVENLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PROVENLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PROVENLY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PROVENLY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PROVENLY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PROVENLY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PROVENLY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PROVENLY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PROVENLY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PROVENLY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PROVENLY_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"PROVENLY_GOOGLE_APPLICATION_CREDENTIALS"`
	CredentialsJSON        string `envconfig:"PROVENLY_GCP_CREDENTIALS_JSON"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"PROVENLY_BIGQUERY_DATASET" default:"provenly_audit"`
	AuditEventsTable string `envconfig:"PROVENLY_BIGQUERY_AUDIT_TABLE" default:"ledger_audit_events"`
}

type PubSubConfig struct {
	LedgerTopic        string `envconfig:"PROVENLY_PUBSUB_LEDGER_TOPIC" default:"provenly-ledger-events"`
	LedgerSubscription string `envconfig:"PROVENLY_PUBSUB_LEDGER_SUBSCRIPTION"`
	AccessTopic        string `envconfig:"PROVENLY_PUBSUB_ACCESS_TOPIC" default:"provenly-access-events"`
	AccessSubscription string `envconfig:"PROVENLY_PUBSUB_ACCESS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PROVENLY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PROVENLY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PROVENLY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"PROVENLY_IDEMPOTENCY_TTL" default:"24h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:provenly.db?_pragma=foreign_keys(1)"
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
