package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "REMATTER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "REMATTER_DB_DSN"
	EnvDBHost = "REMATTER_DB_HOST"
	EnvDBUser = "REMATTER_DB_USER"
	EnvDBName = "REMATTER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Idempotency   IdempotencyConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"REMATTER_APP_ENV" required:"true"`
	Port         string `envconfig:"REMATTER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REMATTER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REMATTER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"REMATTER_DB_DSN"`
	Driver string `envconfig:"REMATTER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REMATTER_DB_HOST"`
	LegacyPort     int    `envconfig:"REMATTER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REMATTER_DB_USER"`
	LegacyPassword string `envconfig:"REMATTER_DB_PASSWORD"`
	LegacyName     string `envconfig:"REMATTER_DB_NAME"`
	LegacySSLMode  string `envconfig:"REMATTER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REMATTER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REMATTER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REMATTER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REMATTER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REMATTER_REDIS_URL" required:"true"`
	Password     string        `envconfig:"REMATTER_REDIS_PASSWORD"`
	DB           int           `envconfig:"REMATTER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REMATTER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REMATTER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REMATTER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REMATTER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REMATTER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"REMATTER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"REMATTER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"REMATTER_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token TTL.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"REMATTER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"REMATTER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"REMATTER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"REMATTER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"REMATTER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"REMATTER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"REMATTER_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"REMATTER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"REMATTER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"REMATTER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"REMATTER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type IdempotencyConfig struct {
	OrderTTL time.Duration `envconfig:"REMATTER_IDEMPOTENCY_ORDER_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REMATTER_AUTO_MIGRATE" default:"false"`
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
