package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App            AppConfig
	Service        ServiceConfig
	DB             DBConfig
	Redis          RedisConfig
	Rotation       RotationConfig
	Checkpoint     CheckpointConfig
	Evaluator      EvaluatorConfig
	Redistribution RedistributionConfig
	FeatureFlags   FeatureFlagsConfig
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
	Env          string `envconfig:"LEADROTOR_APP_ENV" required:"true"`
	Port         string `envconfig:"LEADROTOR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LEADROTOR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEADROTOR_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"LEADROTOR_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LEADROTOR_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LEADROTOR_DB_DSN"`
	Driver string `envconfig:"LEADROTOR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEADROTOR_DB_HOST"`
	LegacyPort     int    `envconfig:"LEADROTOR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEADROTOR_DB_USER"`
	LegacyPassword string `envconfig:"LEADROTOR_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEADROTOR_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEADROTOR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEADROTOR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEADROTOR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEADROTOR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEADROTOR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEADROTOR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEADROTOR_REDIS_ADDR"`
	Password     string        `envconfig:"LEADROTOR_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEADROTOR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEADROTOR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEADROTOR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEADROTOR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEADROTOR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEADROTOR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RotationConfig controls the tick worker cadence and business-hours clock.
type RotationConfig struct {
	TickInterval time.Duration `envconfig:"LEADROTOR_ROTATION_TICK_INTERVAL" default:"5s"`
	Timezone     string        `envconfig:"LEADROTOR_ROTATION_TIMEZONE" default:"America/Sao_Paulo"`
}

// Location resolves the configured rotation timezone.
func (r RotationConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid rotation timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

type CheckpointConfig struct {
	RecomputeInterval time.Duration `envconfig:"LEADROTOR_CHECKPOINT_RECOMPUTE_INTERVAL" default:"1m"`
	RunNowRetries     int           `envconfig:"LEADROTOR_CHECKPOINT_RUN_NOW_RETRIES" default:"1"`
}

type EvaluatorConfig struct {
	BaseURL string        `envconfig:"LEADROTOR_EVALUATOR_URL" required:"true"`
	Timeout time.Duration `envconfig:"LEADROTOR_EVALUATOR_TIMEOUT" default:"10s"`
}

type RedistributionConfig struct {
	PollInterval time.Duration `envconfig:"LEADROTOR_REDISTRIBUTION_POLL_INTERVAL" default:"3s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LEADROTOR_AUTO_MIGRATE" default:"false"`
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
