package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Krishna2005-yadav/Crop-System/internal/infra/limiter"
)

const envPrefix = "CROP"

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Session   SessionSettings   `mapstructure:"session"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Lockout   LockoutSettings   `mapstructure:"lockout"`
	Access    AccessSettings    `mapstructure:"access"`
	Predictor PredictorSettings `mapstructure:"predictor"`
	GRPC      GRPCSettings      `mapstructure:"grpc"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
	Argon2    Argon2Settings    `mapstructure:"argon2"`
	CORS      CORSSettings      `mapstructure:"cors"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type GRPCSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	Schema            string        `mapstructure:"schema"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis connection backing the session store.
type RedisSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	Password      string `mapstructure:"password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	SessionPrefix string `mapstructure:"session_prefix"`
}

// KafkaSettings configures the moderation event producer. An empty broker list selects the stub publisher.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// SessionSettings configures the session cookie and its signing secret.
type SessionSettings struct {
	CookieName string        `mapstructure:"cookie_name"`
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
	Domain     string        `mapstructure:"domain"`
}

// RateLimitSettings holds human readable limits ("10 per minute") per operation.
type RateLimitSettings struct {
	Enabled       bool          `mapstructure:"enabled"`
	Login         string        `mapstructure:"login"`
	Signup        string        `mapstructure:"signup"`
	Predict       string        `mapstructure:"predict"`
	Classify      string        `mapstructure:"classify"`
	AdminAction   string        `mapstructure:"admin_action"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LockoutSettings configures progressive login lockout.
type LockoutSettings struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Duration    time.Duration `mapstructure:"duration"`
}

// AccessSettings tunes the access gate.
type AccessSettings struct {
	ReverifyBanOnRequest bool   `mapstructure:"reverify_ban_on_request"`
	LoginPath            string `mapstructure:"login_path"`
	HomePath             string `mapstructure:"home_path"`
}

// PredictorSettings points at the model serving endpoints. An empty recommender URL selects the rule-based fallback.
type PredictorSettings struct {
	RecommenderURL string        `mapstructure:"recommender_url"`
	ClassifierURL  string        `mapstructure:"classifier_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxImageBytes  int64         `mapstructure:"max_image_bytes"`
	CatalogPath    string        `mapstructure:"catalog_path"`
}

// Argon2Settings configures Argon2id password hashing parameters
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type TelemetrySettings struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
	MetricsToken string  `mapstructure:"metrics_token"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"grpc.host",
		"grpc.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.schema",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.session_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"session.cookie_name",
		"session.secret",
		"session.issuer",
		"session.ttl",
		"session.secure",
		"session.domain",
		"rate_limit.enabled",
		"rate_limit.login",
		"rate_limit.signup",
		"rate_limit.predict",
		"rate_limit.classify",
		"rate_limit.admin_action",
		"rate_limit.sweep_interval",
		"lockout.max_attempts",
		"lockout.duration",
		"access.reverify_ban_on_request",
		"access.login_path",
		"access.home_path",
		"predictor.recommender_url",
		"predictor.classifier_url",
		"predictor.timeout",
		"predictor.max_image_bytes",
		"predictor.catalog_path",
		"telemetry.otlp_endpoint",
		"telemetry.service_name",
		"telemetry.sampling_rate",
		"telemetry.metrics_token",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
		"cors.allowed_origins",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.App.Env == "production" && len(c.Session.Secret) < 32 {
		return fmt.Errorf("config: session.secret must be at least 32 bytes in production")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: session.ttl must be positive")
	}
	for name, spec := range c.RateLimit.Specs() {
		if _, err := limiter.ParseLimit(spec); err != nil {
			return fmt.Errorf("config: rate_limit.%s: %w", name, err)
		}
	}
	return nil
}

// Specs returns the configured limit strings keyed by operation.
func (r RateLimitSettings) Specs() map[string]string {
	return map[string]string{
		"login":        r.Login,
		"signup":       r.Signup,
		"predict":      r.Predict,
		"classify":     r.Classify,
		"admin_action": r.AdminAction,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "crop-system")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "crop")
	v.SetDefault("postgres.password", "crop_password")
	v.SetDefault("postgres.database", "crop")
	v.SetDefault("postgres.schema", "crop")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.session_prefix", "crop:session")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "crop")
	v.SetDefault("kafka.async", true)

	v.SetDefault("session.cookie_name", "crop_session")
	v.SetDefault("session.secret", "dev-only-session-secret-change-me-0000")
	v.SetDefault("session.issuer", "crop-system")
	v.SetDefault("session.ttl", "168h")
	v.SetDefault("session.secure", false)
	v.SetDefault("session.domain", "")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.login", "10 per minute")
	v.SetDefault("rate_limit.signup", "5 per minute")
	v.SetDefault("rate_limit.predict", "30 per minute")
	v.SetDefault("rate_limit.classify", "20 per minute")
	v.SetDefault("rate_limit.admin_action", "30 per minute")
	v.SetDefault("rate_limit.sweep_interval", "5m")

	v.SetDefault("lockout.max_attempts", 5)
	v.SetDefault("lockout.duration", "15m")

	v.SetDefault("access.reverify_ban_on_request", true)
	v.SetDefault("access.login_path", "/login")
	v.SetDefault("access.home_path", "/")

	v.SetDefault("predictor.recommender_url", "")
	v.SetDefault("predictor.classifier_url", "")
	v.SetDefault("predictor.timeout", "10s")
	v.SetDefault("predictor.max_image_bytes", 10<<20)
	v.SetDefault("predictor.catalog_path", "")

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "crop-system")
	v.SetDefault("telemetry.sampling_rate", 1.0)
	v.SetDefault("telemetry.metrics_token", "")

	v.SetDefault("argon2.memory", 65536) // 64 MB
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envPrefix+"_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
