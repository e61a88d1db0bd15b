package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	DB          DBConfig          `mapstructure:"db"`
	Cron        CronConfig        `mapstructure:"cron"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
	Discharge   DischargeConfig   `mapstructure:"discharge"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	GeoStore    GeoStoreConfig    `mapstructure:"geostore"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Auth        AuthConfig        `mapstructure:"auth"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	FetchDue           string `mapstructure:"fetch_due"`
	RecalculatePending string `mapstructure:"recalculate_pending"`
}

// IngestConfig bounds every outbound fetch: a cycle never takes longer than
// roughly Timeout * (Retries + 1) + RetryDelay * Retries. The default of two
// retries makes three attempts per cycle.
type IngestConfig struct {
	Timeout                time.Duration `mapstructure:"timeout"`
	Retries                int           `mapstructure:"retries"`
	RetryDelay             time.Duration `mapstructure:"retry_delay"`
	Workers                int           `mapstructure:"workers"`
	UserAgent              string        `mapstructure:"user_agent"`
	DefaultTimestampFormat string        `mapstructure:"default_timestamp_format"`
}

type DischargeConfig struct {
	AutoCalculate       bool   `mapstructure:"auto_calculate"`
	WaterLevelParameter string `mapstructure:"water_level_parameter"`
	PendingBatchSize    int    `mapstructure:"pending_batch_size"`
}

type CredentialsConfig struct {
	KeyEnv     string `mapstructure:"key_env"`
	PrevKeyEnv string `mapstructure:"prev_key_env"`
}

type GeoStoreConfig struct {
	Root string `mapstructure:"root"`
}

type CacheConfig struct {
	Driver        string        `mapstructure:"driver"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         int    `mapstructure:"qos"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadDotEnv loads the given dotenv files into the process environment.
// Missing files are ignored; variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FFWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "Asia/Jakarta")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.fetch_due", "0 */1 * * * *")
	v.SetDefault("cron.recalculate_pending", "0 */5 * * * *")

	v.SetDefault("ingest.timeout", "30s")
	v.SetDefault("ingest.retries", 2)
	v.SetDefault("ingest.retry_delay", "1s")
	v.SetDefault("ingest.workers", 4)
	v.SetDefault("ingest.user_agent", "ffws-ingest/1.0")
	v.SetDefault("ingest.default_timestamp_format", "2006-01-02 15:04:05")

	v.SetDefault("discharge.auto_calculate", true)
	v.SetDefault("discharge.water_level_parameter", "water_level")
	v.SetDefault("discharge.pending_batch_size", 500)

	v.SetDefault("credentials.key_env", "FFWS_CREDENTIALS_KEY")
	v.SetDefault("credentials.prev_key_env", "FFWS_CREDENTIALS_PREV_KEY")

	v.SetDefault("geostore.root", "storage/app")

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "10m")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "ffws-ingest")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "ffws")
	v.SetDefault("mqtt.qos", 1)

	v.SetDefault("metrics.enabled", true)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Ingest.Timeout <= 0 {
		return errors.New("ingest.timeout must be positive")
	}
	if c.Ingest.Retries < 0 {
		return errors.New("ingest.retries must not be negative")
	}
	if c.Ingest.RetryDelay < 0 {
		return errors.New("ingest.retry_delay must not be negative")
	}
	if c.Ingest.Workers <= 0 {
		return errors.New("ingest.workers must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(c.Cache.Driver)) {
	case "", "memory", "none":
	case "redis":
		if strings.TrimSpace(c.Cache.RedisAddr) == "" {
			return errors.New("cache.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unsupported cache.driver: %s", c.Cache.Driver)
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required when auth is enabled")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return errors.New("mqtt.qos must be 0, 1 or 2")
	}
	return nil
}
