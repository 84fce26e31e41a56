package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the dashboard service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Reporting     ReportingConfig     `mapstructure:"reporting"`
	Images        ImagesConfig        `mapstructure:"images"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	IdleTimeout           time.Duration `mapstructure:"idle_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MinConns        int32         `mapstructure:"min_conns"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// ReportingConfig controls how billing usage reports are produced and which
// services the dashboard pages offer.
type ReportingConfig struct {
	Timezone string             `mapstructure:"timezone"`
	Currency string             `mapstructure:"currency"`
	CacheTTL time.Duration      `mapstructure:"cache_ttl"`
	Pages    []BillingPageEntry `mapstructure:"pages"`
}

// BillingPageEntry is the page-level configuration a dashboard route selects:
// which service the panel covers plus its title and description copy.
type BillingPageEntry struct {
	Service     string `mapstructure:"service"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`
}

type ImagesConfig struct {
	Storage        string            `mapstructure:"storage"`
	MaxSizeMB      int               `mapstructure:"max_size_mb"`
	DefaultTTL     time.Duration     `mapstructure:"default_ttl"`
	MaxTTL         time.Duration     `mapstructure:"max_ttl"`
	EncryptionKey  string            `mapstructure:"encryption_key"`
	SweepInterval  time.Duration     `mapstructure:"sweep_interval"`
	SweepBatchSize int               `mapstructure:"sweep_batch_size"`
	S3             ImagesS3Config    `mapstructure:"s3"`
	Local          ImagesLocalConfig `mapstructure:"local"`
}

type ImagesS3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type ImagesLocalConfig struct {
	Directory string `mapstructure:"directory"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("DASHBOARD_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("dashboard")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("DASHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set and fills safe defaults.
func (c *Config) Validate() error {
	var missing []string

	if c.Database.URL == "" {
		missing = append(missing, "DASHBOARD_DATABASE_URL")
	}
	if c.Redis.URL == "" {
		missing = append(missing, "DASHBOARD_REDIS_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	reportingTZ := strings.TrimSpace(c.Reporting.Timezone)
	if reportingTZ == "" {
		reportingTZ = "UTC"
	}
	if _, err := time.LoadLocation(reportingTZ); err != nil {
		return fmt.Errorf("invalid reporting.timezone: %w", err)
	}
	c.Reporting.Timezone = reportingTZ

	currency := strings.ToUpper(strings.TrimSpace(c.Reporting.Currency))
	if currency == "" {
		currency = "USD"
	}
	c.Reporting.Currency = currency
	if c.Reporting.CacheTTL < 0 {
		return fmt.Errorf("reporting.cache_ttl must be >= 0")
	}
	for i := range c.Reporting.Pages {
		page := &c.Reporting.Pages[i]
		page.Service = strings.ToLower(strings.TrimSpace(page.Service))
		if page.Service == "" {
			return fmt.Errorf("reporting.pages[%d].service must be provided", i)
		}
		if strings.TrimSpace(page.Title) == "" {
			return fmt.Errorf("reporting.pages[%d].title must be provided", i)
		}
	}

	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must be >= 0")
	}
	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}
	if c.Database.RunMigrations && c.Database.MigrationsDir == "" {
		return fmt.Errorf("database.migrations_dir must be provided when run_migrations is true")
	}

	return c.Images.validate()
}

func (i *ImagesConfig) validate() error {
	if i.MaxSizeMB <= 0 {
		return fmt.Errorf("images.max_size_mb must be > 0")
	}
	if i.DefaultTTL <= 0 {
		i.DefaultTTL = 168 * time.Hour
	}
	if i.MaxTTL <= 0 {
		i.MaxTTL = 720 * time.Hour
	}
	if i.DefaultTTL > i.MaxTTL {
		return fmt.Errorf("images.default_ttl cannot exceed images.max_ttl")
	}
	if strings.TrimSpace(i.Storage) == "" {
		i.Storage = "local"
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 20)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("database.run_migrations", true)
	v.SetDefault("database.migrations_dir", "./migrations")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("reporting.timezone", "UTC")
	v.SetDefault("reporting.currency", "USD")
	v.SetDefault("reporting.cache_ttl", "5m")
	v.SetDefault("reporting.pages", []map[string]string{
		{
			"service":     "firebase",
			"title":       "Firebase",
			"description": "Firestore, Storage, and Hosting usage for the active project.",
		},
		{
			"service":     "gemini",
			"title":       "Gemini API",
			"description": "Model serving usage billed through the Gemini API.",
		},
	})

	v.SetDefault("images.storage", "local")
	v.SetDefault("images.max_size_mb", 50)
	v.SetDefault("images.default_ttl", "168h")
	v.SetDefault("images.max_ttl", "720h")
	v.SetDefault("images.sweep_interval", "15m")
	v.SetDefault("images.sweep_batch_size", 200)
	v.SetDefault("images.local.directory", "./data/images")

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
