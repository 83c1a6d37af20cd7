package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every externally observable knob of the sync engine: the
// sync client settings, the local snapshot store settings, the connectivity
// probe, and logging.
type Config struct {
	Sync         SyncConfig
	Storage      StorageConfig
	Connectivity ConnectivityConfig
	Logger       LoggerConfig
}

// SyncConfig configures the two-call sync client.
type SyncConfig struct {
	BaseURL           string
	MaxRetries        int
	RetryDelay        time.Duration
	HTTPTimeout       time.Duration
	EnableCompression bool
}

// StorageConfig configures the local snapshot store.
type StorageConfig struct {
	Backend string // "file" or "redis"
	Dir     string // file backend: base directory for snapshots
	MaxAge  time.Duration
	Redis   RedisConfig
}

// RedisConfig is the redis backend connection block.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// ConnectivityConfig configures the online/offline monitor.
type ConnectivityConfig struct {
	ProbeInterval time.Duration
}

// LoggerConfig configures structured logging.
type LoggerConfig struct {
	Level string
	Env   string
}

// LoadConfig reads config.yaml (current dir or ./config) with environment
// overrides, falling back to defaults for anything unset.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing file is fine: defaults plus env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{
		Sync: SyncConfig{
			BaseURL:           viper.GetString("sync.base_url"),
			MaxRetries:        viper.GetInt("sync.max_retries"),
			RetryDelay:        time.Duration(viper.GetInt("sync.retry_delay_ms")) * time.Millisecond,
			HTTPTimeout:       viper.GetDuration("sync.http_timeout"),
			EnableCompression: viper.GetBool("sync.enable_compression"),
		},
		Storage: StorageConfig{
			Backend: viper.GetString("storage.backend"),
			Dir:     viper.GetString("storage.dir"),
			MaxAge:  viper.GetDuration("storage.max_age"),
			Redis: RedisConfig{
				Address:  viper.GetString("storage.redis.address"),
				Password: viper.GetString("storage.redis.password"),
				DB:       viper.GetInt("storage.redis.db"),
			},
		},
		Connectivity: ConnectivityConfig{
			ProbeInterval: viper.GetDuration("connectivity.probe_interval"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
	}

	// Override with environment variables if set
	if baseURL := os.Getenv("SYNC_BASE_URL"); baseURL != "" {
		config.Sync.BaseURL = baseURL
	}
	if dir := os.Getenv("STORAGE_DIR"); dir != "" {
		config.Storage.Dir = dir
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Storage.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Storage.Redis.Password = redisPassword
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("sync.base_url", "http://localhost:8080/api/quiz")
	viper.SetDefault("sync.max_retries", 3)
	viper.SetDefault("sync.retry_delay_ms", 1000)
	viper.SetDefault("sync.http_timeout", "15s")
	viper.SetDefault("sync.enable_compression", false)
	viper.SetDefault("storage.backend", "file")
	viper.SetDefault("storage.dir", defaultStorageDir())
	viper.SetDefault("storage.max_age", "24h")
	viper.SetDefault("connectivity.probe_interval", "30s")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")
}

func defaultStorageDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return ".quizsync"
	}
	return cacheDir + string(os.PathSeparator) + "quizsync"
}
