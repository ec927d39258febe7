package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Interview InterviewConfig `mapstructure:"interview"`
	Uploads   UploadsConfig   `mapstructure:"uploads"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string   `mapstructure:"port"`
	SessionSecret string   `mapstructure:"session_secret"`
	ShareSecret   string   `mapstructure:"share_secret"`
	SecureCookies bool     `mapstructure:"secure_cookies"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection settings. Driver "memory"
// keeps everything in process, seeded from the interview seed file.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// InterviewConfig holds candidate session settings.
type InterviewConfig struct {
	SeedFile          string        `mapstructure:"seed_file"`
	DefaultTimeLimit  int           `mapstructure:"default_time_limit"`
	MinTimeLimit      int           `mapstructure:"min_time_limit"`
	InFlightPolicy    string        `mapstructure:"inflight_policy"`
	PreferredCodec    string        `mapstructure:"preferred_codec"`
	FallbackCodec     string        `mapstructure:"fallback_codec"`
	RequireShareToken bool          `mapstructure:"require_share_token"`
	ShareTTL          time.Duration `mapstructure:"share_ttl"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
}

// UploadsConfig controls where recorded answers are written.
type UploadsConfig struct {
	Directory string `mapstructure:"directory"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.session_secret", "vector-dev-session-secret-change-me")
	v.SetDefault("server.share_secret", "vector-dev-share-secret-change-me")
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "vector")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "vector-interview")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	// Interview defaults
	v.SetDefault("interview.seed_file", "config/interviews.yaml")
	v.SetDefault("interview.default_time_limit", 120)
	v.SetDefault("interview.min_time_limit", 30)
	v.SetDefault("interview.inflight_policy", "discard")
	v.SetDefault("interview.preferred_codec", "video/webm;codecs=vp9,opus")
	v.SetDefault("interview.fallback_codec", "video/webm")
	v.SetDefault("interview.require_share_token", false)
	v.SetDefault("interview.share_ttl", 7*24*time.Hour)
	v.SetDefault("interview.idle_timeout", 2*time.Hour)
	v.SetDefault("interview.sweep_interval", time.Minute)

	v.SetDefault("uploads.directory", "uploads")
}

// Load reads configuration from projectRoot/config/config.yaml, a .env file
// in projectRoot and VECTOR_* environment variables, in increasing priority.
// The result is also stored in Conf and kept current on file changes.
func Load(projectRoot string, log *zap.Logger) (*Config, error) {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(filepath.Join(projectRoot, ".env")); err == nil {
		log.Info("Loaded environment from .env")
	}

	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("VECTOR") // e.g., VECTOR_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	Conf = &cfg

	if v.ConfigFileUsed() != "" {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
			var next Config
			if err := v.Unmarshal(&next); err != nil {
				log.Error("Error reloading configuration", zap.Error(err))
				return
			}
			Conf = &next
		})
	}

	log.Info("Configuration loaded successfully",
		zap.String("database", cfg.Database.Driver),
		zap.String("port", cfg.Server.Port),
	)
	return &cfg, nil
}
