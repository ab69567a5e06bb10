package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "FRESHMART"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultStoreDriver   = "sqlite"
	defaultDatabasePath  = "freshmart.db"
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "freshmart"
	defaultNotifyBaseURL = "http://localhost:5000/api"
	defaultImageDir      = "product-images"
	defaultImageBaseURL  = "/images"
	defaultLogLevel      = "info"
	defaultLogEncoding   = "json"
)

// AppConfig captures runtime configuration for the admin API server.
type AppConfig struct {
	HTTPAddress   string
	StoreDriver   string // "sqlite" or "mongo"
	DatabasePath  string
	MongoURI      string
	MongoDatabase string
	NotifyBaseURL string
	ImageDir      string
	ImageBaseURL  string
	LogLevel      string
	LogEncoding   string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("store.driver", defaultStoreDriver)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("mongo.uri", defaultMongoURI)
	configViper.SetDefault("mongo.database", defaultMongoDatabase)
	configViper.SetDefault("notify.base_url", defaultNotifyBaseURL)
	configViper.SetDefault("images.dir", defaultImageDir)
	configViper.SetDefault("images.base_url", defaultImageBaseURL)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.encoding", defaultLogEncoding)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		StoreDriver:   configViper.GetString("store.driver"),
		DatabasePath:  configViper.GetString("database.path"),
		MongoURI:      configViper.GetString("mongo.uri"),
		MongoDatabase: configViper.GetString("mongo.database"),
		NotifyBaseURL: configViper.GetString("notify.base_url"),
		ImageDir:      configViper.GetString("images.dir"),
		ImageBaseURL:  configViper.GetString("images.base_url"),
		LogLevel:      configViper.GetString("log.level"),
		LogEncoding:   configViper.GetString("log.encoding"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.StoreDriver)) {
	case "sqlite":
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required for the sqlite store")
		}
	case "mongo":
		if strings.TrimSpace(c.MongoURI) == "" {
			return fmt.Errorf("mongo.uri is required for the mongo store")
		}
		if strings.TrimSpace(c.MongoDatabase) == "" {
			return fmt.Errorf("mongo.database is required for the mongo store")
		}
	default:
		return fmt.Errorf("store.driver must be sqlite or mongo, got %q", c.StoreDriver)
	}

	if strings.TrimSpace(c.NotifyBaseURL) == "" {
		return fmt.Errorf("notify.base_url is required")
	}
	if strings.TrimSpace(c.ImageDir) == "" {
		return fmt.Errorf("images.dir is required")
	}
	return nil
}
