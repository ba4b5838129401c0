package config

import (
	"reflect"
	"strings"

	"stash-ingest/core/cursor"
	"stash-ingest/core/database"
	"stash-ingest/core/feed"
	"stash-ingest/core/logger"
	"stash-ingest/core/server"
	"stash-ingest/core/storage"
	"stash-ingest/core/stream"
	"stash-ingest/feature/detector"
	"stash-ingest/feature/modifier"
	"stash-ingest/feature/output"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the operator status server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Feed holds configuration for the public stash feed client.
	Feed feed.Config `mapstructure:"feed"`
	// Stream holds the batching thresholds.
	Stream stream.Config `mapstructure:"stream"`
	// Cursor holds configuration for cursor persistence.
	Cursor cursor.Config `mapstructure:"cursor"`
	// Catalog holds configuration for the modifier catalog.
	Catalog modifier.Config `mapstructure:"catalog"`
	// Detector holds the detector pipeline configuration.
	Detector detector.Config `mapstructure:"detector"`
	// Dedup holds the fingerprint window configuration.
	Dedup detector.DedupConfig `mapstructure:"dedup"`
	// Output holds configuration for the storage service writer.
	Output output.Config `mapstructure:"output"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. FEED_USER_AGENT -> feed.user_agent)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv.
		// Slices take a comma separated default, split by the decode hook.
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
