package models

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type CloudStorageConfig struct {
	Provider string `mapstructure:"provider"`
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
}

type Config struct {
	ListenAddr  string `mapstructure:"listen_addr"`
	PostgresDSN string `mapstructure:"postgres_dsn"`

	BillingAPIKey        string `mapstructure:"billing_api_key"`
	BillingBaseURL       string `mapstructure:"billing_base_url"`
	BillingWebhookSecret string `mapstructure:"billing_webhook_secret"`

	KafkaEnabled    bool   `mapstructure:"kafka_enabled"`
	KafkaBrokerList string `mapstructure:"kafka_broker_list"`
	KafkaTopic      string `mapstructure:"kafka_topic_prefix"`

	DeliveryFee  int64  `mapstructure:"delivery_fee"` // cents per extra delivery
	DefaultPlan  string `mapstructure:"default_plan"`
	PlanCacheTTL int    `mapstructure:"plan_cache_ttl_seconds"`

	SeedRestaurants int `mapstructure:"seed_restaurants"`
	SeedConsumers   int `mapstructure:"seed_consumers"`

	ArchiveFolder     string             `mapstructure:"archive_folder"`
	ArchiveStart      time.Time          `mapstructure:"archive_start"`
	ArchiveEnd        time.Time          `mapstructure:"archive_end"`
	OutputDestination string             `mapstructure:"output_destination"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Default config location
		viper.AddConfigPath("examples")
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	viper.AutomaticEnv() // Read in environment variables that match

	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("billing_base_url", "https://api.stripe.com/v1")
	viper.SetDefault("kafka_topic_prefix", "saute")
	viper.SetDefault("delivery_fee", 350)
	viper.SetDefault("plan_cache_ttl_seconds", 60)
	viper.SetDefault("output_destination", "local")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	return &config, nil
}
