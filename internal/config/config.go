package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	DocuPanda  DocuPandaConfig  `mapstructure:"docupanda"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Storage    StorageConfig    `mapstructure:"storage"`
	CloudWatch CloudWatchConfig `mapstructure:"cloudwatch"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Path        string `mapstructure:"path"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// DocuPandaConfig holds the remote extraction service settings. APIKey and
// SchemaID are required per run; their absence is a configuration error
// surfaced by the client and orchestrator, not at startup.
type DocuPandaConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	SchemaID string        `mapstructure:"schema_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type PipelineConfig struct {
	// WarmupDelay is observed between submit and standardize because the remote
	// service needs processing time before it accepts a standardization request
	// for the same document.
	WarmupDelay  time.Duration `mapstructure:"warmup_delay"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	// FailFastPollErrors aborts the polling loop on a hard remote error instead
	// of absorbing it and retrying.
	FailFastPollErrors bool `mapstructure:"fail_fast_poll_errors"`
}

type StorageConfig struct {
	IncomingDir string `mapstructure:"incoming_dir"`
	ArchiveDir  string `mapstructure:"archive_dir"`
	BinaryDir   string `mapstructure:"binary_dir"`
	// OutputFormat selects the tabular store codec: xlsx or csv.
	OutputFormat string `mapstructure:"output_format"`
	OutputPath   string `mapstructure:"output_path"`
}

type CloudWatchConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Region        string `mapstructure:"region"`
	LogGroup      string `mapstructure:"log_group"`
	LogStream     string `mapstructure:"log_stream"`
	RetentionDays int32  `mapstructure:"retention_days"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.path", "./data/docuflow.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("docupanda.base_url", "https://app.docupanda.io")
	v.SetDefault("docupanda.timeout", "60s")
	v.SetDefault("pipeline.warmup_delay", "20s")
	v.SetDefault("pipeline.poll_interval", "20s")
	v.SetDefault("pipeline.max_attempts", 12)
	v.SetDefault("pipeline.fail_fast_poll_errors", false)
	v.SetDefault("storage.incoming_dir", "./data/incoming")
	v.SetDefault("storage.archive_dir", "./data/archived")
	v.SetDefault("storage.binary_dir", "./data/extracted")
	v.SetDefault("storage.output_format", "xlsx")
	v.SetDefault("storage.output_path", "./data/extracted.xlsx")
	v.SetDefault("cloudwatch.enabled", false)
	v.SetDefault("cloudwatch.log_group", "docuflow")
	v.SetDefault("cloudwatch.log_stream", "pipeline")
	v.SetDefault("cloudwatch.retention_days", 5)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("docupanda.api_key", "DOCUPANDA_API_KEY")
	v.BindEnv("docupanda.schema_id", "DOCUPANDA_SCHEMA_ID")
	v.BindEnv("docupanda.base_url", "DOCUPANDA_BASE_URL")
	v.BindEnv("cloudwatch.enabled", "CLOUDWATCH_ENABLED")
	v.BindEnv("cloudwatch.region", "AWS_REGION")
	v.BindEnv("cloudwatch.log_group", "CLOUDWATCH_LOG_GROUP")
	v.BindEnv("cloudwatch.log_stream", "CLOUDWATCH_LOG_STREAM")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
