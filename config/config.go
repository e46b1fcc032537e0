package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Storage StorageConfig `mapstructure:"storage"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// GeminiConfig holds the Gemini API settings shared by all generative calls.
type GeminiConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	LiteModel       string  `mapstructure:"lite_model"`
	AdvancedModel   string  `mapstructure:"advanced_model"`
	Temperature     float32 `mapstructure:"temperature"`
	TopP            float32 `mapstructure:"top_p"`
	TopK            int32   `mapstructure:"top_k"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens"`
}

// StorageConfig holds the document storage settings.
type StorageConfig struct {
	Type         string `mapstructure:"type"`
	LocalPath    string `mapstructure:"local_path"`
	S3Bucket     string `mapstructure:"s3_bucket"`
	S3Region     string `mapstructure:"s3_region"`
	AWSAccessKey string `mapstructure:"aws_access_key"`
	AWSSecretKey string `mapstructure:"aws_secret_key"`
}

// IngestConfig holds the document ingestion settings.
type IngestConfig struct {
	RasterDPI       float64 `mapstructure:"raster_dpi"`
	MaxFileSize     int64   `mapstructure:"max_file_size"`
	DescribeVisuals bool    `mapstructure:"describe_visuals"`
}

// LoggingConfig holds the log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional config.yaml, the environment
// and an optional .env file, in increasing order of precedence for the
// environment over the file.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v)
	bindEnvAliases(v)

	// The config file is optional; environment variables and defaults
	// are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env file found walking up from the
// working directory. Missing files are fine.
func loadEnvFile() {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			_ = godotenv.Load(abs)
			return
		}
	}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("gemini.lite_model", "gemini-2.0-flash-lite")
	v.SetDefault("gemini.advanced_model", "gemini-2.0-flash-lite")
	v.SetDefault("gemini.temperature", 0.3)
	v.SetDefault("gemini.top_p", 0.95)
	v.SetDefault("gemini.top_k", 40)
	v.SetDefault("gemini.max_output_tokens", 8192)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")
	v.SetDefault("ingest.raster_dpi", 144)
	v.SetDefault("ingest.max_file_size", 10*1024*1024)
	v.SetDefault("ingest.describe_visuals", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// bindEnvAliases maps config keys onto the environment variable names the
// deployment actually uses.
func bindEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("gemini.lite_model", "LITE_MODEL")
	_ = v.BindEnv("gemini.advanced_model", "ADVANCED_MODEL")
	_ = v.BindEnv("storage.type", "STORAGE_TYPE")
	_ = v.BindEnv("storage.local_path", "STORAGE_LOCAL_PATH")
	_ = v.BindEnv("storage.s3_bucket", "AWS_S3_BUCKET")
	_ = v.BindEnv("storage.s3_region", "AWS_REGION")
	_ = v.BindEnv("storage.aws_access_key", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("storage.aws_secret_key", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("ingest.raster_dpi", "RASTER_DPI")
	_ = v.BindEnv("ingest.max_file_size", "MAX_FILE_SIZE")
	_ = v.BindEnv("ingest.describe_visuals", "DESCRIBE_VISUALS")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
}

func validate(cfg *Config) error {
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.Storage.Type == "s3" && cfg.Storage.S3Bucket == "" {
		return fmt.Errorf("AWS_S3_BUCKET is required when storage type is s3")
	}
	return nil
}
