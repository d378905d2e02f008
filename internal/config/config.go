package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                   int      `yaml:"port"`
	JWTSecret              string   `yaml:"jwt_secret_key"`
	TokenTTLHours          int      `yaml:"token_ttl_hours"`
	DatabaseURI            string   `yaml:"database_uri"`
	CheckpointPath         string   `yaml:"checkpoint_path"`
	UploadDirectory        string   `yaml:"upload_dir"`
	MaxUploadBytes         int64    `yaml:"max_upload_bytes"`
	MaxImagePixels         int64    `yaml:"max_image_pixels"` // width*height before decoding
	MaxUploadDirectorySize int64    `yaml:"max_upload_directory_size"` // MB
	UploadPruneInterval    int      `yaml:"upload_prune_interval"`     // seconds
	ProcessingWorkers      int      `yaml:"processing_workers"`
	InferenceThreads       int      `yaml:"inference_threads"` // goroutines inside one forward pass
	WeightSeed             uint64   `yaml:"weight_seed"`
	Device                 string   `yaml:"device"`
	LogDirectory           string   `yaml:"log_dir"`
	LogLevel               string   `yaml:"log_level"`
	CORSOrigins            []string `yaml:"cors_origins"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:                   5000,
		JWTSecret:              "dev-secret-fixed",
		TokenTTLHours:          24,
		DatabaseURI:            "sqlite:///stegano.db",
		CheckpointPath:         filepath.Join(".", "models", "final_ganstego.safetensors"),
		UploadDirectory:        filepath.Join(".", "instance", "uploads"),
		MaxUploadBytes:         5 << 20,
		MaxImagePixels:         89_478_485,
		MaxUploadDirectorySize: 1024,
		UploadPruneInterval:    300,
		ProcessingWorkers:      2,
		InferenceThreads:       4,
		WeightSeed:             42,
		Device:                 "cpu",
		LogDirectory:           filepath.Join(".", "logs"),
		LogLevel:               "info",
		CORSOrigins:            []string{"*"},
	}
}

// Load reads .env (if present), then the YAML file named by STEGANO_CONFIG, then
// environment variables. Later sources win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("STEGANO_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			// Config is loaded before the logger exists.
			os.Stderr.WriteString("config: ignoring " + path + ": " + err.Error() + "\n")
		}
	}
	cfg.applyEnv()
	return cfg
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.JWTSecret = getEnv("JWT_SECRET_KEY", c.JWTSecret)
	c.TokenTTLHours = getEnvAsInt("TOKEN_TTL_HOURS", c.TokenTTLHours)
	c.DatabaseURI = getEnv("DATABASE_URI", c.DatabaseURI)
	c.CheckpointPath = getEnv("CHECKPOINT_PATH", c.CheckpointPath)
	c.UploadDirectory = getEnv("UPLOAD_DIR", c.UploadDirectory)
	c.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.MaxImagePixels = getEnvAsInt64("MAX_IMAGE_PIXELS", c.MaxImagePixels)
	c.MaxUploadDirectorySize = getEnvAsInt64("MAX_UPLOAD_DIRECTORY_SIZE", c.MaxUploadDirectorySize)
	c.UploadPruneInterval = getEnvAsInt("UPLOAD_PRUNE_INTERVAL", c.UploadPruneInterval)
	c.ProcessingWorkers = getEnvAsInt("PROCESSING_WORKERS", c.ProcessingWorkers)
	c.InferenceThreads = getEnvAsInt("INFERENCE_THREADS", c.InferenceThreads)
	c.WeightSeed = uint64(getEnvAsInt64("WEIGHT_SEED", int64(c.WeightSeed)))
	c.Device = getEnv("DEVICE", c.Device)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
}

// TokenTTL is the access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// PruneInterval is how often the upload directory is trimmed.
func (c *Config) PruneInterval() time.Duration {
	return time.Duration(c.UploadPruneInterval) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
