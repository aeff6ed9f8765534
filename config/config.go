package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration loaded from environment variables
// and, optionally, a YAML file.
type Config struct {
	DataDir       string
	DatasetFile   string
	LedgerFile    string
	BatchExt      string
	ListingPrefix string

	HeaderAliases map[string]string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SQLitePath string
	ModelPath  string

	MaxRetries int
	Debug      bool
}

// FileConfig is the optional YAML overlay. Empty fields keep the env value.
type FileConfig struct {
	Data struct {
		Dir         string `yaml:"dir"`
		DatasetFile string `yaml:"dataset_file"`
		LedgerFile  string `yaml:"ledger_file"`
		BatchExt    string `yaml:"batch_ext"`
	} `yaml:"data"`
	ListingPrefix string            `yaml:"listing_prefix"`
	HeaderAliases map[string]string `yaml:"header_aliases"`
	SQLitePath    string            `yaml:"sqlite_path"`
	ModelPath     string            `yaml:"model_path"`
}

// Load reads the .env file and returns a populated Config struct. When
// CONFIG_FILE is set the YAML file it names is applied on top.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	cfg := &Config{
		DataDir:       getEnv("DATA_DIR", "./data"),
		DatasetFile:   getEnv("DATASET_FILE", "usedcars_dataset.csv"),
		LedgerFile:    getEnv("LEDGER_FILE", "added_batches.json"),
		BatchExt:      getEnv("BATCH_EXT", ".csv"),
		ListingPrefix: getEnv("LISTING_PREFIX", "/annunci/"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "usedcars"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "usedcars"),
		PostgresDB:       getEnv("POSTGRES_DB", "usedcars"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SQLitePath: getEnv("SQLITE_PATH", ""),
		ModelPath:  getEnv("MODEL_PATH", "./models/price_model.json"),

		MaxRetries: getEnvInt("MAX_RETRIES", 5),
		Debug:      getEnvBool("DEBUG", false),
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		fc, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Apply(fc)
	}
	return cfg, nil
}

// LoadFile parses a YAML config file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return &fc, nil
}

// Apply overlays the non-empty values of fc onto c.
func (c *Config) Apply(fc *FileConfig) {
	if fc == nil {
		return
	}
	setIf(&c.DataDir, fc.Data.Dir)
	setIf(&c.DatasetFile, fc.Data.DatasetFile)
	setIf(&c.LedgerFile, fc.Data.LedgerFile)
	setIf(&c.BatchExt, fc.Data.BatchExt)
	setIf(&c.ListingPrefix, fc.ListingPrefix)
	setIf(&c.SQLitePath, fc.SQLitePath)
	setIf(&c.ModelPath, fc.ModelPath)
	if len(fc.HeaderAliases) > 0 {
		if c.HeaderAliases == nil {
			c.HeaderAliases = make(map[string]string, len(fc.HeaderAliases))
		}
		for from, to := range fc.HeaderAliases {
			c.HeaderAliases[from] = to
		}
	}
}

// DatasetPath is the accumulated dataset file inside the data directory.
func (c *Config) DatasetPath() string {
	return filepath.Join(c.DataDir, c.DatasetFile)
}

// LedgerPath is the batch ledger file inside the data directory.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.DataDir, c.LedgerFile)
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	}
	return fallback
}
