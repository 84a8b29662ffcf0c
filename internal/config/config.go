package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/oura-data-handler/internal/ring"
)

var validate = validator.New()

type AppConfig struct {
	APIAddress  string `validate:"required,url"`
	AccessToken string

	// DataPaths maps data type names to local CSV exports.
	DataPaths map[string]string

	// HTTPTimeout is the fixed timeout of each API request.
	HTTPTimeout time.Duration `validate:"gt=0"`

	Duplicates ring.DuplicatePolicy

	// SyncInterval schedules the periodic export of recent API data in serve
	// mode; 0 disables the job. An empty SyncDir keeps exports in memory.
	SyncInterval time.Duration
	SyncTypes    []string
	SyncDir      string
	SyncLookback ring.Unit `validate:"oneof=day week month year"`

	// AnomalyWindow is the default rolling window of the HTTP endpoints.
	AnomalyWindow int `validate:"gte=2"`

	Port string `validate:"required,numeric"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.APIAddress = getenvDefault("OURA_API_ADDRESS", "https://api.ouraring.com")
	cfg.AccessToken = os.Getenv("OURA_ACCESS_TOKEN")

	paths, err := parsePaths(os.Getenv("OURA_DATA_PATHS"))
	if err != nil {
		return nil, err
	}
	cfg.DataPaths = paths

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	policy, err := ring.ParseDuplicatePolicy(os.Getenv("DUPLICATE_POLICY"))
	if err != nil {
		return nil, fmt.Errorf("invalid DUPLICATE_POLICY: %w", err)
	}
	cfg.Duplicates = policy

	interval, err := time.ParseDuration(getenvDefault("SYNC_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	cfg.SyncInterval = interval
	cfg.SyncTypes = splitList(getenvDefault("SYNC_TYPES", "daily_sleep,daily_activity,daily_readiness"))
	for _, t := range cfg.SyncTypes {
		if _, err := ring.LookupSchema(t); err != nil {
			return nil, fmt.Errorf("invalid SYNC_TYPES: %w", err)
		}
	}
	cfg.SyncDir = os.Getenv("SYNC_DIR")
	cfg.SyncLookback = ring.Unit(strings.ToLower(getenvDefault("SYNC_LOOKBACK", "week")))

	cfg.AnomalyWindow = getenvInt("ANOMALY_WINDOW", 7)
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parsePaths reads "type=path,type=path".
func parsePaths(s string) (map[string]string, error) {
	paths := make(map[string]string)
	for _, item := range splitList(s) {
		name, path, ok := strings.Cut(item, "=")
		name, path = strings.TrimSpace(name), strings.TrimSpace(path)
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid OURA_DATA_PATHS entry %q, want type=path", item)
		}
		if _, err := ring.LookupSchema(name); err != nil {
			return nil, fmt.Errorf("invalid OURA_DATA_PATHS entry %q: %w", item, err)
		}
		paths[name] = path
	}
	return paths, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
