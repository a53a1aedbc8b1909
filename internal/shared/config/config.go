package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration shared by the analyze CLI and the fixture API server.
type Config struct {
	Env             string
	Port            string
	CORSAllowOrigin []string

	// Client side.
	ServerURL       string
	APIToken        string
	PollInterval    time.Duration
	PollMaxAttempts int

	// Fixture server side.
	StoreDir           string
	CompleteAfterPolls int
	PollLimitWindow    time.Duration
}

// fileConfig is the optional YAML overlay read from NEUROSENSE_CONFIG
// (default ./neurosense.yaml).
type fileConfig struct {
	Env    string `yaml:"env"`
	Server struct {
		Port               string `yaml:"port"`
		CORSAllowOrigins   string `yaml:"corsAllowOrigins"`
		StoreDir           string `yaml:"storeDir"`
		CompleteAfterPolls int    `yaml:"completeAfterPolls"`
		PollLimitWindowMs  int    `yaml:"pollLimitWindowMs"`
	} `yaml:"server"`
	Client struct {
		ServerURL       string `yaml:"serverUrl"`
		APIToken        string `yaml:"apiToken"`
		PollIntervalMs  int    `yaml:"pollIntervalMs"`
		PollMaxAttempts int    `yaml:"pollMaxAttempts"`
	} `yaml:"client"`
}

// Load reads configuration with precedence defaults < YAML file < environment.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := Config{
		Env:                "dev",
		Port:               "8080",
		CORSAllowOrigin:    []string{"http://localhost:5173"},
		ServerURL:          "http://localhost:8080",
		PollInterval:       2 * time.Second,
		PollMaxAttempts:    30,
		StoreDir:           "./data",
		CompleteAfterPolls: 2,
		PollLimitWindow:    time.Second,
	}
	applyFile(&cfg, getEnv("NEUROSENSE_CONFIG", "neurosense.yaml"))
	applyEnv(&cfg)
	return cfg
}

func applyFile(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return
	}
	if fc.Env != "" {
		cfg.Env = fc.Env
	}
	if fc.Server.Port != "" {
		cfg.Port = fc.Server.Port
	}
	if fc.Server.CORSAllowOrigins != "" {
		cfg.CORSAllowOrigin = splitAndTrim(fc.Server.CORSAllowOrigins)
	}
	if fc.Server.StoreDir != "" {
		cfg.StoreDir = fc.Server.StoreDir
	}
	if fc.Server.CompleteAfterPolls > 0 {
		cfg.CompleteAfterPolls = fc.Server.CompleteAfterPolls
	}
	if fc.Server.PollLimitWindowMs != 0 {
		cfg.PollLimitWindow = time.Duration(fc.Server.PollLimitWindowMs) * time.Millisecond
	}
	if fc.Client.ServerURL != "" {
		cfg.ServerURL = fc.Client.ServerURL
	}
	if fc.Client.APIToken != "" {
		cfg.APIToken = fc.Client.APIToken
	}
	if fc.Client.PollIntervalMs > 0 {
		cfg.PollInterval = time.Duration(fc.Client.PollIntervalMs) * time.Millisecond
	}
	if fc.Client.PollMaxAttempts > 0 {
		cfg.PollMaxAttempts = fc.Client.PollMaxAttempts
	}
}

func applyEnv(cfg *Config) {
	cfg.Env = normalizeEnv(getEnv("ENV", cfg.Env))
	cfg.Port = getEnv("PORT", cfg.Port)
	if raw := os.Getenv("CORS_ALLOW_ORIGINS"); raw != "" {
		cfg.CORSAllowOrigin = splitAndTrim(raw)
	}
	cfg.ServerURL = getEnv("NEUROSENSE_SERVER_URL", cfg.ServerURL)
	cfg.APIToken = getEnv("NEUROSENSE_API_TOKEN", cfg.APIToken)
	if ms := getEnvInt("POLL_INTERVAL_MS", 0); ms > 0 {
		cfg.PollInterval = time.Duration(ms) * time.Millisecond
	}
	if n := getEnvInt("POLL_MAX_ATTEMPTS", 0); n > 0 {
		cfg.PollMaxAttempts = n
	}
	cfg.StoreDir = getEnv("LOCAL_STORE_DIR", cfg.StoreDir)
	if n := getEnvInt("COMPLETE_AFTER_POLLS", 0); n > 0 {
		cfg.CompleteAfterPolls = n
	}
	if ms := getEnvInt("POLL_LIMIT_WINDOW_MS", 0); ms != 0 {
		cfg.PollLimitWindow = time.Duration(ms) * time.Millisecond
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
