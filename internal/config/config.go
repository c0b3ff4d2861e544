package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPostHogHost is the cloud host used when none is configured.
const DefaultPostHogHost = "https://app.posthog.com"

// PostHog holds the analytics credentials. All fields are optional;
// missing values disable the operations that need them.
// Field layout must stay convertible to posthog.Settings.
type PostHog struct {
	APISecret  string
	ProjectID  string
	PublicKey  string
	APIHost    string
	IngestHost string
	Timeout    time.Duration
}

// Config contains runtime configuration required by the service.
type Config struct {
	DBURL    string            // empty disables the request ledger
	APIKeys  map[string]string // apiKey -> tenantID
	HTTPPort int
	GRPCPort int // 0 disables the gRPC health server
	LogLevel string
	PostHog  PostHog
}

type configFile struct {
	Server struct {
		HTTPPort int    `yaml:"http_port"`
		GRPCPort *int   `yaml:"grpc_port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"server"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	PostHog struct {
		APISecret      string `yaml:"api_secret"`
		ProjectID      string `yaml:"project_id"`
		PublicKey      string `yaml:"public_key"`
		APIHost        string `yaml:"api_host"`
		IngestHost     string `yaml:"ingest_host"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"posthog"`
	APIKeys map[string]string `yaml:"api_keys"` // tenant -> key
}

var errAPIKeys = errors.New(`API_KEYS must be "tenant:key,tenant:key"`)

// Load reads configuration from the YAML file named by CONFIG_PATH, if any,
// then applies environment variables on top.
// API_KEYS format: "tenant1:key1,tenant2:key2"
func Load() (Config, error) {
	cfg := Config{
		APIKeys:  map[string]string{},
		HTTPPort: 8080,
		GRPCPort: 9090,
		LogLevel: "info",
		PostHog: PostHog{
			APIHost:    DefaultPostHogHost,
			IngestHost: DefaultPostHogHost,
			Timeout:    10 * time.Second,
		},
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := applyFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	}

	cfg.DBURL = envOrDefault("DB_URL", cfg.DBURL)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.PostHog.APISecret = envOrDefault("POSTHOG_API_SECRET", cfg.PostHog.APISecret)
	cfg.PostHog.ProjectID = envOrDefault("POSTHOG_PROJECT_ID", cfg.PostHog.ProjectID)
	cfg.PostHog.PublicKey = envOrDefault("POSTHOG_KEY", cfg.PostHog.PublicKey)
	cfg.PostHog.APIHost = envOrDefault("POSTHOG_API_HOST", cfg.PostHog.APIHost)
	cfg.PostHog.IngestHost = envOrDefault("POSTHOG_HOST", cfg.PostHog.IngestHost)

	var err error
	if cfg.HTTPPort, err = envInt("HTTP_PORT", cfg.HTTPPort); err != nil {
		return Config{}, err
	}
	if cfg.GRPCPort, err = envInt("GRPC_PORT", cfg.GRPCPort); err != nil {
		return Config{}, err
	}
	timeoutSeconds, err := envInt("POSTHOG_TIMEOUT_SECONDS", int(cfg.PostHog.Timeout.Seconds()))
	if err != nil {
		return Config{}, err
	}
	cfg.PostHog.Timeout = time.Duration(timeoutSeconds) * time.Second

	if raw := strings.TrimSpace(os.Getenv("API_KEYS")); raw != "" {
		keys, err := parseAPIKeys(raw)
		if err != nil {
			return Config{}, err
		}
		cfg.APIKeys = keys
	}

	// Local dev fallback so the service runs out-of-the-box.
	if len(cfg.APIKeys) == 0 {
		cfg.APIKeys["tenant-key-123"] = "tenant1"
	}

	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.Server.HTTPPort > 0 {
		cfg.HTTPPort = f.Server.HTTPPort
	}
	if f.Server.GRPCPort != nil {
		cfg.GRPCPort = *f.Server.GRPCPort
	}
	if f.Server.LogLevel != "" {
		cfg.LogLevel = f.Server.LogLevel
	}
	cfg.DBURL = f.Database.URL

	cfg.PostHog.APISecret = f.PostHog.APISecret
	cfg.PostHog.ProjectID = f.PostHog.ProjectID
	cfg.PostHog.PublicKey = f.PostHog.PublicKey
	if f.PostHog.APIHost != "" {
		cfg.PostHog.APIHost = f.PostHog.APIHost
	}
	if f.PostHog.IngestHost != "" {
		cfg.PostHog.IngestHost = f.PostHog.IngestHost
	}
	if f.PostHog.TimeoutSeconds > 0 {
		cfg.PostHog.Timeout = time.Duration(f.PostHog.TimeoutSeconds) * time.Second
	}

	for tenant, key := range f.APIKeys {
		tenant = strings.TrimSpace(tenant)
		key = strings.TrimSpace(key)
		if tenant == "" || key == "" {
			return errors.New("api_keys entries need a tenant and a key")
		}
		cfg.APIKeys[key] = tenant
	}
	return nil
}

func parseAPIKeys(raw string) (map[string]string, error) {
	apiKeys := map[string]string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, errAPIKeys
		}
		tenant := strings.TrimSpace(parts[0])
		key := strings.TrimSpace(parts[1])
		if tenant == "" || key == "" {
			return nil, errAPIKeys
		}
		apiKeys[key] = tenant
	}
	return apiKeys, nil
}

func envOrDefault(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}
