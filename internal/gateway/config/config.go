package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration. Provider credentials are not part of
// it: provider clients read them from the environment on first use.
type Config struct {
	Port           string         `yaml:"port"`
	Env            string         `yaml:"env"`
	LogLevel       string         `yaml:"log_level"`
	RequestTimeout time.Duration  `yaml:"request_timeout"`
	TraceDir       string         `yaml:"trace_dir"`
	LLM            LLMConfig      `yaml:"llm"`
	Store          StoreConfig    `yaml:"store"`
	Artifact       ArtifactConfig `yaml:"artifact"`
}

// LLMConfig selects the provider family per stage. Intent extraction and
// code synthesis use separate clients even when they name the same family.
type LLMConfig struct {
	IntentProvider string  `yaml:"intent_provider"`
	IntentModel    string  `yaml:"intent_model"`
	CodeProvider   string  `yaml:"code_provider"`
	CodeModel      string  `yaml:"code_model"`
	RPS            float64 `yaml:"rps"`
	Burst          int     `yaml:"burst"`
}

// StoreConfig picks the project store backend. DatabaseURL wins over
// SQLitePath; with neither set projects live in memory.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
	CacheSize   int    `yaml:"cache_size"`
}

type ArtifactConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// CanUseS3 reports whether every setting the S3 artifact store needs is present.
func (a ArtifactConfig) CanUseS3() bool {
	return a.Enabled &&
		strings.TrimSpace(a.Endpoint) != "" &&
		strings.TrimSpace(a.AccessKey) != "" &&
		strings.TrimSpace(a.SecretKey) != "" &&
		strings.TrimSpace(a.Bucket) != ""
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Port:           ":8081",
		Env:            "local",
		LogLevel:       "info",
		RequestTimeout: 3 * time.Minute,
		TraceDir:       "tmp/run-logs",
		LLM: LLMConfig{
			IntentProvider: "anthropic",
			CodeProvider:   "openai",
		},
		Store: StoreConfig{CacheSize: 256},
		Artifact: ArtifactConfig{
			Region: "us-east-1",
			Bucket: "sitegen-artifacts",
		},
	}
}

// Load layers .env, the optional YAML file at path, then environment
// variables over Default. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Port = normalizePort(cfg.Port)
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Env, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.TraceDir, "SITEGEN_TRACE_DIR")
	setString(&c.LLM.IntentProvider, "SITEGEN_INTENT_PROVIDER")
	setString(&c.LLM.IntentModel, "SITEGEN_INTENT_MODEL")
	setString(&c.LLM.CodeProvider, "SITEGEN_CODE_PROVIDER")
	setString(&c.LLM.CodeModel, "SITEGEN_CODE_MODEL")
	setString(&c.Store.DatabaseURL, "DATABASE_URL")
	setString(&c.Store.SQLitePath, "SQLITE_PATH")

	if raw := env("SITEGEN_REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("SITEGEN_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if raw := env("LLM_RPS"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("LLM_RPS: %w", err)
		}
		c.LLM.RPS = v
	}
	if raw := env("LLM_BURST"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("LLM_BURST: %w", err)
		}
		c.LLM.Burst = v
	}

	c.applyArtifactEnv()
	return nil
}

func (c *Config) applyArtifactEnv() {
	a := &c.Artifact
	if strings.EqualFold(c.Env, "local") {
		if ep := env("ARTIFACT_MINIO_ENDPOINT"); ep != "" {
			a.Endpoint = ep
		}
	}
	setString(&a.Endpoint, "ARTIFACT_S3_ENDPOINT")
	setString(&a.Region, "ARTIFACT_S3_REGION")
	a.AccessKey = firstNonEmpty(env("ARTIFACT_S3_ACCESS_KEY"), a.AccessKey, env("MINIO_ROOT_USER"))
	a.SecretKey = firstNonEmpty(env("ARTIFACT_S3_SECRET_KEY"), a.SecretKey, env("MINIO_ROOT_PASSWORD"))
	setString(&a.Bucket, "ARTIFACT_S3_BUCKET")
	if raw := env("ARTIFACT_S3_USE_SSL"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			a.UseSSL = v
		}
	}
	if a.Endpoint != "" {
		a.Enabled = true
	}
}

func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8081"
	}
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
