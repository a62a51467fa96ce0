package entsync

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("entsync: bad duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Config is the deployment-level configuration of the layer, consumed by
// erp.Open. Only BaseURL is required.
type Config struct {
	// BaseURL is the root of the remote collection API.
	BaseURL string `yaml:"base_url"`
	// Token is the bearer credential. JWTs are checked for expiry
	// client-side before each call; opaque tokens are attached as-is.
	Token string `yaml:"token"`
	// StorageDir is the durable storage origin for snapshots and the
	// cross-instance broadcast key. Instances sharing it see each other's
	// invalidations. Defaults to ".entsync".
	StorageDir string `yaml:"storage_dir"`
	// RedisAddr switches the storage origin to Redis (multi-host siblings).
	// Empty keeps the file backend.
	RedisAddr string `yaml:"redis_addr"`
	// TTL is the per-store freshness window; zero keeps the 5m default.
	TTL Duration `yaml:"ttl"`
}

func LoadConfig(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("entsync: read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("entsync: parse config: %w", err)
	}
	if cfg.BaseURL == "" {
		return cfg, fmt.Errorf("entsync: config: base_url is required")
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = ".entsync"
	}
	return cfg, nil
}
