package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	// DB
	Env    string `yaml:"env"`     // "dev" | "prod"
	DBPath string `yaml:"db_path"` // e.g. "./data/veilkeep.db"

	// ContractAddress is this registry instance's ledger address.
	// Gateway proofs and decryption authorizations are bound to it.
	ContractAddress string `yaml:"contract_address"`

	// GatewayPublicKey is the hex-encoded Ed25519 verification key of
	// the trusted encryption gateway. Empty in dev generates an
	// ephemeral keypair at startup.
	GatewayPublicKey string `yaml:"gateway_public_key"`

	// BackendURL is the external decryption service. Empty in dev
	// uses the in-process local decryptor.
	BackendURL string `yaml:"backend_url"`

	// EnableRevocation exposes the grant revocation primitive. Off by
	// default: the reference behavior never revokes.
	EnableRevocation bool `yaml:"enable_revocation"`

	// Audit event retention
	AuditRetentionDays int `yaml:"audit_retention_days"` // 0 = keep forever
	PruneIntervalHours int `yaml:"prune_interval_hours"` // how often the pruner runs (default 6)
}

func defaults() Config {
	return Config{
		HTTPAddr:           ":8080",
		Env:                "dev",
		DBPath:             "./data/veilkeep.db",
		AuditRetentionDays: 0,
		PruneIntervalHours: 6,
	}
}

// Load builds the config in three layers: defaults, then an optional
// YAML file named by VEILKEEP_CONFIG, then environment variables.
// Later layers win.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("VEILKEEP_CONFIG")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	return cfg, nil
}

// FromEnv is Load without the file layer, for callers that configure
// purely from the environment.
func FromEnv() Config {
	cfg := defaults()
	applyEnv(&cfg)
	if cfg.Env != "dev" && cfg.Env != "prod" {
		cfg.Env = "dev"
	}
	return cfg
}

func applyFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.HTTPAddr, "VEILKEEP_HTTP_ADDR")
	setLower(&cfg.Env, "VEILKEEP_ENV")
	setString(&cfg.DBPath, "VEILKEEP_DB_PATH")
	setString(&cfg.ContractAddress, "VEILKEEP_CONTRACT_ADDRESS")
	setString(&cfg.GatewayPublicKey, "VEILKEEP_GATEWAY_PUBLIC_KEY")
	setString(&cfg.BackendURL, "VEILKEEP_BACKEND_URL")
	setBool(&cfg.EnableRevocation, "VEILKEEP_ENABLE_REVOCATION")
	setInt(&cfg.AuditRetentionDays, "VEILKEEP_AUDIT_RETENTION_DAYS")
	setInt(&cfg.PruneIntervalHours, "VEILKEEP_PRUNE_INTERVAL_HOURS")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setLower(dst *string, key string) {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(key))); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	*dst = strings.EqualFold(v, "true") || v == "1"
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return
	}
	*dst = n
}
