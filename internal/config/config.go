package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	NATS         NATSConfig         `yaml:"nats"`
	Log          LogConfig          `yaml:"log"`
	Distribution DistributionConfig `yaml:"distribution"`
	Domain       DomainConfig       `yaml:"domain"`
	Admin        AdminConfig        `yaml:"admin"`
	CORS         CORSConfig         `yaml:"cors"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig NATS message bus configuration. An empty URL disables event
// publication.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`        // seconds
	SubjectPrefix string `yaml:"subject_prefix"` // default "airdrop.claims"
}

// LogConfig logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DistributionConfig fixes the proof-based claim module's parameters. Root
// is set once at deployment and never changes; altering it would break
// every outstanding proof.
type DistributionConfig struct {
	Root          string `yaml:"root"` // 0x-prefixed 32-byte hex
	MaxProofDepth int    `yaml:"maxProofDepth"`
	VaultAccount  string `yaml:"vaultAccount"`
}

// DomainConfig identifies this deployment for voucher signing. Changing
// any field invalidates all previously issued vouchers.
type DomainConfig struct {
	Name              string `yaml:"name"`
	Version           string `yaml:"version"`
	ChainID           uint64 `yaml:"chainId"`
	VerifyingContract string `yaml:"verifyingContract"`
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	AllowedIPs []string `yaml:"allowedIPs"`
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
	MaxAge         int      `yaml:"maxAge"`
}

// AppConfig Global configuration instance
var AppConfig *Config

// LoadConfig loads configuration from a yaml file, applies environment
// variable overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		NATS:   NATSConfig{Timeout: 5, SubjectPrefix: "airdrop.claims"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Distribution: DistributionConfig{
			MaxProofDepth: 32,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = cfg
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
// Priority: Environment Variable > YAML Config > Default
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		cfg.NATS.URL = natsURL
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if root := os.Getenv("DISTRIBUTION_ROOT"); root != "" {
		cfg.Distribution.Root = root
	}
	if depth := os.Getenv("DISTRIBUTION_MAX_PROOF_DEPTH"); depth != "" {
		if d, err := strconv.Atoi(depth); err == nil {
			cfg.Distribution.MaxProofDepth = d
		}
	}
	if vault := os.Getenv("DISTRIBUTION_VAULT_ACCOUNT"); vault != "" {
		cfg.Distribution.VaultAccount = vault
	}
	if chainID := os.Getenv("DOMAIN_CHAIN_ID"); chainID != "" {
		if id, err := strconv.ParseUint(chainID, 10, 64); err == nil {
			cfg.Domain.ChainID = id
		}
	}
	if contract := os.Getenv("DOMAIN_VERIFYING_CONTRACT"); contract != "" {
		cfg.Domain.VerifyingContract = contract
	}
}

// Validate checks the configuration for deployment mistakes that would
// otherwise surface as universally failing claims.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	root := common.FromHex(c.Distribution.Root)
	if len(root) != 32 {
		return fmt.Errorf("distribution.root must be a 32-byte hex digest, got %q", c.Distribution.Root)
	}
	if c.Distribution.MaxProofDepth <= 0 || c.Distribution.MaxProofDepth > 64 {
		return fmt.Errorf("distribution.maxProofDepth must be in (0, 64], got %d", c.Distribution.MaxProofDepth)
	}
	if !common.IsHexAddress(c.Distribution.VaultAccount) {
		return fmt.Errorf("distribution.vaultAccount must be a well-formed address, got %q", c.Distribution.VaultAccount)
	}
	if c.Domain.Name == "" || c.Domain.Version == "" {
		return fmt.Errorf("domain.name and domain.version are required")
	}
	if c.Domain.ChainID == 0 {
		return fmt.Errorf("domain.chainId is required")
	}
	if !common.IsHexAddress(c.Domain.VerifyingContract) {
		return fmt.Errorf("domain.verifyingContract must be a well-formed address, got %q", c.Domain.VerifyingContract)
	}
	return nil
}

// RootHash returns the validated commitment root.
func (c *Config) RootHash() common.Hash {
	return common.HexToHash(c.Distribution.Root)
}

// VaultAddress returns the validated vault custody account.
func (c *Config) VaultAddress() common.Address {
	return common.HexToAddress(c.Distribution.VaultAccount)
}
