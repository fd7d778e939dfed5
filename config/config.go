package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	NetworkName   string `toml:"NetworkName"`
	Env           string `toml:"Env"`

	ProtocolFeeAddress string `toml:"ProtocolFeeAddress"`
	ProtocolFeePercent uint32 `toml:"ProtocolFeePercent"`

	EventLogSize      int      `toml:"EventLogSize"`
	LogRequests       bool     `toml:"LogRequests"`
	MetricsEnabled    bool     `toml:"MetricsEnabled"`
	RateLimitPerMin   float64  `toml:"RateLimitPerMin"`
	RateLimitBurst    int      `toml:"RateLimitBurst"`
	CORSAllowedOrigin []string `toml:"CORSAllowedOrigin"`

	Bootstrap BootstrapCampaign `toml:"Bootstrap"`
}

// BootstrapCampaign describes a campaign the daemon deploys at startup. A
// blank Name disables bootstrapping.
type BootstrapCampaign struct {
	Name        string `toml:"Name"`
	Symbol      string `toml:"Symbol"`
	MaxSupply   uint64 `toml:"MaxSupply"`
	Controller  string `toml:"Controller"`
	Sponsee     string `toml:"Sponsee"`
	RulesURI    string `toml:"RulesURI"`
	NativePrice string `toml:"NativePrice"`
}

// Enabled reports whether a bootstrap campaign is configured.
func (b BootstrapCampaign) Enabled() bool {
	return strings.TrimSpace(b.Name) != ""
}

// Load reads the configuration at path, creating and persisting a default one
// when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8555"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./dsponsor-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "dsponsor-local"
	}
	if cfg.EventLogSize <= 0 {
		cfg.EventLogSize = 1024
	}
	if cfg.CORSAllowedOrigin == nil {
		cfg.CORSAllowedOrigin = []string{}
	}
}

// Validate checks the fee settings; the fee address must be a hex address
// when a non-zero fee is configured.
func (cfg *Config) Validate() error {
	if cfg.ProtocolFeePercent > 100 {
		return fmt.Errorf("config: ProtocolFeePercent %d exceeds 100", cfg.ProtocolFeePercent)
	}
	addr := strings.TrimSpace(cfg.ProtocolFeeAddress)
	if addr == "" {
		if cfg.ProtocolFeePercent > 0 {
			return fmt.Errorf("config: ProtocolFeePercent set without ProtocolFeeAddress")
		}
		return cfg.Bootstrap.validate()
	}
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("config: invalid ProtocolFeeAddress %q", cfg.ProtocolFeeAddress)
	}
	return cfg.Bootstrap.validate()
}

func (b BootstrapCampaign) validate() error {
	if !b.Enabled() {
		return nil
	}
	if b.MaxSupply == 0 {
		return fmt.Errorf("config: Bootstrap.MaxSupply must be positive")
	}
	for field, value := range map[string]string{
		"Bootstrap.Controller": b.Controller,
		"Bootstrap.Sponsee":    b.Sponsee,
	} {
		if !common.IsHexAddress(strings.TrimSpace(value)) {
			return fmt.Errorf("config: %s must be a hex address", field)
		}
	}
	if price := strings.TrimSpace(b.NativePrice); price != "" {
		if _, ok := new(big.Int).SetString(price, 10); !ok {
			return fmt.Errorf("config: invalid Bootstrap.NativePrice %q", b.NativePrice)
		}
	}
	return nil
}

// FeeAddress returns the parsed protocol fee recipient, zero when unset.
func (cfg *Config) FeeAddress() common.Address {
	addr := strings.TrimSpace(cfg.ProtocolFeeAddress)
	if !common.IsHexAddress(addr) {
		return common.Address{}
	}
	return common.HexToAddress(addr)
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:     ":8555",
		DataDir:           "./dsponsor-data",
		NetworkName:       "dsponsor-local",
		Env:               "dev",
		EventLogSize:      1024,
		LogRequests:       true,
		MetricsEnabled:    true,
		RateLimitPerMin:   600,
		RateLimitBurst:    30,
		CORSAllowedOrigin: []string{},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
