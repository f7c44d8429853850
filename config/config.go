package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// ConnectorConfig declares one swap venue to register at startup. Kind picks
// the adapter implementation; Enabled controls whether the venue starts
// serviceable.
type ConnectorConfig struct {
	Name    string `toml:"Name"`
	Kind    string `toml:"Kind"`
	Address string `toml:"Address"`
	Enabled bool   `toml:"Enabled"`
}

// PoolConfig seeds one liquidity pool in the embedded venue simulator.
// Reserves are decimal strings in smallest units.
type PoolConfig struct {
	TokenA   string `toml:"TokenA"`
	TokenB   string `toml:"TokenB"`
	ReserveA string `toml:"ReserveA"`
	ReserveB string `toml:"ReserveB"`
}

// SeedConfig pre-funds one custody account at startup, primarily for local
// development environments.
type SeedConfig struct {
	Account string `toml:"Account"`
	Asset   string `toml:"Asset"`
	Amount  string `toml:"Amount"`
}

type Config struct {
	ListenAddress  string            `toml:"ListenAddress"`
	DataDir        string            `toml:"DataDir"`
	LogFile        string            `toml:"LogFile"`
	Environment    string            `toml:"Environment"`
	AdminAddress   string            `toml:"AdminAddress"`
	FactoryAddress string            `toml:"FactoryAddress"`
	WETHAddress    string            `toml:"WETHAddress"`
	Connectors     []ConnectorConfig `toml:"Connectors"`
	Pools          []PoolConfig      `toml:"Pools"`
	Seeds          []SeedConfig      `toml:"Seeds"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks address fields and fills defaults for omitted ones.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./mosaica-data"
	}
	if _, err := parseAddress("AdminAddress", cfg.AdminAddress, true); err != nil {
		return err
	}
	if _, err := parseAddress("FactoryAddress", cfg.FactoryAddress, false); err != nil {
		return err
	}
	if _, err := parseAddress("WETHAddress", cfg.WETHAddress, false); err != nil {
		return err
	}
	seen := make(map[common.Address]struct{}, len(cfg.Connectors))
	for i, conn := range cfg.Connectors {
		addr, err := parseAddress(fmt.Sprintf("Connectors[%d].Address", i), conn.Address, true)
		if err != nil {
			return err
		}
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("config: duplicate connector address %s", conn.Address)
		}
		seen[addr] = struct{}{}
		switch strings.ToLower(strings.TrimSpace(conn.Kind)) {
		case "uniswapv2", "kyber":
		default:
			return fmt.Errorf("config: connector %q has unknown kind %q", conn.Name, conn.Kind)
		}
	}
	return nil
}

// Admin returns the parsed administrator address.
func (cfg *Config) Admin() common.Address {
	return common.HexToAddress(cfg.AdminAddress)
}

// Factory returns the parsed factory custody address, or a derived default
// when the field is empty.
func (cfg *Config) Factory() common.Address {
	if strings.TrimSpace(cfg.FactoryAddress) == "" {
		return common.HexToAddress("0x000000000000000000000000000000000000Fac7")
	}
	return common.HexToAddress(cfg.FactoryAddress)
}

// WETH returns the parsed wrapped-native token address.
func (cfg *Config) WETH() common.Address {
	return common.HexToAddress(cfg.WETHAddress)
}

func parseAddress(field, value string, required bool) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if required {
			return common.Address{}, fmt.Errorf("config: %s is required", field)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("config: %s is not a hex address: %q", field, value)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) && required {
		return common.Address{}, fmt.Errorf("config: %s must not be the zero address", field)
	}
	return addr, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:  ":8080",
		DataDir:        "./mosaica-data",
		LogFile:        "",
		Environment:    "local",
		AdminAddress:   "0x00000000000000000000000000000000000Ad317",
		FactoryAddress: "0x000000000000000000000000000000000000Fac7",
		WETHAddress:    "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		Connectors:     []ConnectorConfig{},
		Pools:          []PoolConfig{},
		Seeds:          []SeedConfig{},
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
