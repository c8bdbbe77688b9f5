package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete desk configuration
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Market  MarketConfig  `json:"market" yaml:"market"`
	Account AccountConfig `json:"account" yaml:"account"`
	Store   StoreConfig   `json:"store" yaml:"store"`
}

// ServerConfig contains the HTTP/WebSocket listener parameters
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// MarketConfig contains the simulated market parameters
type MarketConfig struct {
	Instruments  []InstrumentConfig `json:"instruments" yaml:"instruments"`
	TickInterval string             `json:"tick_interval" yaml:"tick_interval"` // e.g. "1s", "250ms"
	HistoryLimit int                `json:"history_limit" yaml:"history_limit"`
	PriceFloor   float64            `json:"price_floor" yaml:"price_floor"`
	Seed         int64              `json:"seed,omitempty" yaml:"seed,omitempty"` // 0 = seed from clock
}

// InstrumentConfig seeds one tracked instrument
type InstrumentConfig struct {
	Symbol string  `json:"symbol" yaml:"symbol"`
	Price  float64 `json:"price" yaml:"price"`
}

// ParseTickInterval converts the tick interval string to a time.Duration
func (m MarketConfig) ParseTickInterval() (time.Duration, error) {
	if m.TickInterval == "" {
		return time.Second, nil
	}
	return time.ParseDuration(m.TickInterval)
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Funding float64 `json:"funding" yaml:"funding"`
}

// StoreConfig contains ledger persistence parameters
type StoreConfig struct {
	Type   string `json:"type" yaml:"type"` // "sqlite" or "memory"
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if len(c.Market.Instruments) == 0 {
		return fmt.Errorf("market.instruments must not be empty")
	}
	seen := map[string]bool{}
	for _, inst := range c.Market.Instruments {
		if inst.Symbol == "" {
			return fmt.Errorf("market instrument symbol is required")
		}
		if seen[inst.Symbol] {
			return fmt.Errorf("duplicate instrument: %s", inst.Symbol)
		}
		seen[inst.Symbol] = true
		if inst.Price <= 0 {
			return fmt.Errorf("instrument %s price must be positive", inst.Symbol)
		}
	}
	if d, err := c.Market.ParseTickInterval(); err != nil || d <= 0 {
		return fmt.Errorf("market.tick_interval must be a positive duration")
	}
	if c.Market.HistoryLimit <= 0 {
		return fmt.Errorf("market.history_limit must be positive")
	}
	if c.Market.PriceFloor <= 0 {
		return fmt.Errorf("market.price_floor must be positive")
	}
	if c.Account.Funding <= 0 {
		return fmt.Errorf("account.funding must be positive")
	}
	if c.Store.Type != "sqlite" && c.Store.Type != "memory" {
		return fmt.Errorf("store.type must be 'sqlite' or 'memory'")
	}
	if c.Store.Type == "sqlite" && c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path required for sqlite type")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Market: MarketConfig{
			Instruments: []InstrumentConfig{
				{Symbol: "ACME", Price: 150.00},
				{Symbol: "BOLT", Price: 320.00},
				{Symbol: "CRUX", Price: 85.00},
				{Symbol: "DYNE", Price: 210.00},
				{Symbol: "EXIO", Price: 42.00},
			},
			TickInterval: "1s",
			HistoryLimit: 120,
			PriceFloor:   0.01,
		},
		Account: AccountConfig{
			Funding: 100000.00,
		},
		Store: StoreConfig{
			Type:   "sqlite",
			DBPath: "./paperdesk.db",
		},
	}
}
