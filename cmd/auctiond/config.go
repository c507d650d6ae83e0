// config.go - Configuration management for the auction daemon
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the daemon configuration
type Config struct {
	// Server
	ListenAddr    string `json:"listen_addr"`
	EscrowAccount string `json:"escrow_account"`

	// File paths
	EventLogPath string `json:"event_log_path"`
	KeyDir       string `json:"key_dir"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Rate limiting (per-bidder submissions)
	SubmitBurst        int `json:"submit_burst"`
	SubmitRefillPerSec int `json:"submit_refill_per_sec"`

	// Demo scenario
	RunDemo        bool   `json:"run_demo"`
	NumBidders     int    `json:"num_bidders"`
	MinPrice       int64  `json:"min_price"`
	BaseDeposit    int64  `json:"base_deposit"`
	BidDuration    uint64 `json:"bid_duration"`
	RevealDuration uint64 `json:"reveal_duration"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:         ":8480",
		EscrowAccount:      "escrow",
		EventLogPath:       "events.db",
		KeyDir:             "keys",
		LogLevel:           "info",
		LogFile:            "",
		SubmitBurst:        5,
		SubmitRefillPerSec: 1,
		RunDemo:            true,
		NumBidders:         5,
		MinPrice:           100,
		BaseDeposit:        150,
		BidDuration:        100,
		RevealDuration:     50,
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return &config, nil
	}

	// Create default config and save it
	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must be set")
	}
	if c.EscrowAccount == "" {
		return fmt.Errorf("escrow_account must be set")
	}
	if c.EventLogPath == "" {
		return fmt.Errorf("event_log_path must be set")
	}
	if c.SubmitBurst <= 0 {
		return fmt.Errorf("submit_burst must be positive")
	}
	if c.SubmitRefillPerSec <= 0 {
		return fmt.Errorf("submit_refill_per_sec must be positive")
	}
	if c.RunDemo {
		if c.NumBidders <= 0 {
			return fmt.Errorf("num_bidders must be positive")
		}
		if c.MinPrice <= 0 {
			return fmt.Errorf("min_price must be positive")
		}
		if c.BaseDeposit < c.MinPrice {
			return fmt.Errorf("base_deposit must cover min_price")
		}
		if c.BidDuration == 0 || c.RevealDuration == 0 {
			return fmt.Errorf("auction durations must be positive")
		}
	}
	return nil
}
