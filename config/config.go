// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
)

const (
	defaultLogLevel    = "info"
	defaultMetricsPort = uint16(9090)
	defaultFeePerGas   = "0"
	defaultMaxGasLimit = uint64(10_000_000)
)

var (
	errInvalidAddress = errors.New("invalid address")
	errInvalidChainID = errors.New("invalid chain id")
)

var logLevels = []string{"trace", "debug", "info", "warn", "error", "crit"}

const usageText = `
Usage:
nftgateway --config-file path-to-config            Specifies the config file and starts the gateway.
nftgateway --help                                  Display gateway usage and exit.
nftgateway --version                               Display gateway version and exit.
`

func DisplayUsageText() {
	fmt.Printf("%s\n", usageText)
}

// TokenMapping seeds the registry with one local to remote pair.
type TokenMapping struct {
	Local  string `mapstructure:"local" json:"local"`
	Remote string `mapstructure:"remote" json:"remote"`
}

// Config is the deployment of one gateway together with its in-memory
// messenger pair.
type Config struct {
	LogLevel               string         `mapstructure:"log-level" json:"log-level"`
	MetricsPort            uint16         `mapstructure:"metrics-port" json:"metrics-port"`
	ChainID                string         `mapstructure:"chain-id" json:"chain-id"`
	RemoteChainID          string         `mapstructure:"remote-chain-id" json:"remote-chain-id"`
	GatewayAddress         string         `mapstructure:"gateway-address" json:"gateway-address"`
	OwnerAddress           string         `mapstructure:"owner-address" json:"owner-address"`
	CounterpartAddress     string         `mapstructure:"counterpart-address" json:"counterpart-address"`
	MessengerAddress       string         `mapstructure:"messenger-address" json:"messenger-address"`
	RemoteMessengerAddress string         `mapstructure:"remote-messenger-address" json:"remote-messenger-address"`
	FeePerGas              string         `mapstructure:"fee-per-gas" json:"fee-per-gas"`
	MaxGasLimit            uint64         `mapstructure:"max-gas-limit" json:"max-gas-limit"`
	TokenMappings          []TokenMapping `mapstructure:"token-mappings" json:"token-mappings"`

	// convenience fields populated by Validate
	chainID                ids.ID
	remoteChainID          ids.ID
	gatewayAddress         common.Address
	ownerAddress           common.Address
	counterpartAddress     common.Address
	messengerAddress       common.Address
	remoteMessengerAddress common.Address
	feePerGas              *uint256.Int
	tokenMappings          map[common.Address]common.Address
}

// Validate checks the config and populates the parsed fields. It must be
// called before any of the getters.
func (c *Config) Validate() error {
	if !isLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level %q, expected one of %s", c.LogLevel, strings.Join(logLevels, ", "))
	}
	if c.MetricsPort == 0 {
		return errors.New("metrics port cannot be 0")
	}

	var err error
	if c.chainID, err = parseChainID(ChainIDKey, c.ChainID); err != nil {
		return err
	}
	if c.remoteChainID, err = parseChainID(RemoteChainIDKey, c.RemoteChainID); err != nil {
		return err
	}
	if c.chainID == c.remoteChainID {
		return fmt.Errorf("%w: %s and %s must differ", errInvalidChainID, ChainIDKey, RemoteChainIDKey)
	}

	addresses := []struct {
		key string
		raw string
		dst *common.Address
	}{
		{GatewayAddressKey, c.GatewayAddress, &c.gatewayAddress},
		{OwnerAddressKey, c.OwnerAddress, &c.ownerAddress},
		{CounterpartAddressKey, c.CounterpartAddress, &c.counterpartAddress},
		{MessengerAddressKey, c.MessengerAddress, &c.messengerAddress},
		{RemoteMessengerAddressKey, c.RemoteMessengerAddress, &c.remoteMessengerAddress},
	}
	for _, a := range addresses {
		if *a.dst, err = parseAddress(a.key, a.raw); err != nil {
			return err
		}
	}

	if c.feePerGas, err = uint256.FromDecimal(c.FeePerGas); err != nil {
		return fmt.Errorf("invalid %s %q: %w", FeePerGasKey, c.FeePerGas, err)
	}
	if c.MaxGasLimit == 0 {
		return fmt.Errorf("%s cannot be 0", MaxGasLimitKey)
	}

	c.tokenMappings = make(map[common.Address]common.Address, len(c.TokenMappings))
	for i, m := range c.TokenMappings {
		local, err := parseAddress(fmt.Sprintf("%s[%d].local", TokenMappingsKey, i), m.Local)
		if err != nil {
			return err
		}
		remote, err := parseAddress(fmt.Sprintf("%s[%d].remote", TokenMappingsKey, i), m.Remote)
		if err != nil {
			return err
		}
		if _, ok := c.tokenMappings[local]; ok {
			return fmt.Errorf("duplicate token mapping for %s", local)
		}
		c.tokenMappings[local] = remote
	}
	return nil
}

func (c *Config) GetChainID() ids.ID                        { return c.chainID }
func (c *Config) GetRemoteChainID() ids.ID                  { return c.remoteChainID }
func (c *Config) GetGatewayAddress() common.Address         { return c.gatewayAddress }
func (c *Config) GetOwnerAddress() common.Address           { return c.ownerAddress }
func (c *Config) GetCounterpartAddress() common.Address     { return c.counterpartAddress }
func (c *Config) GetMessengerAddress() common.Address       { return c.messengerAddress }
func (c *Config) GetRemoteMessengerAddress() common.Address { return c.remoteMessengerAddress }

// GetFeePerGas returns a copy of the configured fee per unit of gas
func (c *Config) GetFeePerGas() *uint256.Int {
	if c.feePerGas == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(c.feePerGas)
}

// GetTokenMappings returns the parsed registry seed
func (c *Config) GetTokenMappings() map[common.Address]common.Address {
	out := make(map[common.Address]common.Address, len(c.tokenMappings))
	for local, remote := range c.tokenMappings {
		out[local] = remote
	}
	return out
}

func isLogLevel(level string) bool {
	for _, l := range logLevels {
		if l == level {
			return true
		}
	}
	return false
}

func parseChainID(key, raw string) (ids.ID, error) {
	id, err := ids.FromString(raw)
	if err != nil {
		return ids.Empty, fmt.Errorf("%w: %s %q: %w", errInvalidChainID, key, raw, err)
	}
	if id == ids.Empty {
		return ids.Empty, fmt.Errorf("%w: %s cannot be empty", errInvalidChainID, key)
	}
	return id, nil
}

func parseAddress(key, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %s %q", errInvalidAddress, key, raw)
	}
	addr := common.HexToAddress(raw)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: %s cannot be the zero address", errInvalidAddress, key)
	}
	return addr, nil
}
