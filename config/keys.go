// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable keys
	ConfigFileEnvKey = "CONFIG_FILE"

	// Top-level configuration keys
	LogLevelKey               = "log-level"
	MetricsPortKey            = "metrics-port"
	ChainIDKey                = "chain-id"
	RemoteChainIDKey          = "remote-chain-id"
	GatewayAddressKey         = "gateway-address"
	OwnerAddressKey           = "owner-address"
	CounterpartAddressKey     = "counterpart-address"
	MessengerAddressKey       = "messenger-address"
	RemoteMessengerAddressKey = "remote-messenger-address"
	FeePerGasKey              = "fee-per-gas"
	MaxGasLimitKey            = "max-gas-limit"
	TokenMappingsKey          = "token-mappings"
)
