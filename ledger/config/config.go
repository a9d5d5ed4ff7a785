// Package config resolves chain settings for the EVM ledger gateway from
// environment variables with sensible defaults.
package config

import (
	"os"
	"strconv"
)

// Default values
const (
	DefaultRPC             = "https://rpc.scrollchain.scrolluniversity.org"
	DefaultChainID         = 7311
	DefaultRegistryAddress = "0x0000000000000000000000000000000000077311"
)

// Environment variable names
const (
	EnvRPC             = "BADGE_RPC_URL"
	EnvChainID         = "BADGE_CHAIN_ID"
	EnvRegistryAddress = "BADGE_REGISTRY_ADDRESS"
)

// RPC returns the RPC URL from the environment or the default value.
func RPC() string {
	if rpc := os.Getenv(EnvRPC); rpc != "" {
		return rpc
	}
	return DefaultRPC
}

// ChainID returns the chain ID from the environment or the default value.
func ChainID() int64 {
	if raw := os.Getenv(EnvChainID); raw != "" {
		if chainID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return chainID
		}
	}
	return DefaultChainID
}

// RegistryAddress returns the badge registry contract address from the
// environment or the default value.
func RegistryAddress() string {
	if addr := os.Getenv(EnvRegistryAddress); addr != "" {
		return addr
	}
	return DefaultRegistryAddress
}
