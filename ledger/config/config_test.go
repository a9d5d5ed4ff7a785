package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, DefaultRPC, RPC())
	assert.Equal(t, int64(DefaultChainID), ChainID())
	assert.Equal(t, DefaultRegistryAddress, RegistryAddress())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvRPC, "http://localhost:8545")
	t.Setenv(EnvChainID, "1337")
	t.Setenv(EnvRegistryAddress, "0x00000000000000000000000000000000000000aa")

	assert.Equal(t, "http://localhost:8545", RPC())
	assert.Equal(t, int64(1337), ChainID())
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", RegistryAddress())
}

func TestInvalidChainIDFallsBack(t *testing.T) {
	t.Setenv(EnvChainID, "not-a-number")
	assert.Equal(t, int64(DefaultChainID), ChainID())
}
