// Package signer abstracts transaction signing for ledger gateways so key
// material can live outside the SDK (KMS, HSM, remote signer).
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Provider signs transaction digests for a single ledger account.
type Provider interface {
	// Sign signs a 32-byte digest and returns a 65-byte [R || S || V]
	// signature.
	Sign(digest []byte) ([]byte, error)

	// Address returns the lowercase hex address of the signing account.
	Address() string
}

// HexKeyProvider is a Provider backed by an in-process secp256k1 key.
type HexKeyProvider struct {
	priv *ecdsa.PrivateKey
}

// NewHexKeyProvider creates a provider from a hex private key, with or
// without the 0x prefix.
func NewHexKeyProvider(privHex string) (*HexKeyProvider, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(privHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &HexKeyProvider{priv: priv}, nil
}

// Sign signs the digest with the in-process key.
func (p *HexKeyProvider) Sign(digest []byte) ([]byte, error) {
	sig, err := crypto.Sign(digest, p.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("invalid signature length: expected 65 bytes, got %d", len(sig))
	}
	return sig, nil
}

// Address returns the signing account address.
func (p *HexKeyProvider) Address() string {
	return strings.ToLower(crypto.PubkeyToAddress(p.priv.PublicKey).Hex())
}
