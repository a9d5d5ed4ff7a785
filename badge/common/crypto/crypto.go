// Package crypto verifies attestor signatures over completion proofs using
// secp256k1.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignAttestation signs the completion proof hash with the attestor's
// private key and returns the hex signature. Used by record-of-truth
// systems producing proofs; exposed here so tests and tooling can generate
// valid attestations.
func SignAttestation(privateKey []byte, proofHash string) (string, error) {
	if len(privateKey) != 32 {
		return "", errors.New("private key must be 32 bytes")
	}

	priv, err := crypto.ToECDSA(privateKey)
	if err != nil {
		return "", err
	}

	digest := sha256.Sum256([]byte(proofHash))
	sig, err := crypto.Sign(digest[:], priv)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// VerifyAttestation checks a hex attestor signature over a completion proof
// hash against a compressed secp256k1 public key.
// The signature is 65 bytes (64 bytes + 1 recovery byte).
func VerifyAttestation(publicKey []byte, proofHash, signatureHex string) bool {
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != 65 || len(publicKey) != 33 || proofHash == "" {
		return false
	}

	digest := sha256.Sum256([]byte(proofHash))

	recovered, err := crypto.Ecrecover(digest[:], sig)
	if err != nil {
		return false
	}

	// Compress the recovered key for comparison with the attestor key.
	pub, err := secp256k1.ParsePubKey(recovered)
	if err != nil {
		return false
	}
	return string(pub.SerializeCompressed()) == string(publicKey)
}

// CompressPublicKey converts a 65-byte uncompressed secp256k1 public key to
// its 33-byte compressed form.
func CompressPublicKey(uncompressed []byte) ([]byte, error) {
	pub, err := secp256k1.ParsePubKey(uncompressed)
	if err != nil {
		return nil, err
	}
	return pub.SerializeCompressed(), nil
}
