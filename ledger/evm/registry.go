// Package evm implements the ledger gateway against the on-chain badge
// registry contract. Transactions are built locally, signed through an
// injected signer provider, and broadcast over an RPC client.
package evm

import (
	"context"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/scrolluniversity/go-badge-sdk/ledger"
	"github.com/scrolluniversity/go-badge-sdk/ledger/config"
	"github.com/scrolluniversity/go-badge-sdk/ledger/signer"
)

//go:embed badge-contract/badge_registry_abi.json
var registryABIJSON []byte

var (
	parsedABI    abi.ABI
	parseABIOnce sync.Once
	errParseABI  error
)

// loadABI ensures the registry ABI is parsed exactly once.
func loadABI() (abi.ABI, error) {
	parseABIOnce.Do(func() {
		type hardhatArtifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		var artifact hardhatArtifact
		if err := json.Unmarshal(registryABIJSON, &artifact); err != nil {
			errParseABI = fmt.Errorf("failed to unmarshal artifact JSON: %w", err)
			return
		}
		parsedABI, errParseABI = abi.JSON(strings.NewReader(string(artifact.ABI)))
	})
	return parsedABI, errParseABI
}

// Config holds configuration for the badge registry client.
type Config struct {
	RPC             string
	ChainID         int64
	ContractAddress string
	Signer          signer.Provider
	// Optional: defaults to 0 if not set, suitable for gas-free subnets.
	GasPrice *big.Int
	GasLimit uint64
	// Optional: client used to fetch metadata documents from tokenURI.
	HTTPClient *http.Client
}

// Registry is the EVM implementation of ledger.Gateway.
type Registry struct {
	contract     *bind.BoundContract
	client       *ethclient.Client
	chainID      *big.Int
	contractAddr common.Address
	txSigner     signer.Provider
	gasPrice     *big.Int
	gasLimit     uint64
	httpClient   *http.Client
}

// NewRegistry creates a badge registry gateway.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.ContractAddress == "" {
		return nil, errors.New("contract address is required")
	}
	if cfg.RPC == "" {
		return nil, errors.New("RPC URL is required")
	}
	if cfg.Signer == nil {
		return nil, errors.New("signer provider is required")
	}

	contractABI, err := loadABI()
	if err != nil {
		return nil, err
	}

	client, err := ethclient.Dial(cfg.RPC)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}

	addr := common.HexToAddress(cfg.ContractAddress)
	contract := bind.NewBoundContract(addr, contractABI, client, client, client)

	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = 300000
	}
	gasPrice := cfg.GasPrice
	if gasPrice == nil {
		gasPrice = big.NewInt(0)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Registry{
		contract:     contract,
		client:       client,
		chainID:      big.NewInt(cfg.ChainID),
		contractAddr: addr,
		txSigner:     cfg.Signer,
		gasPrice:     gasPrice,
		gasLimit:     gasLimit,
		httpClient:   httpClient,
	}, nil
}

// NewRegistryFromEnv creates a badge registry gateway with the RPC URL,
// chain id and contract address resolved from the BADGE_* environment
// variables. Key material never comes from the environment; the signer must
// be supplied.
func NewRegistryFromEnv(txSigner signer.Provider) (*Registry, error) {
	return NewRegistry(Config{
		RPC:             config.RPC(),
		ChainID:         config.ChainID(),
		ContractAddress: config.RegistryAddress(),
		Signer:          txSigner,
	})
}

// Mint anchors the metadata document on the registry contract. The ledger
// reference is the 0x-prefixed verification hash carried in the document.
func (r *Registry) Mint(ctx context.Context, subjectID, metadataURI string, metadata map[string]interface{}) (string, error) {
	verificationHash, _ := metadata["verificationHash"].(string)
	if verificationHash == "" {
		return "", ledger.NewError("mint", "", errors.New("metadata is missing verificationHash"))
	}
	contentHash, err := hexToBytes32(verificationHash)
	if err != nil {
		return "", ledger.NewError("mint", "", fmt.Errorf("invalid verification hash: %w", err))
	}

	auth, err := r.transactOpts(ctx)
	if err != nil {
		return "", ledger.NewError("mint", "", err)
	}

	// mintBadge(bytes32,string,string)
	tx, err := r.contract.Transact(auth, "mintBadge", contentHash, subjectID, metadataURI)
	if err != nil {
		return "", ledger.NewError("mint", "", fmt.Errorf("failed to build mintBadge tx: %w", err))
	}

	if err := r.client.SendTransaction(ctx, tx); err != nil {
		return "", ledger.NewError("mint", "", fmt.Errorf("failed to broadcast mintBadge tx: %w", err))
	}

	return RefFromHash(verificationHash), nil
}

// VerifyExistence checks the registry for the referenced badge and returns
// the recorded subject binding as the owner.
func (r *Registry) VerifyExistence(ctx context.Context, ref string) (*ledger.ExistenceResult, error) {
	id, err := hexToBytes32(ref)
	if err != nil {
		// A structurally invalid ref cannot exist on the ledger.
		return &ledger.ExistenceResult{Exists: false}, nil
	}

	exists, subjectID, _, err := r.getBadge(ctx, id)
	if err != nil {
		return nil, ledger.NewError("verifyExistence", ref, err)
	}
	return &ledger.ExistenceResult{Exists: exists, Owner: subjectID}, nil
}

// GetMetadata resolves the stored tokenURI for the reference and fetches
// the metadata document from it.
func (r *Registry) GetMetadata(ctx context.Context, ref string) (map[string]interface{}, error) {
	id, err := hexToBytes32(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid ledger ref %q: %w", ref, err)
	}

	exists, _, tokenURI, err := r.getBadge(ctx, id)
	if err != nil {
		return nil, ledger.NewError("getMetadata", ref, err)
	}
	if !exists {
		return nil, fmt.Errorf("badge %s not found on registry", ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenURI, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid tokenURI %q: %w", tokenURI, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, ledger.NewError("getMetadata", ref, fmt.Errorf("failed to fetch metadata document: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ledger.NewError("getMetadata", ref, fmt.Errorf("metadata endpoint returned non-200 status: %s", resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ledger.NewError("getMetadata", ref, fmt.Errorf("failed to read metadata response: %w", err))
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata document: %w", err)
	}
	return doc, nil
}

// getBadge calls the getBadge view function.
// getBadge(bytes32) returns (bool exists, string subjectId, string tokenURI)
func (r *Registry) getBadge(ctx context.Context, id [32]byte) (bool, string, string, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getBadge", id); err != nil {
		return false, "", "", fmt.Errorf("getBadge call failed: %w", err)
	}
	if len(out) != 3 {
		return false, "", "", fmt.Errorf("unexpected getBadge output arity %d", len(out))
	}
	exists, ok := out[0].(bool)
	if !ok {
		return false, "", "", fmt.Errorf("unexpected getBadge exists type %T", out[0])
	}
	subjectID, ok := out[1].(string)
	if !ok {
		return false, "", "", fmt.Errorf("unexpected getBadge subjectId type %T", out[1])
	}
	tokenURI, ok := out[2].(string)
	if !ok {
		return false, "", "", fmt.Errorf("unexpected getBadge tokenURI type %T", out[2])
	}
	return exists, subjectID, tokenURI, nil
}

// transactOpts creates signing options for a registry transaction, fetching
// the pending nonce from the chain.
func (r *Registry) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	fromAddress := common.HexToAddress(r.txSigner.Address())

	nonce, err := r.client.PendingNonceAt(ctx, fromAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending nonce: %w", err)
	}

	signerFn := func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		eip155Signer := types.NewEIP155Signer(r.chainID)
		h := eip155Signer.Hash(tx)
		sig, err := r.txSigner.Sign(h.Bytes())
		if err != nil {
			return nil, err
		}
		return tx.WithSignature(eip155Signer, sig)
	}

	return &bind.TransactOpts{
		From:     fromAddress,
		Nonce:    new(big.Int).SetUint64(nonce),
		Value:    big.NewInt(0),
		GasLimit: r.gasLimit,
		GasPrice: r.gasPrice,
		Context:  ctx,
		Signer:   signerFn,
		NoSend:   true, // broadcast is a separate, explicit step
	}, nil
}

// RefFromHash converts a hex verification hash into its ledger reference
// form.
func RefFromHash(verificationHash string) string {
	return "0x" + strings.TrimPrefix(verificationHash, "0x")
}

// hexToBytes32 decodes a hex string (with or without 0x) into a 32-byte
// array.
func hexToBytes32(s string) ([32]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return [32]byte{}, err
	}
	if len(b) != 32 {
		return [32]byte{}, fmt.Errorf("length must be 32 bytes, got %d", len(b))
	}
	var out [32]byte
	copy(out[:], b)
	return out, nil
}
