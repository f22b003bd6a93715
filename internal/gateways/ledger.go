package gateways

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"gopkg.in/yaml.v3"

	"github.com/factorchain/compliance-node/internal/config"
	"github.com/factorchain/compliance-node/internal/core/ports"
	"github.com/factorchain/compliance-node/internal/log"
)

// verificationRegistryABI is the read surface of the protocol's verification
// registry contract. Roles follow the AccessControl convention: a role is the
// keccak-256 hash of its name.
const verificationRegistryABI = `[
	{"name":"hasRole","type":"function","stateMutability":"view",
		"inputs":[{"name":"role","type":"bytes32"},{"name":"account","type":"address"}],
		"outputs":[{"type":"bool"}]},
	{"name":"getVerificationRequest","type":"function","stateMutability":"view",
		"inputs":[{"name":"requestId","type":"uint256"}],
		"outputs":[{"name":"status","type":"uint8"},{"name":"exists","type":"bool"}]}
]`

// LedgerGateway is the read-only client of the protocol ledger. This subsystem
// never writes to the chain, the reviewer's wallet does.
type LedgerGateway struct {
	client   *ethclient.Client
	abi      abi.ABI
	contract common.Address
	timeout  time.Duration
}

// LedgerSettings holds optional per network ledger settings loaded from YAML
type LedgerSettings map[string]struct {
	ContractAddress string `yaml:"contractAddress"`
	NetworkURL      string `yaml:"networkURL"`
}

// NewLedgerGateway connects to the ledger RPC node described in cfg. When a
// settings file is configured its first matching entry overrides the flat
// URL/contract pair.
func NewLedgerGateway(ctx context.Context, cfg config.Ledger) (*LedgerGateway, error) {
	rpcURL, contract := cfg.URL, cfg.ContractAddress
	if cfg.SettingsPath != "" {
		settings, err := parseLedgerSettings(cfg.SettingsPath)
		if err != nil {
			log.Warn(ctx, "ledger settings file not usable, falling back to flat config", "path", cfg.SettingsPath, "err", err)
		} else {
			for network, s := range settings {
				log.Info(ctx, "using ledger settings", "network", network)
				rpcURL, contract = s.NetworkURL, s.ContractAddress
				break
			}
		}
	}
	if rpcURL == "" || contract == "" {
		return nil, fmt.Errorf("ledger url and contract address must be configured")
	}
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid ledger contract address %s", contract)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed connect to ledger node %s: %w", rpcURL, err)
	}
	parsed, err := abi.JSON(strings.NewReader(verificationRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("parsing registry abi: %w", err)
	}
	timeout := cfg.ResponseTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &LedgerGateway{
		client:   client,
		abi:      parsed,
		contract: common.HexToAddress(contract),
		timeout:  timeout,
	}, nil
}

// HasRole checks whether account carries the named role on the registry
func (g *LedgerGateway) HasRole(ctx context.Context, role, account string) (bool, error) {
	if !common.IsHexAddress(account) {
		return false, fmt.Errorf("invalid account address %s", account)
	}
	out, err := g.call(ctx, "hasRole", crypto.Keccak256Hash([]byte(role)), common.HexToAddress(account))
	if err != nil {
		return false, err
	}
	has, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected hasRole output %T", out[0])
	}
	return has, nil
}

// RequestStatus mirrors getVerificationRequest for an id already recorded on
// chain
func (g *LedgerGateway) RequestStatus(ctx context.Context, requestID int64) (uint8, bool, error) {
	out, err := g.call(ctx, "getVerificationRequest", new(big.Int).SetInt64(requestID))
	if err != nil {
		return 0, false, err
	}
	status, okStatus := out[0].(uint8)
	exists, okExists := out[1].(bool)
	if !okStatus || !okExists {
		return 0, false, fmt.Errorf("unexpected getVerificationRequest output")
	}
	return status, exists, nil
}

func (g *LedgerGateway) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s call: %w", method, err)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	raw, err := g.client.CallContract(ctx, ethereum.CallMsg{To: &g.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	out, err := g.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s result: %w", method, err)
	}
	return out, nil
}

func parseLedgerSettings(path string) (LedgerSettings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var settings LedgerSettings
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return nil, err
	}
	if len(settings) == 0 {
		return nil, fmt.Errorf("no networks defined in %s", path)
	}
	return settings, nil
}

var _ ports.Ledger = (*LedgerGateway)(nil)
