package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/infrastructure/configloader"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// Bridge talks to a wallet over JSON-RPC using the EIP-1193 method set.
type Bridge struct {
	rpc          *rpc.Client
	backend      *ethclient.Client
	limiter      *rate.Limiter
	pollInterval time.Duration
	logger       port.Logger
}

// NewBridge wraps an established wallet connection.
func NewBridge(rpcClient *rpc.Client, cfg configloader.WalletConfig, log port.Logger) *Bridge {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.BurstLimit
	if burst <= 0 {
		burst = 1
	}
	poll := time.Duration(cfg.PollIntervalMillis) * time.Millisecond
	if poll <= 0 {
		poll = time.Second
	}
	return &Bridge{
		rpc:          rpcClient,
		backend:      ethclient.NewClient(rpcClient),
		limiter:      rate.NewLimiter(limit, burst),
		pollInterval: poll,
		logger:       log,
	}
}

func (b *Bridge) call(ctx context.Context, result any, method string, args ...any) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wallet request %s not sent: %w", method, err)
	}
	b.logger.Debug("Wallet request", "method", method)
	return b.rpc.CallContext(ctx, result, method, args...)
}

// RequestAccounts asks the wallet for account access.
func (b *Bridge) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := b.call(ctx, &accounts, "eth_requestAccounts"); err != nil {
		if entity.IsUserRejected(err) {
			return nil, fmt.Errorf("%w: %w", entity.ErrUserRejected, err)
		}
		return nil, fmt.Errorf("eth_requestAccounts failed: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: wallet returned no accounts", entity.ErrUserRejected)
	}
	return accounts, nil
}

// ChainID returns the wallet's active chain in lower-case hex.
func (b *Bridge) ChainID(ctx context.Context) (string, error) {
	var chainID string
	if err := b.call(ctx, &chainID, "eth_chainId"); err != nil {
		return "", fmt.Errorf("eth_chainId failed: %w", err)
	}
	return strings.ToLower(chainID), nil
}

// SwitchChain sends wallet_switchEthereumChain. The provider error is returned unwrapped
// so the caller can inspect its code.
func (b *Bridge) SwitchChain(ctx context.Context, chainIDHex string) error {
	return b.call(ctx, nil, "wallet_switchEthereumChain", map[string]string{"chainId": chainIDHex})
}

// AddChain sends wallet_addEthereumChain.
func (b *Bridge) AddChain(ctx context.Context, params entity.AddChainParams) error {
	return b.call(ctx, nil, "wallet_addEthereumChain", params)
}

// Signer returns a signer that submits through eth_sendTransaction from account.
func (b *Bridge) Signer(account common.Address) port.Signer {
	return &signer{bridge: b, account: account}
}

// Backend is an ethclient over the wallet connection.
func (b *Bridge) Backend() port.ChainBackend {
	return b.backend
}

// Close drops the wallet connection.
func (b *Bridge) Close() {
	b.rpc.Close()
}

type signer struct {
	bridge  *Bridge
	account common.Address
}

type sendTxArgs struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *hexutil.Big   `json:"value"`
}

func (s *signer) Address() common.Address {
	return s.account
}

// SendTransaction has the wallet sign and broadcast a call to `to`.
func (s *signer) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	var hash common.Hash
	args := sendTxArgs{From: s.account, To: to, Data: data, Value: (*hexutil.Big)(common.Big0)}
	if err := s.bridge.call(ctx, &hash, "eth_sendTransaction", args); err != nil {
		if entity.IsUserRejected(err) {
			return common.Hash{}, fmt.Errorf("%w: %w", entity.ErrUserRejected, err)
		}
		return common.Hash{}, fmt.Errorf("eth_sendTransaction failed: %w", err)
	}
	if hash == (common.Hash{}) {
		return common.Hash{}, errors.New("wallet returned an empty transaction hash")
	}
	return hash, nil
}

var _ port.WalletBridge = (*Bridge)(nil)
