package port

import (
	"context"

	"storage_dapp/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// WalletBridge mediates account access, chain switching and signing on behalf of the user.
// Errors coming back from the wallet keep their provider error code (see entity.ProviderErrorCode).
type WalletBridge interface {
	// RequestAccounts asks for account access (eth_requestAccounts). It may prompt the user.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID returns the wallet's active chain id in hex (eth_chainId).
	ChainID(ctx context.Context) (string, error)

	// SwitchChain asks the wallet to change its active chain (wallet_switchEthereumChain).
	SwitchChain(ctx context.Context, chainIDHex string) error

	// AddChain asks the wallet to add and switch to a network (wallet_addEthereumChain).
	AddChain(ctx context.Context, params entity.AddChainParams) error

	// Signer returns a signer for the given account.
	Signer(account common.Address) Signer

	// Backend is the wallet's own provider, used for calls, logs and receipts in connected mode.
	Backend() ChainBackend

	// Notifications streams account and chain changes until ctx is done.
	Notifications(ctx context.Context) (<-chan entity.WalletEvent, error)

	Close()
}

// Signer submits transactions that the wallet signs.
type Signer interface {
	Address() common.Address
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
}

// WalletLocator detects a wallet bridge in the hosting environment.
type WalletLocator interface {
	// Detect returns the bridge and true, or nil and false when no wallet is present.
	Detect(ctx context.Context) (WalletBridge, bool)
}
