package port

import (
	"context"
	"math/big"

	"storage_dapp/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

// ChainBackend is everything a contract binding needs from a node: calls, logs and receipts.
// *ethclient.Client satisfies it.
type ChainBackend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// BlockchainClient is a read-only connection to a public RPC endpoint of a network.
type BlockchainClient interface {
	ChainBackend

	// ProbeChainID asks the node for its chain id (hex) and head block in one batch.
	ProbeChainID(ctx context.Context) (chainIDHex string, head uint64, err error)

	// Definition returns the network definition associated with this client.
	Definition() entity.NetworkDefinition
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	// Target returns the single network this process operates against.
	Target() entity.NetworkDefinition

	// GetAllNetworkDefinitions returns all known network definitions.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinitionByName returns a specific network definition by its identifier.
	GetNetworkDefinitionByName(nameOrIdentifier string) (entity.NetworkDefinition, bool)

	// GetNetworkDefinitionByChainID returns a specific network definition by its chain id.
	GetNetworkDefinitionByChainID(chainID uint64) (entity.NetworkDefinition, bool)
}

// BlockchainClientProvider hands out (cached) read-only clients per network.
type BlockchainClientProvider interface {
	GetClient(networkDefinition entity.NetworkDefinition) (BlockchainClient, error)
}
