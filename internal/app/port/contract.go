package port

import (
	"context"
	"math/big"

	"storage_dapp/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// StorageContract is a contract binding: address, interface descriptor and signer-or-provider.
type StorageContract interface {
	Address() common.Address

	// Get performs the read call.
	Get(ctx context.Context) (*big.Int, error)

	// Submit sends the write and returns the transaction hash without waiting.
	Submit(ctx context.Context, value *big.Int) (common.Hash, error)

	// WaitMined blocks until the transaction has one confirmation or ctx is done.
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// WatchValueChanged delivers every ValueChanged event to sink until the subscription ends.
	WatchValueChanged(ctx context.Context, sink chan<- entity.ValueChange) (event.Subscription, error)

	// CanWrite is false for bindings made with a provider only.
	CanWrite() bool
}

// ContractBinder creates contract bindings. signer may be nil for a read-only binding.
type ContractBinder interface {
	Bind(address common.Address, descriptor *entity.InterfaceDescriptor, backend ChainBackend, signer Signer) (StorageContract, error)
}

// ABILoader always yields a usable interface descriptor.
type ABILoader interface {
	Load(ctx context.Context) *entity.InterfaceDescriptor
}
