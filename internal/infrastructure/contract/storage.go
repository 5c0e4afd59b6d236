package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	methodGet        = "get"
	methodSet        = "set"
	eventValueChange = "ValueChanged"
)

var errReadOnly = errors.New("contract is bound read-only")

// Binder creates storage contract bindings.
type Binder struct {
	logger       port.Logger
	callTimeout  time.Duration
	pollInterval time.Duration
}

// NewBinder creates a Binder. pollInterval drives the event poller used when the backend
// cannot push logs.
func NewBinder(log port.Logger, callTimeout, pollInterval time.Duration) *Binder {
	return &Binder{logger: log, callTimeout: callTimeout, pollInterval: pollInterval}
}

// Bind checks the descriptor against what the client needs and binds it to backend.
// A nil signer yields a read-only binding.
func (b *Binder) Bind(address common.Address, descriptor *entity.InterfaceDescriptor, backend port.ChainBackend, signer port.Signer) (port.StorageContract, error) {
	if descriptor == nil {
		return nil, errors.New("no interface descriptor")
	}
	if _, ok := descriptor.Parsed.Methods[methodGet]; !ok {
		return nil, fmt.Errorf("ABI (%s) has no %s method", descriptor.Source, methodGet)
	}
	if _, ok := descriptor.Parsed.Methods[methodSet]; !ok && signer != nil {
		return nil, fmt.Errorf("ABI (%s) has no %s method", descriptor.Source, methodSet)
	}

	return &StorageContract{
		address:      address,
		abi:          descriptor.Parsed,
		bound:        bind.NewBoundContract(address, descriptor.Parsed, backend, backend, backend),
		backend:      backend,
		signer:       signer,
		callTimeout:  b.callTimeout,
		pollInterval: b.pollInterval,
		logger:       b.logger,
	}, nil
}

// StorageContract is an immutable binding of the storage contract.
type StorageContract struct {
	address      common.Address
	abi          abi.ABI
	bound        *bind.BoundContract
	backend      port.ChainBackend
	signer       port.Signer
	callTimeout  time.Duration
	pollInterval time.Duration
	logger       port.Logger
}

// Address returns the contract address.
func (c *StorageContract) Address() common.Address {
	return c.address
}

// CanWrite reports whether a signer is attached.
func (c *StorageContract) CanWrite() bool {
	return c.signer != nil
}

// Get calls get().
func (c *StorageContract) Get(ctx context.Context) (*big.Int, error) {
	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	var out []interface{}
	if err := c.bound.Call(&bind.CallOpts{Context: ctx}, &out, methodGet); err != nil {
		return nil, fmt.Errorf("%w: %s(): %w", entity.ErrContractCall, methodGet, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s() returned no data", entity.ErrContractCall, methodGet)
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s() returned %T, want uint256", entity.ErrContractCall, methodGet, out[0])
	}
	return value, nil
}

// Submit packs set(value) and hands it to the wallet for signing.
func (c *StorageContract) Submit(ctx context.Context, value *big.Int) (common.Hash, error) {
	if c.signer == nil {
		return common.Hash{}, fmt.Errorf("%w: %w", entity.ErrNotConnected, errReadOnly)
	}
	data, err := c.abi.Pack(methodSet, value)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: failed to pack %s: %w", entity.ErrContractCall, methodSet, err)
	}
	hash, err := c.signer.SendTransaction(ctx, c.address, data)
	if err != nil {
		if errors.Is(err, entity.ErrUserRejected) {
			return common.Hash{}, err
		}
		return common.Hash{}, fmt.Errorf("%w: %s(%s): %w", entity.ErrContractCall, methodSet, value, err)
	}
	c.logger.Info("Transaction submitted", "hash", hash.Hex(), "from", c.signer.Address().Hex(), "value", value.String())
	return hash, nil
}

// WaitMined blocks until the receipt is available. A failed receipt is returned along with an error.
func (c *StorageContract) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := bind.WaitMinedHash(ctx, c.backend, txHash)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for %s: %w", entity.ErrContractCall, txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: transaction %s reverted in block %s", entity.ErrContractCall, txHash.Hex(), receipt.BlockNumber)
	}
	return receipt, nil
}

var _ port.StorageContract = (*StorageContract)(nil)
