package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"storage_dapp/internal/domain/entity"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// WatchValueChanged streams ValueChanged events into sink. It subscribes when the backend
// supports log subscriptions and otherwise polls eth_getLogs from the current head.
func (c *StorageContract) WatchValueChanged(ctx context.Context, sink chan<- entity.ValueChange) (event.Subscription, error) {
	if _, ok := c.abi.Events[eventValueChange]; !ok {
		return nil, entity.ErrEventUnsupported
	}

	logs, sub, err := c.bound.WatchLogs(&bind.WatchOpts{Context: ctx}, eventValueChange)
	if err == nil {
		c.logger.Info("Subscribed to contract events", "event", eventValueChange, "mode", "push")
		return event.NewSubscription(func(quit <-chan struct{}) error {
			defer sub.Unsubscribe()
			for {
				select {
				case lg := <-logs:
					if !c.deliver(lg, sink, quit) {
						return nil
					}
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			}
		}), nil
	}

	c.logger.Info("Log subscription unavailable, polling instead", "event", eventValueChange, "reason", err.Error(), "interval", c.pollInterval.String())
	head, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read head block: %w", entity.ErrContractCall, err)
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		return c.poll(ctx, head+1, sink, quit)
	}), nil
}

func (c *StorageContract) poll(ctx context.Context, from uint64, sink chan<- entity.ValueChange, quit <-chan struct{}) error {
	interval := c.pollInterval
	if interval <= 0 {
		interval = 4 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		head, err := c.backend.BlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to read head block: %w", err)
		}
		if head < from {
			continue
		}

		end := head
		logs, sub, err := c.bound.FilterLogs(&bind.FilterOpts{Start: from, End: &end, Context: ctx}, eventValueChange)
		if err != nil {
			return fmt.Errorf("failed to filter %s logs [%d, %d]: %w", eventValueChange, from, end, err)
		}
		if !c.drain(logs, sub, sink, quit) {
			return nil
		}
		from = end + 1
	}
}

// drain forwards everything FilterLogs produced; false means quit was signalled.
func (c *StorageContract) drain(logs <-chan types.Log, sub event.Subscription, sink chan<- entity.ValueChange, quit <-chan struct{}) bool {
	defer sub.Unsubscribe()
	for {
		select {
		case lg := <-logs:
			if !c.deliver(lg, sink, quit) {
				return false
			}
		case <-sub.Err():
			// FilterLogs closes its subscription once every buffered log was sent.
			for {
				select {
				case lg := <-logs:
					if !c.deliver(lg, sink, quit) {
						return false
					}
				default:
					return true
				}
			}
		case <-quit:
			return false
		}
	}
}

func (c *StorageContract) deliver(lg types.Log, sink chan<- entity.ValueChange, quit <-chan struct{}) bool {
	if lg.Removed {
		return true
	}
	change, err := c.decode(lg)
	if err != nil {
		c.logger.Warn("Skipping undecodable log", "tx", lg.TxHash.Hex(), "error", err)
		return true
	}
	select {
	case sink <- change:
		return true
	case <-quit:
		return false
	}
}

// decode reads the setter and new value by type, so ABIs that name the inputs differently still work.
func (c *StorageContract) decode(lg types.Log) (entity.ValueChange, error) {
	fields := make(map[string]interface{})
	if err := c.bound.UnpackLogIntoMap(fields, eventValueChange, lg); err != nil {
		return entity.ValueChange{}, err
	}

	change := entity.ValueChange{BlockNumber: lg.BlockNumber, TxHash: lg.TxHash}
	for _, in := range c.abi.Events[eventValueChange].Inputs {
		switch in.Type.T {
		case abi.AddressTy:
			if addr, ok := fields[in.Name].(common.Address); ok {
				change.Setter = addr
			}
		case abi.UintTy:
			if v, ok := fields[in.Name].(*big.Int); ok && change.NewValue == nil {
				change.NewValue = v
			}
		}
	}
	if change.NewValue == nil {
		return entity.ValueChange{}, fmt.Errorf("%s log carries no uint value", eventValueChange)
	}
	return change, nil
}
