package wallet

import (
	"context"
	"fmt"
	"slices"
	"time"

	"storage_dapp/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
)

// Notifications polls eth_accounts and eth_chainId and emits an event whenever either changes.
// JSON-RPC wallets have no standard push channel for these, so polling stands in for the
// accountsChanged and chainChanged events. The channel closes when ctx is done.
func (b *Bridge) Notifications(ctx context.Context) (<-chan entity.WalletEvent, error) {
	accounts, chainID, err := b.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read initial wallet state: %w", err)
	}

	out := make(chan entity.WalletEvent, 4)
	go func() {
		defer close(out)
		ticker := time.NewTicker(b.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			nextAccounts, nextChainID, err := b.snapshot(ctx)
			if err != nil {
				if ctx.Err() == nil {
					b.logger.Warn("Wallet poll failed", "error", err)
				}
				continue
			}

			var events []entity.WalletEvent
			if !slices.Equal(accounts, nextAccounts) {
				events = append(events, entity.WalletEvent{Type: entity.AccountsChanged, Accounts: nextAccounts, ChainIDHex: nextChainID})
			}
			if chainID != nextChainID {
				events = append(events, entity.WalletEvent{Type: entity.ChainChanged, Accounts: nextAccounts, ChainIDHex: nextChainID})
			}
			accounts, chainID = nextAccounts, nextChainID

			for _, ev := range events {
				b.logger.Info("Wallet change detected", "event", ev.Type.String(), "chainId", ev.ChainIDHex, "accounts", len(ev.Accounts))
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *Bridge) snapshot(ctx context.Context) ([]common.Address, string, error) {
	var accounts []common.Address
	if err := b.call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, "", fmt.Errorf("eth_accounts failed: %w", err)
	}
	chainID, err := b.ChainID(ctx)
	if err != nil {
		return nil, "", err
	}
	return accounts, chainID, nil
}
