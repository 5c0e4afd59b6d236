package wallet

import (
	"context"
	"strings"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/infrastructure/configloader"

	"github.com/ethereum/go-ethereum/rpc"
)

// Locator finds the wallet endpoint named in the config.
type Locator struct {
	cfg    configloader.WalletConfig
	logger port.Logger
	dial   func(ctx context.Context, url string) (*rpc.Client, error)
}

// NewLocator creates a Locator for cfg.URL.
func NewLocator(cfg configloader.WalletConfig, log port.Logger) *Locator {
	return &Locator{cfg: cfg, logger: log, dial: rpc.DialContext}
}

// Detect dials the wallet and checks that it answers eth_chainId.
// No URL, a failed dial, or a silent endpoint all mean no wallet is present.
func (l *Locator) Detect(ctx context.Context) (port.WalletBridge, bool) {
	url := strings.TrimSpace(l.cfg.URL)
	if url == "" {
		l.logger.Info("No wallet endpoint configured")
		return nil, false
	}

	timeout := time.Duration(l.cfg.DialTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rpcClient, err := l.dial(dialCtx, url)
	if err != nil {
		l.logger.Warn("Wallet endpoint not reachable", "url", url, "error", err)
		return nil, false
	}

	bridge := NewBridge(rpcClient, l.cfg, l.logger)
	chainID, err := bridge.ChainID(dialCtx)
	if err != nil {
		l.logger.Warn("Wallet endpoint did not answer eth_chainId", "url", url, "error", err)
		bridge.Close()
		return nil, false
	}

	l.logger.Info("Wallet detected", "url", url, "chainId", chainID)
	return bridge, true
}
