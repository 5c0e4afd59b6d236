package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	networkdefinition "storage_dapp/internal/infrastructure/network/definition"
	"storage_dapp/internal/pkg/metrics"
	"storage_dapp/internal/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

var (
	errWalletChanged      = errors.New("wallet changed")
	errReconnectRequested = errors.New("reconnect requested")
)

const connectFailedNotice = "Could not connect. Check the logs for details."

type reconnectRequest struct {
	result chan error
}

// ConnectionOrchestrator drives the connection lifecycle: early network label, ABI load,
// read-only or wallet connect, and reconnects after wallet account or chain changes.
type ConnectionOrchestrator struct {
	locator    port.WalletLocator
	networks   port.NetworkDefinitionProvider
	clients    port.BlockchainClientProvider
	abiLoader  port.ABILoader
	binder     port.ContractBinder
	reconciler *NetworkReconciler
	updater    *LiveUpdater
	view       port.View
	logger     port.Logger
	address    common.Address

	session   atomic.Pointer[Session]
	connectMu sync.Mutex
	running   atomic.Bool
	reconnect chan reconnectRequest
}

// NewConnectionOrchestrator creates a new ConnectionOrchestrator for the contract at address.
func NewConnectionOrchestrator(
	locator port.WalletLocator,
	networks port.NetworkDefinitionProvider,
	clients port.BlockchainClientProvider,
	abiLoader port.ABILoader,
	binder port.ContractBinder,
	reconciler *NetworkReconciler,
	updater *LiveUpdater,
	view port.View,
	l port.Logger,
	address common.Address,
) *ConnectionOrchestrator {
	view.SetContractAddress(address.Hex())
	view.SetConnectionState(entity.Disconnected)
	return &ConnectionOrchestrator{
		locator:    locator,
		networks:   networks,
		clients:    clients,
		abiLoader:  abiLoader,
		binder:     binder,
		reconciler: reconciler,
		updater:    updater,
		view:       view,
		logger:     l,
		address:    address,
		reconnect:  make(chan reconnectRequest),
	}
}

// Session returns the current session, or nil while disconnected.
func (o *ConnectionOrchestrator) Session() *Session {
	return o.session.Load()
}

// Init shows a network label as early as possible and connects.
func (o *ConnectionOrchestrator) Init(ctx context.Context) (*Session, error) {
	bridge, found := o.locator.Detect(ctx)
	o.showNetworkNow(ctx, bridge)
	return o.connectWith(ctx, bridge, found)
}

// Connect detects the wallet and connects, replacing any current session.
func (o *ConnectionOrchestrator) Connect(ctx context.Context) (*Session, error) {
	bridge, found := o.locator.Detect(ctx)
	return o.connectWith(ctx, bridge, found)
}

// Reconnect asks the running loop to drop the session and connect again, and waits for the outcome.
// Without a running loop it connects directly.
func (o *ConnectionOrchestrator) Reconnect(ctx context.Context) error {
	if !o.running.Load() {
		_, err := o.Connect(ctx)
		return err
	}

	req := reconnectRequest{result: make(chan error, 1)}
	select {
	case o.reconnect <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run initializes, then follows each session until the wallet changes or a reconnect is
// requested, at which point the session is torn down and Connect runs again. Returns when ctx is done.
func (o *ConnectionOrchestrator) Run(ctx context.Context) error {
	o.running.Store(true)
	defer o.running.Store(false)

	if _, err := o.Init(ctx); err != nil {
		o.logger.Warn("Initial connect failed", "error", err)
	}

	for {
		sess := o.Session()
		if sess == nil {
			select {
			case <-ctx.Done():
				return nil
			case req := <-o.reconnect:
				_, err := o.Connect(ctx)
				req.result <- err
			}
			continue
		}

		req, reason := o.follow(ctx, sess)
		o.teardown(sess)
		if ctx.Err() != nil {
			if req != nil {
				req.result <- ctx.Err()
			}
			return nil
		}

		o.logger.Info("Session ended, reconnecting", "reason", reason)
		_, err := o.Connect(ctx)
		if req != nil {
			req.result <- err
		}
	}
}

func (o *ConnectionOrchestrator) follow(ctx context.Context, sess *Session) (*reconnectRequest, error) {
	g, gctx := errgroup.WithContext(ctx)
	var pending *reconnectRequest

	g.Go(func() error {
		return o.updater.Run(gctx, sess)
	})

	if sess.Bridge != nil {
		events, err := sess.Bridge.Notifications(gctx)
		if err != nil {
			o.logger.Warn("Wallet notifications unavailable", "error", err)
		} else {
			g.Go(func() error {
				return o.watchWallet(gctx, events)
			})
		}
	}

	g.Go(func() error {
		select {
		case req := <-o.reconnect:
			pending = &req
			return errReconnectRequested
		case <-gctx.Done():
			return nil
		}
	})

	err := g.Wait()
	return pending, err
}

func (o *ConnectionOrchestrator) watchWallet(ctx context.Context, events <-chan entity.WalletEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			metrics.WalletEvents.WithLabelValues(ev.Type.String()).Inc()
			o.logger.Info("Wallet event received", "event", ev.Type.String(), "chainId", ev.ChainIDHex)
			return fmt.Errorf("%w: %s", errWalletChanged, ev.Type)
		}
	}
}

func (o *ConnectionOrchestrator) connectWith(ctx context.Context, bridge port.WalletBridge, found bool) (*Session, error) {
	o.connectMu.Lock()
	defer o.connectMu.Unlock()

	if old := o.session.Load(); old != nil {
		o.teardown(old)
	}
	// The ABI is fetched again on every connect so a redeployed interface is picked up.
	descriptor := o.abiLoader.Load(ctx)

	var (
		sess *Session
		err  error
	)
	if !found || bridge == nil {
		sess, err = o.connectReadOnly(ctx, descriptor)
	} else {
		sess, err = o.connectWallet(ctx, bridge, descriptor)
		if err != nil {
			bridge.Close()
		}
	}
	if err != nil {
		metrics.ConnectAttempts.WithLabelValues("failed").Inc()
		o.reportConnectError(err)
		o.view.SetConnectionState(entity.Disconnected)
		return nil, err
	}

	o.session.Store(sess)
	o.view.SetConnectionState(sess.State)
	metrics.ConnectAttempts.WithLabelValues(sess.State.String()).Inc()
	o.logger.Info("Connected", "state", sess.State.String(), "network", sess.Network.Name, "chainId", sess.ChainIDHex)
	return sess, nil
}

func (o *ConnectionOrchestrator) connectReadOnly(ctx context.Context, descriptor *entity.InterfaceDescriptor) (*Session, error) {
	target := o.networks.Target()
	o.logger.Info("Connecting read-only", "network", target.Name, "reason", entity.ErrWalletUnavailable.Error())

	client, err := o.clients.GetClient(target)
	if err != nil {
		return nil, fmt.Errorf("failed to reach public RPC: %w", err)
	}

	chainID, head, err := client.ProbeChainID(ctx)
	if err != nil {
		o.logger.Warn("Read-only chain probe failed", "error", err)
	} else {
		o.logger.Debug("Public RPC reachable", "chainId", chainID, "head", head)
		o.view.SetNetworkLabel(readOnlyLabel(chainID, target))
	}

	contract, err := o.binder.Bind(o.address, descriptor, client, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to bind contract: %w", err)
	}

	o.initialRead(ctx, contract)
	o.view.SetAccount("")
	o.view.SetControlsEnabled(false, false)

	return &Session{
		State:      entity.ReadOnly,
		Network:    client.Definition(),
		ChainIDHex: chainID,
		ABISource:  descriptor.Source,
		Contract:   contract,
		CreatedAt:  time.Now(),
	}, nil
}

func (o *ConnectionOrchestrator) connectWallet(ctx context.Context, bridge port.WalletBridge, descriptor *entity.InterfaceDescriptor) (*Session, error) {
	target := o.networks.Target()

	accounts, err := bridge.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("failed to request accounts: %w", entity.ErrUserRejected)
	}

	chainID, err := bridge.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet chain id: %w", err)
	}
	o.view.SetNetworkLabel(networkdefinition.ChainLabel(chainID, target))

	chainID, err = o.reconciler.Reconcile(ctx, bridge, chainID)
	if err != nil {
		return nil, err
	}

	account := accounts[0]
	contract, err := o.binder.Bind(o.address, descriptor, bridge.Backend(), bridge.Signer(account))
	if err != nil {
		return nil, fmt.Errorf("failed to bind contract: %w", err)
	}

	o.initialRead(ctx, contract)
	o.view.SetAccount(account.Hex())
	o.view.SetControlsEnabled(true, true)

	return &Session{
		State:      entity.Connected,
		Network:    target,
		ChainIDHex: chainID,
		ABISource:  descriptor.Source,
		Account:    account,
		Contract:   contract,
		Bridge:     bridge,
		CreatedAt:  time.Now(),
	}, nil
}

func (o *ConnectionOrchestrator) initialRead(ctx context.Context, contract port.StorageContract) {
	value, err := contract.Get(ctx)
	if err != nil {
		metrics.ContractCalls.WithLabelValues("get", "failed").Inc()
		o.logger.Warn("Initial get() failed", "error", err)
		return
	}
	metrics.ContractCalls.WithLabelValues("get", "ok").Inc()
	o.view.SetCurrentValue(utils.FormatValue(value))
}

// teardown drops sess if it is still current and resets the view to Disconnected.
func (o *ConnectionOrchestrator) teardown(sess *Session) {
	if !o.session.CompareAndSwap(sess, nil) {
		return
	}
	o.view.SetConnectionState(entity.Disconnected)
	o.view.SetControlsEnabled(false, false)
	o.view.SetCurrentValue("")
	o.view.SetTxStatus("")
	o.view.SetAccount("")
	if sess.Bridge != nil {
		sess.Bridge.Close()
	}
	o.logger.Debug("Session torn down", "state", sess.State.String())
}

func (o *ConnectionOrchestrator) showNetworkNow(ctx context.Context, bridge port.WalletBridge) {
	target := o.networks.Target()
	if bridge != nil {
		chainID, err := bridge.ChainID(ctx)
		if err != nil {
			o.logger.Warn("showNetworkNow failed", "error", err)
			return
		}
		o.view.SetNetworkLabel(networkdefinition.ChainLabel(chainID, target))
		return
	}

	client, err := o.clients.GetClient(target)
	if err != nil {
		o.logger.Warn("showNetworkNow failed", "error", err)
		return
	}
	chainID, head, err := client.ProbeChainID(ctx)
	if err != nil {
		o.logger.Warn("showNetworkNow failed", "error", err)
		return
	}
	o.logger.Debug("Network probed", "chainId", chainID, "head", head)
	o.view.SetNetworkLabel(readOnlyLabel(chainID, target))
}

func (o *ConnectionOrchestrator) reportConnectError(err error) {
	o.logger.Error("connect() error", "error", err)
	switch {
	case entity.IsUserRejected(err):
		o.view.Notify(entity.NoticeWarn, "Connection request was rejected in the wallet.")
	case errors.Is(err, entity.ErrNetworkSwitch):
		// the reconciler already asked the user to switch manually
	default:
		o.view.Notify(entity.NoticeError, connectFailedNotice)
	}
}

func readOnlyLabel(chainID string, target entity.NetworkDefinition) string {
	if networkdefinition.SameChain(chainID, target) {
		return networkdefinition.ReadOnlyLabel(target)
	}
	return networkdefinition.ChainLabel(chainID, target)
}

var _ port.ConnectionService = (*ConnectionOrchestrator)(nil)
