package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/infrastructure/abiloader"
	"storage_dapp/internal/infrastructure/configloader"
	"storage_dapp/internal/infrastructure/contract"
	"storage_dapp/internal/infrastructure/network/client"
	"storage_dapp/internal/infrastructure/ui"
	"storage_dapp/internal/infrastructure/wallet"
	"storage_dapp/internal/pkg/ethtest"
	"storage_dapp/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	contractAddr = common.HexToAddress(configloader.DefaultContractAddress)
	alice        = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob          = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	mallory      = common.HexToAddress("0x000000000000000000000000000000000000beef")
)

type harness struct {
	node *ethtest.Node
	view *ui.State
	orch *ConnectionOrchestrator
}

func publicRPC(node *ethtest.Node) port.BlockchainClientProvider {
	return clientProviderFunc(func(def entity.NetworkDefinition) (port.BlockchainClient, error) {
		return client.NewEVMClientFromRPC(def, node.DialInProc(), time.Second), nil
	})
}

func walletAt(node *ethtest.Node) port.WalletLocator {
	return locatorFunc(func(context.Context) (port.WalletBridge, bool) {
		cfg := configloader.WalletConfig{PollIntervalMillis: 20}
		return wallet.NewBridge(node.DialInProc(), cfg, logger.NewSlogAdapter()), true
	})
}

func noWallet() port.WalletLocator {
	return locatorFunc(func(context.Context) (port.WalletBridge, bool) { return nil, false })
}

func newHarness(t *testing.T, node *ethtest.Node, locator port.WalletLocator, clients port.BlockchainClientProvider) *harness {
	t.Helper()
	log := logger.NewSlogAdapter()
	networks := newSepolia(t)
	view := newView()
	orch := NewConnectionOrchestrator(
		locator,
		networks,
		clients,
		staticABI{descriptor: abiloader.Fallback()},
		contract.NewBinder(log, time.Second, 20*time.Millisecond),
		NewNetworkReconciler(networks, view, log),
		NewLiveUpdater(view, log, 20*time.Millisecond),
		view,
		log,
		contractAddr,
	)
	return &harness{node: node, view: view, orch: orch}
}

func TestInit_ReadOnly(t *testing.T) {
	node := ethtest.NewNode(11155111, contractAddr)
	node.SetValue(42)
	h := newHarness(t, node, noWallet(), publicRPC(node))

	sess, err := h.orch.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.ReadOnly, sess.State)
	assert.False(t, sess.CanWrite())

	snap := h.view.Snapshot()
	assert.Equal(t, "42", snap.CurrentValue)
	assert.Equal(t, "Sepolia (read-only)", snap.NetworkLabel)
	assert.Equal(t, contractAddr.Hex(), snap.ContractAddress)
	assert.False(t, snap.SetEnabled)
	assert.False(t, snap.GetEnabled)
	assert.Equal(t, entity.ReadOnly, snap.State)
}

func TestInit_ReadOnlyInitialReadFailureIsNotFatal(t *testing.T) {
	node := ethtest.NewNode(11155111, contractAddr)
	node.FailCall(&ethtest.ProviderError{Code: -32000, Message: "header not found"})
	h := newHarness(t, node, noWallet(), publicRPC(node))

	sess, err := h.orch.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.ReadOnly, sess.State)
	assert.Empty(t, h.view.Snapshot().CurrentValue)
}

func TestInit_WalletDirectSwitch(t *testing.T) {
	node := ethtest.NewNode(1, contractAddr).WithAccounts(alice)
	node.KnowChain(11155111)
	node.SetValue(42)
	h := newHarness(t, node, walletAt(node), publicRPC(node))

	sess, err := h.orch.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.Connected, sess.State)
	assert.Equal(t, alice, sess.Account)
	assert.True(t, sess.CanWrite())

	snap := h.view.Snapshot()
	assert.Equal(t, "Sepolia (0xaa36a7)", snap.NetworkLabel)
	assert.Equal(t, "42", snap.CurrentValue)
	assert.Equal(t, alice.Hex(), snap.Account)
	assert.True(t, snap.SetEnabled)
	assert.True(t, snap.GetEnabled)
	assert.Equal(t, 1, node.CallCount("wallet_switchEthereumChain"))
	assert.Zero(t, node.CallCount("wallet_addEthereumChain"))
}

func TestInit_WalletAddFallback(t *testing.T) {
	node := ethtest.NewNode(1, contractAddr).WithAccounts(alice)
	node.SetValue(42)
	h := newHarness(t, node, walletAt(node), publicRPC(node))

	sess, err := h.orch.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.Connected, sess.State)

	snap := h.view.Snapshot()
	assert.Equal(t, "Sepolia (0xaa36a7)", snap.NetworkLabel)
	assert.True(t, snap.SetEnabled)
	assert.True(t, snap.GetEnabled)

	calls := node.Calls()
	switchAt := slices.Index(calls, "wallet_switchEthereumChain")
	addAt := slices.Index(calls, "wallet_addEthereumChain")
	require.GreaterOrEqual(t, switchAt, 0)
	require.GreaterOrEqual(t, addAt, 0)
	assert.Less(t, switchAt, addAt)
}

func TestConnect_WalletOnTargetSkipsSwitch(t *testing.T) {
	node := ethtest.NewNode(11155111, contractAddr).WithAccounts(alice)
	h := newHarness(t, node, walletAt(node), publicRPC(node))

	_, err := h.orch.Connect(context.Background())
	require.NoError(t, err)
	assert.Zero(t, node.CallCount("wallet_switchEthereumChain"))
}

func TestConnect_UserRejectsAccounts(t *testing.T) {
	node := ethtest.NewNode(11155111, contractAddr).WithAccounts(alice)
	node.FailRequestAccounts(ethtest.ErrUserRejected)
	h := newHarness(t, node, walletAt(node), publicRPC(node))

	_, err := h.orch.Connect(context.Background())
	require.ErrorIs(t, err, entity.ErrUserRejected)
	assert.Nil(t, h.orch.Session())
	assert.Equal(t, entity.Disconnected, h.view.Snapshot().State)
	assert.False(t, h.view.Snapshot().SetEnabled)
	assert.Contains(t, noticeMessages(h.view), "Connection request was rejected in the wallet.")
}

func TestConnect_SwitchRefusedStaysDisconnected(t *testing.T) {
	node := ethtest.NewNode(1, contractAddr).WithAccounts(alice)
	node.FailSwitch(ethtest.ErrUserRejected)
	h := newHarness(t, node, walletAt(node), publicRPC(node))

	_, err := h.orch.Connect(context.Background())
	require.ErrorIs(t, err, entity.ErrNetworkSwitch)
	assert.Nil(t, h.orch.Session())
	assert.Equal(t, "Please switch to Sepolia", h.view.Snapshot().NetworkLabel)
	assert.NotContains(t, noticeMessages(h.view), connectFailedNotice)
}

func TestConnect_UnexpectedFailure(t *testing.T) {
	node := ethtest.NewNode(11155111, contractAddr)
	clients := clientProviderFunc(func(entity.NetworkDefinition) (port.BlockchainClient, error) {
		return nil, errors.New("all RPC endpoints failed")
	})
	h := newHarness(t, node, noWallet(), clients)

	_, err := h.orch.Connect(context.Background())
	require.Error(t, err)
	assert.Nil(t, h.orch.Session())
	assert.Equal(t, entity.Disconnected, h.view.Snapshot().State)
	assert.Contains(t, noticeMessages(h.view), connectFailedNotice)
}

func TestReconnect_WithoutRunConnectsDirectly(t *testing.T) {
	node := ethtest.NewNode(11155111, contractAddr)
	h := newHarness(t, node, noWallet(), publicRPC(node))

	_, err := h.orch.Connect(context.Background())
	require.NoError(t, err)
	first := h.orch.Session()

	require.NoError(t, h.orch.Reconnect(context.Background()))
	assert.NotSame(t, first, h.orch.Session())
	assert.Equal(t, entity.ReadOnly, h.orch.Session().State)
}

func TestRun_FollowsEventsAndReconnectsOnWalletChange(t *testing.T) {
	node := ethtest.NewNode(11155111, contractAddr).WithAccounts(alice)
	node.SetValue(1)
	h := newHarness(t, node, walletAt(node), publicRPC(node))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.orch.Run(ctx) }()

	require.Eventually(t, func() bool {
		sess := h.orch.Session()
		return sess != nil && sess.Account == alice && node.CallCount("eth_subscribe") > 0
	}, 10*time.Second, 20*time.Millisecond)

	node.EmitValueChanged(mallory, 7)
	require.Eventually(t, func() bool { return h.view.Snapshot().CurrentValue == "7" }, 10*time.Second, 20*time.Millisecond)

	node.WithAccounts(bob)
	require.Eventually(t, func() bool {
		sess := h.orch.Session()
		return sess != nil && sess.Account == bob
	}, 10*time.Second, 20*time.Millisecond)
	assert.Equal(t, bob.Hex(), h.view.Snapshot().Account)

	before := h.orch.Session()
	node.SetChainID(1)
	require.Eventually(t, func() bool {
		sess := h.orch.Session()
		return sess != nil && sess != before && sess.ChainIDHex == "0xaa36a7"
	}, 10*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Sepolia (0xaa36a7)", h.view.Snapshot().NetworkLabel)

	before = h.orch.Session()
	require.NoError(t, h.orch.Reconnect(ctx))
	assert.NotSame(t, before, h.orch.Session())
	assert.Equal(t, entity.Connected, h.view.Snapshot().State)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Nil(t, h.orch.Session())
	assert.Equal(t, entity.Disconnected, h.view.Snapshot().State)
}

// sequenceABI serves the fallback interface first, then a remote one.
type sequenceABI struct {
	mu    sync.Mutex
	calls int
}

func (s *sequenceABI) Load(context.Context) *entity.InterfaceDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	d := abiloader.Fallback()
	if s.calls > 1 {
		d.Source = entity.ABISourceRemote
	}
	return d
}

func TestConnect_ReloadsABIOnEveryConnect(t *testing.T) {
	node := ethtest.NewNode(11155111, contractAddr)
	h := newHarness(t, node, noWallet(), publicRPC(node))
	abi := &sequenceABI{}
	h.orch.abiLoader = abi

	sess, err := h.orch.Init(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.ABISourceFallback, sess.ABISource)

	_, err = h.orch.Connect(context.Background())
	require.NoError(t, err)
	sess, err = h.orch.Connect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, abi.calls)
	assert.Equal(t, entity.ABISourceRemote, sess.ABISource)
	assert.Equal(t, entity.ABISourceRemote, h.orch.Session().ABISource)
}
