package service

import (
	"context"
	"io"
	"math/big"
	"testing"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/infrastructure/configloader"
	networkdefinition "storage_dapp/internal/infrastructure/network/definition"
	"storage_dapp/internal/infrastructure/ui"
	"storage_dapp/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBridge struct {
	mock.Mock
}

func (m *mockBridge) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	args := m.Called(ctx)
	accounts, _ := args.Get(0).([]common.Address)
	return accounts, args.Error(1)
}

func (m *mockBridge) ChainID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockBridge) SwitchChain(ctx context.Context, chainIDHex string) error {
	return m.Called(ctx, chainIDHex).Error(0)
}

func (m *mockBridge) AddChain(ctx context.Context, params entity.AddChainParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *mockBridge) Signer(account common.Address) port.Signer {
	signer, _ := m.Called(account).Get(0).(port.Signer)
	return signer
}

func (m *mockBridge) Backend() port.ChainBackend {
	backend, _ := m.Called().Get(0).(port.ChainBackend)
	return backend
}

func (m *mockBridge) Notifications(ctx context.Context) (<-chan entity.WalletEvent, error) {
	args := m.Called(ctx)
	ch, _ := args.Get(0).(<-chan entity.WalletEvent)
	return ch, args.Error(1)
}

func (m *mockBridge) Close() {
	m.Called()
}

type mockContract struct {
	mock.Mock
}

func (m *mockContract) Address() common.Address {
	return common.HexToAddress(configloader.DefaultContractAddress)
}

func (m *mockContract) Get(ctx context.Context) (*big.Int, error) {
	args := m.Called(ctx)
	v, _ := args.Get(0).(*big.Int)
	return v, args.Error(1)
}

func (m *mockContract) Submit(ctx context.Context, value *big.Int) (common.Hash, error) {
	args := m.Called(ctx, value)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *mockContract) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, txHash)
	receipt, _ := args.Get(0).(*types.Receipt)
	return receipt, args.Error(1)
}

func (m *mockContract) WatchValueChanged(ctx context.Context, sink chan<- entity.ValueChange) (event.Subscription, error) {
	args := m.Called(ctx, sink)
	sub, _ := args.Get(0).(event.Subscription)
	return sub, args.Error(1)
}

func (m *mockContract) CanWrite() bool {
	return m.Called().Bool(0)
}

type staticSessions struct {
	sess *Session
}

func (s *staticSessions) Session() *Session { return s.sess }

type locatorFunc func(ctx context.Context) (port.WalletBridge, bool)

func (f locatorFunc) Detect(ctx context.Context) (port.WalletBridge, bool) { return f(ctx) }

type clientProviderFunc func(def entity.NetworkDefinition) (port.BlockchainClient, error)

func (f clientProviderFunc) GetClient(def entity.NetworkDefinition) (port.BlockchainClient, error) {
	return f(def)
}

type staticABI struct {
	descriptor *entity.InterfaceDescriptor
}

func (s staticABI) Load(context.Context) *entity.InterfaceDescriptor { return s.descriptor }

func newSepolia(t *testing.T) *networkdefinition.NetworkDefinitionProvider {
	t.Helper()
	networks, err := networkdefinition.NewNetworkDefinitionProvider(logger.NewSlogAdapter(), configloader.NetworkConfig{Identifier: "sepolia"})
	require.NoError(t, err)
	return networks
}

func newView() *ui.State {
	return ui.NewState(configloader.DefaultContractAddress, 50, io.Discard, logger.NewSlogAdapter())
}

func noticeMessages(view port.View) []string {
	var out []string
	for _, n := range view.Notices() {
		out = append(out, n.Message)
	}
	return out
}
