package service

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/infrastructure/txstore"
	"storage_dapp/internal/pkg/ethtest"
	"storage_dapp/internal/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var txHash = common.HexToHash("0x5e1f9b1c7e8a4b2f6d3c0a9e8b7f6a5d4c3b2a1908f7e6d5c4b3a29180f7e6d5")

func newActions(t *testing.T, contract *mockContract, state entity.ConnectionState) (*ActionService, *staticSessions) {
	t.Helper()
	sessions := &staticSessions{sess: &Session{
		State:    state,
		Network:  newSepolia(t).Target(),
		Contract: contract,
	}}
	view := newView()
	view.SetControlsEnabled(true, true)
	return NewActionService(sessions, view, txstore.New(time.Minute, time.Minute), logger.NewSlogAdapter()), sessions
}

func TestSet_NotConnected(t *testing.T) {
	s := NewActionService(&staticSessions{}, newView(), txstore.New(time.Minute, time.Minute), logger.NewSlogAdapter())

	_, err := s.Set(context.Background(), "5")
	assert.ErrorIs(t, err, entity.ErrNotConnected)
	assert.Contains(t, noticeMessages(s.view), "Not connected yet.")
}

func TestSet_ReadOnlySessionCannotWrite(t *testing.T) {
	contract := &mockContract{}
	contract.On("CanWrite").Return(false)
	s, _ := newActions(t, contract, entity.ReadOnly)

	_, err := s.Set(context.Background(), "5")
	assert.ErrorIs(t, err, entity.ErrNotConnected)
	contract.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestSet_NonNumericInputSendsNothing(t *testing.T) {
	for _, input := range []string{"abc", "", "  ", "NaN", "Infinity", "-1", "1.5", "12abc"} {
		t.Run(input, func(t *testing.T) {
			contract := &mockContract{}
			contract.On("CanWrite").Return(true)
			s, _ := newActions(t, contract, entity.Connected)

			_, err := s.Set(context.Background(), input)
			assert.ErrorIs(t, err, entity.ErrInvalidValue)
			assert.Contains(t, noticeMessages(s.view), "Enter a number")
			contract.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
			assert.False(t, s.Busy())
		})
	}
}

func TestSet_SuccessClearsBusy(t *testing.T) {
	contract := &mockContract{}
	contract.On("CanWrite").Return(true)
	contract.On("Submit", mock.Anything, mock.MatchedBy(func(v *big.Int) bool { return v.Cmp(big.NewInt(1000)) == 0 })).Return(txHash, nil).Once()
	contract.On("WaitMined", mock.Anything, txHash).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(7)}, nil).Once()
	s, _ := newActions(t, contract, entity.Connected)

	record, err := s.Set(context.Background(), "1e3")
	require.NoError(t, err)
	assert.Equal(t, entity.TxConfirmed, record.Status)
	assert.Equal(t, uint64(7), record.BlockNumber)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+txHash.Hex(), record.ExplorerURL)

	snap := s.view.Snapshot()
	assert.False(t, s.Busy())
	assert.False(t, snap.Busy)
	assert.True(t, snap.SetEnabled)
	assert.Equal(t, entity.TxStatusConfirmedText, snap.TxStatus)
	assert.Contains(t, noticeMessages(s.view), "Tx mined: https://sepolia.etherscan.io/tx/"+txHash.Hex()+" (block 7)")

	stored, ok := s.Tx(txHash.Hex())
	require.True(t, ok)
	assert.Equal(t, entity.TxConfirmed, stored.Status)
}

func TestSet_FailureClearsBusy(t *testing.T) {
	t.Run("submit", func(t *testing.T) {
		contract := &mockContract{}
		contract.On("CanWrite").Return(true)
		contract.On("Submit", mock.Anything, mock.Anything).Return(common.Hash{}, errors.New("insufficient funds")).Once()
		s, _ := newActions(t, contract, entity.Connected)

		_, err := s.Set(context.Background(), "3")
		require.Error(t, err)
		snap := s.view.Snapshot()
		assert.False(t, s.Busy())
		assert.False(t, snap.Busy)
		assert.True(t, snap.SetEnabled)
		assert.Equal(t, entity.TxStatusFailedText, snap.TxStatus)
		assert.Contains(t, noticeMessages(s.view), "Set failed. Check logs for details.")
	})

	t.Run("reverted", func(t *testing.T) {
		contract := &mockContract{}
		contract.On("CanWrite").Return(true)
		contract.On("Submit", mock.Anything, mock.Anything).Return(txHash, nil).Once()
		contract.On("WaitMined", mock.Anything, txHash).
			Return(&types.Receipt{Status: types.ReceiptStatusFailed, BlockNumber: big.NewInt(9)}, entity.ErrContractCall).Once()
		s, _ := newActions(t, contract, entity.Connected)

		record, err := s.Set(context.Background(), "3")
		require.ErrorIs(t, err, entity.ErrContractCall)
		assert.Equal(t, entity.TxFailed, record.Status)
		assert.Equal(t, uint64(9), record.BlockNumber)
		assert.False(t, s.Busy())
		assert.Equal(t, entity.TxStatusFailedText, s.view.Snapshot().TxStatus)

		stored, ok := s.Tx(txHash.Hex())
		require.True(t, ok)
		assert.Equal(t, entity.TxFailed, stored.Status)
	})

	t.Run("rejected", func(t *testing.T) {
		contract := &mockContract{}
		contract.On("CanWrite").Return(true)
		contract.On("Submit", mock.Anything, mock.Anything).Return(common.Hash{}, entity.ErrUserRejected).Once()
		s, _ := newActions(t, contract, entity.Connected)

		_, err := s.Set(context.Background(), "3")
		require.ErrorIs(t, err, entity.ErrUserRejected)
		assert.False(t, s.Busy())
		assert.Contains(t, noticeMessages(s.view), "Transaction was rejected in the wallet.")
	})
}

func TestSet_SecondSetWhileBusy(t *testing.T) {
	release := make(chan time.Time)
	contract := &mockContract{}
	contract.On("CanWrite").Return(true)
	contract.On("Submit", mock.Anything, mock.Anything).Return(txHash, nil).Once()
	contract.On("WaitMined", mock.Anything, txHash).
		WaitUntil(release).
		Return(&types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(1)}, nil).Once()
	s, _ := newActions(t, contract, entity.Connected)

	done := make(chan error, 1)
	go func() {
		_, err := s.Set(context.Background(), "1")
		done <- err
	}()
	require.Eventually(t, func() bool {
		snap := s.view.Snapshot()
		return snap.Busy && !snap.SetEnabled
	}, time.Second, 5*time.Millisecond)

	_, err := s.Set(context.Background(), "2")
	assert.ErrorIs(t, err, entity.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Busy())
	contract.AssertNumberOfCalls(t, "Submit", 1)
}

func TestGet(t *testing.T) {
	contract := &mockContract{}
	contract.On("Get", mock.Anything).Return(big.NewInt(42), nil).Once()
	s, _ := newActions(t, contract, entity.ReadOnly)

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), v.Int64())
	assert.Equal(t, "42", s.view.Snapshot().CurrentValue)
}

func TestGet_FailureLeavesValue(t *testing.T) {
	contract := &mockContract{}
	contract.On("Get", mock.Anything).Return(nil, ethtest.ErrUserRejected).Once()
	s, _ := newActions(t, contract, entity.Connected)
	s.view.SetCurrentValue("5")

	_, err := s.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, "5", s.view.Snapshot().CurrentValue)
	assert.Contains(t, noticeMessages(s.view), "Get failed. Check logs for details.")
}

func TestGet_NotConnected(t *testing.T) {
	s := NewActionService(&staticSessions{}, newView(), txstore.New(time.Minute, time.Minute), logger.NewSlogAdapter())
	_, err := s.Get(context.Background())
	assert.ErrorIs(t, err, entity.ErrNotConnected)
}
