package service

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/pkg/metrics"
	"storage_dapp/internal/pkg/utils"
)

// ActionService handles the set and get controls.
type ActionService struct {
	sessions SessionSource
	view     port.View
	txStore  port.TxStore
	logger   port.Logger
	busy     atomic.Bool
}

// NewActionService creates a new ActionService.
func NewActionService(sessions SessionSource, view port.View, txStore port.TxStore, l port.Logger) *ActionService {
	return &ActionService{sessions: sessions, view: view, txStore: txStore, logger: l}
}

// Busy reports whether a set transaction is in flight.
func (s *ActionService) Busy() bool {
	return s.busy.Load()
}

// Set submits set(input) and waits for one confirmation.
// Nothing is sent unless the session can write and input is a whole number that fits in uint256.
func (s *ActionService) Set(ctx context.Context, input string) (*entity.TxRecord, error) {
	sess := s.sessions.Session()
	if !sess.CanWrite() {
		s.view.Notify(entity.NoticeWarn, "Not connected yet.")
		return nil, entity.ErrNotConnected
	}

	value, err := utils.ParseUint256(input)
	if err != nil {
		s.logger.Debug("Rejected set() input", "input", input, "error", err)
		s.view.Notify(entity.NoticeWarn, "Enter a number")
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidValue, err)
	}

	if !s.busy.CompareAndSwap(false, true) {
		s.view.Notify(entity.NoticeWarn, "A transaction is already in flight.")
		return nil, entity.ErrBusy
	}
	defer func() {
		s.busy.Store(false)
		s.view.SetBusy(false)
		if s.sessions.Session() == sess {
			s.view.SetControlsEnabled(true, true)
		}
	}()

	s.view.SetBusy(true)
	s.view.SetControlsEnabled(false, true)
	s.view.SetTxStatus(entity.TxStatusMiningText)
	started := time.Now()

	hash, err := sess.Contract.Submit(ctx, value)
	if err != nil {
		record := &entity.TxRecord{Value: value.String(), Status: entity.TxFailed, Error: err.Error(), SubmittedAt: started}
		s.failSet(err)
		return record, err
	}

	record := &entity.TxRecord{
		Hash:        hash.Hex(),
		Value:       value.String(),
		Status:      entity.TxMining,
		ExplorerURL: sess.Network.TxURL(hash.Hex()),
		SubmittedAt: started,
	}
	s.txStore.Put(*record)

	receipt, err := sess.Contract.WaitMined(ctx, hash)
	if receipt != nil && receipt.BlockNumber != nil {
		record.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if err != nil {
		record.Status = entity.TxFailed
		record.Error = err.Error()
		s.txStore.Put(*record)
		s.failSet(err)
		return record, err
	}

	record.Status = entity.TxConfirmed
	s.txStore.Put(*record)
	metrics.ContractCalls.WithLabelValues("set", "ok").Inc()
	metrics.ConfirmationSeconds.Observe(time.Since(started).Seconds())

	s.view.SetTxStatus(entity.TxStatusConfirmedText)
	s.view.Notify(entity.NoticeInfo, fmt.Sprintf("Tx mined: %s (block %d)", record.ExplorerURL, record.BlockNumber))
	s.logger.Info("set() confirmed", "hash", record.Hash, "block", record.BlockNumber, "value", record.Value)
	return record, nil
}

func (s *ActionService) failSet(err error) {
	metrics.ContractCalls.WithLabelValues("set", "failed").Inc()
	s.logger.Error("set() failed", "error", err)
	s.view.SetTxStatus(entity.TxStatusFailedText)
	if entity.IsUserRejected(err) {
		s.view.Notify(entity.NoticeWarn, "Transaction was rejected in the wallet.")
		return
	}
	s.view.Notify(entity.NoticeError, "Set failed. Check logs for details.")
}

// Get reads the stored value and shows it. Read-only sessions may read too.
func (s *ActionService) Get(ctx context.Context) (*big.Int, error) {
	sess := s.sessions.Session()
	if sess == nil || sess.Contract == nil {
		s.view.Notify(entity.NoticeWarn, "Not connected yet.")
		return nil, entity.ErrNotConnected
	}

	value, err := sess.Contract.Get(ctx)
	if err != nil {
		metrics.ContractCalls.WithLabelValues("get", "failed").Inc()
		s.logger.Error("get() failed", "error", err)
		s.view.Notify(entity.NoticeError, "Get failed. Check logs for details.")
		return nil, err
	}
	metrics.ContractCalls.WithLabelValues("get", "ok").Inc()
	s.view.SetCurrentValue(utils.FormatValue(value))
	return value, nil
}

// Tx looks up a submitted transaction by hash.
func (s *ActionService) Tx(hash string) (entity.TxRecord, bool) {
	return s.txStore.Get(hash)
}

var _ port.ActionService = (*ActionService)(nil)
