package service

import (
	"context"
	"errors"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/pkg/metrics"
	"storage_dapp/internal/pkg/utils"
)

var errSubscriptionClosed = errors.New("event subscription closed")

// LiveUpdater keeps the displayed value in sync with ValueChanged events.
type LiveUpdater struct {
	view       port.View
	logger     port.Logger
	retryDelay time.Duration
}

// NewLiveUpdater creates a LiveUpdater that resubscribes retryDelay after a subscription drops.
func NewLiveUpdater(view port.View, l port.Logger, retryDelay time.Duration) *LiveUpdater {
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	return &LiveUpdater{view: view, logger: l, retryDelay: retryDelay}
}

// Run follows the session's contract until ctx is done. Every event updates the value,
// no matter who sent the transaction.
func (u *LiveUpdater) Run(ctx context.Context, sess *Session) error {
	for {
		err := u.follow(ctx, sess)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, entity.ErrEventUnsupported) {
			u.logger.Warn("Live updates disabled", "error", err)
			<-ctx.Done()
			return nil
		}
		u.logger.Warn("Event subscription ended, retrying", "error", err, "delay", u.retryDelay.String())

		select {
		case <-time.After(u.retryDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

func (u *LiveUpdater) follow(ctx context.Context, sess *Session) error {
	sink := make(chan entity.ValueChange, 16)
	sub, err := sess.Contract.WatchValueChanged(ctx, sink)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case change := <-sink:
			u.view.SetCurrentValue(utils.FormatValue(change.NewValue))
			metrics.ValueChangedEvents.Inc()
			u.logger.Debug("ValueChanged", "setter", change.Setter.Hex(), "value", change.NewValue.String(), "block", change.BlockNumber)
		case err := <-sub.Err():
			if err == nil {
				return errSubscriptionClosed
			}
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
