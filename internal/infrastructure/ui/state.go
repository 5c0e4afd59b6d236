package ui

import (
	"io"
	"sync"
	"time"

	"storage_dapp/internal/app/port"
	"storage_dapp/internal/domain/entity"
	"storage_dapp/internal/pkg/metrics"

	"github.com/fatih/color"
)

// State holds what a front end would render: labels, the current value, control flags and notices.
type State struct {
	mu         sync.RWMutex
	view       entity.ViewState
	notices    []entity.Notice
	maxNotices int
	console    io.Writer
	logger     port.Logger
	now        func() time.Time
}

// NewState creates an empty, disconnected view. Notices are echoed to console when it is not nil.
func NewState(contractAddress string, maxNotices int, console io.Writer, log port.Logger) *State {
	if maxNotices <= 0 {
		maxNotices = 50
	}
	s := &State{
		view:       entity.ViewState{ContractAddress: contractAddress, State: entity.Disconnected},
		maxNotices: maxNotices,
		console:    console,
		logger:     log,
		now:        time.Now,
	}
	metrics.SetConnectionState(entity.Disconnected.String())
	return s
}

func (s *State) update(f func(v *entity.ViewState)) {
	s.mu.Lock()
	f(&s.view)
	s.mu.Unlock()
}

// SetNetworkLabel sets the network label.
func (s *State) SetNetworkLabel(label string) {
	s.update(func(v *entity.ViewState) { v.NetworkLabel = label })
	s.logger.Debug("View: network label", "label", label)
}

// SetContractAddress sets the displayed contract address.
func (s *State) SetContractAddress(address string) {
	s.update(func(v *entity.ViewState) { v.ContractAddress = address })
}

// SetAccount sets the connected account.
func (s *State) SetAccount(account string) {
	s.update(func(v *entity.ViewState) { v.Account = account })
}

// SetCurrentValue sets the displayed contract value.
func (s *State) SetCurrentValue(value string) {
	s.update(func(v *entity.ViewState) { v.CurrentValue = value })
	s.logger.Debug("View: current value", "value", value)
}

// SetTxStatus sets the transaction status text.
func (s *State) SetTxStatus(status string) {
	s.update(func(v *entity.ViewState) { v.TxStatus = status })
}

// SetControlsEnabled enables or disables the set and get controls.
func (s *State) SetControlsEnabled(set, get bool) {
	s.update(func(v *entity.ViewState) {
		v.SetEnabled = set
		v.GetEnabled = get
	})
}

// SetBusy marks a write as in flight.
func (s *State) SetBusy(busy bool) {
	s.update(func(v *entity.ViewState) { v.Busy = busy })
}

// SetConnectionState records the connection state.
func (s *State) SetConnectionState(state entity.ConnectionState) {
	s.update(func(v *entity.ViewState) { v.State = state })
	metrics.SetConnectionState(state.String())
}

// Notify records a notice and echoes it to the console.
func (s *State) Notify(level entity.NoticeLevel, message string) {
	n := entity.Notice{Level: level, Message: message, Time: s.now()}

	s.mu.Lock()
	s.notices = append(s.notices, n)
	if over := len(s.notices) - s.maxNotices; over > 0 {
		s.notices = append([]entity.Notice(nil), s.notices[over:]...)
	}
	s.mu.Unlock()

	if s.console != nil {
		printNotice(s.console, n)
	}
}

// Snapshot returns a copy of the view.
func (s *State) Snapshot() entity.ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Notices returns the most recent notices, oldest first.
func (s *State) Notices() []entity.Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Notice(nil), s.notices...)
}

func printNotice(w io.Writer, n entity.Notice) {
	var c *color.Color
	switch n.Level {
	case entity.NoticeError:
		c = color.New(color.FgRed, color.Bold)
	case entity.NoticeWarn:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgCyan)
	}
	_, _ = c.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
}

var _ port.View = (*State)(nil)
