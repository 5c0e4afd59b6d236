package entity

import (
	"errors"
	"strings"
)

var (
	// ErrWalletUnavailable means no wallet bridge could be detected. The client degrades to read-only.
	ErrWalletUnavailable = errors.New("wallet bridge not detected")
	// ErrUserRejected means the user declined an account-access or signing prompt.
	ErrUserRejected = errors.New("user rejected the request")
	// ErrNetworkSwitch means the wallet could neither switch to nor add the target network.
	ErrNetworkSwitch = errors.New("network switch failed")
	// ErrContractCall wraps a reverted call or a node error.
	ErrContractCall = errors.New("contract call failed")
	// ErrNotConnected is returned by actions when no contract binding exists.
	ErrNotConnected = errors.New("not connected yet")
	// ErrInvalidValue is returned by "set" for input that is not a usable number.
	ErrInvalidValue = errors.New("enter a number")
	// ErrEventUnsupported means the ABI in use has no ValueChanged event to follow.
	ErrEventUnsupported = errors.New("ABI has no ValueChanged event")
	// ErrBusy is returned by "set" while a previous submission is still in flight.
	ErrBusy = errors.New("a transaction is already in flight")
)

// EIP-1193 / EIP-3326 provider error codes.
const (
	ProviderCodeUserRejected      = 4001
	ProviderCodeUnrecognizedChain = 4902
)

// ProviderErrorCode extracts the numeric code from errors that carry one (go-ethereum's rpc.Error does).
func ProviderErrorCode(err error) (int, bool) {
	var coded interface{ ErrorCode() int }
	if errors.As(err, &coded) {
		return coded.ErrorCode(), true
	}
	return 0, false
}

// IsUnrecognizedChain reports whether a wallet_switchEthereumChain failure means the wallet
// does not know the chain. Wallets disagree on how they surface it, so the message is checked too.
func IsUnrecognizedChain(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := ProviderErrorCode(err); ok && code == ProviderCodeUnrecognizedChain {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "4902") || strings.Contains(msg, "unrecognized chain")
}

// IsUserRejected reports whether the wallet refused a request on the user's behalf.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	code, ok := ProviderErrorCode(err)
	return ok && code == ProviderCodeUserRejected
}
