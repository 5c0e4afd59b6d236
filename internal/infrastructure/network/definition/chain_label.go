package networkdefinition

import (
	"fmt"
	"math/big"
	"strings"

	"storage_dapp/internal/domain/entity"
)

// ChainLabel turns a chain id, as a wallet reports it, into display text.
// The target network gets its friendly name, any other chain a generic label.
func ChainLabel(chainID string, target entity.NetworkDefinition) string {
	chainID = strings.TrimSpace(chainID)
	if chainID == "" {
		return "unknown"
	}

	id, ok := ParseChainID(chainID)
	if ok && id.IsUint64() && id.Uint64() == target.ChainID {
		return fmt.Sprintf("%s (%s)", target.Name, target.ChainIDHex())
	}
	if !ok {
		return fmt.Sprintf("Chain %s (unknown)", chainID)
	}
	return fmt.Sprintf("Chain %s (%s)", chainID, id.String())
}

// ReadOnlyLabel is shown when the target was reached through the public RPC rather than a wallet.
func ReadOnlyLabel(target entity.NetworkDefinition) string {
	return target.Name + " (read-only)"
}

// SwitchPromptLabel replaces the network label after the wallet refused to change networks.
func SwitchPromptLabel(target entity.NetworkDefinition) string {
	return "Please switch to " + target.Name
}

// ParseChainID accepts a 0x-prefixed hex chain id (any case) or a plain decimal one.
func ParseChainID(chainID string) (*big.Int, bool) {
	s := strings.TrimSpace(chainID)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return nil, false
	}
	id, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, false
	}
	return id, true
}

// SameChain reports whether a reported chain id denotes the target network.
func SameChain(chainID string, target entity.NetworkDefinition) bool {
	id, ok := ParseChainID(chainID)
	return ok && id.IsUint64() && id.Uint64() == target.ChainID
}
