package entity

// ConnectionState is the orchestrator's view of how the client is attached to the chain.
type ConnectionState int

const (
	// Disconnected means no contract binding exists.
	Disconnected ConnectionState = iota
	// ReadOnly means the contract is bound to a public provider; writes are unavailable.
	ReadOnly
	// Connected means the contract is bound to the wallet's signer on the target network.
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case ReadOnly:
		return "read-only"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// MarshalText lets the state show up as a string in JSON responses.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
