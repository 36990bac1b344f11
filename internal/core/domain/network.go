package domain

// Network identifies the chain a viewing key is encoded for.
type Network string

const (
	NetworkMain Network = "main"
	NetworkTest Network = "test"
)

func (n Network) Validate() error {
	switch n {
	case NetworkMain, NetworkTest:
		return nil
	default:
		return ErrInvalidNetwork
	}
}

func (n Network) String() string {
	return string(n)
}
