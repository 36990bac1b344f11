package domain

// CompactBlock is the lightweight representation of a block served by the
// scanning service: for every transaction only the shielded actions'
// cryptographic metadata is included, not the full transaction body.
type CompactBlock struct {
	Height int64
	Time   int64
	Vtx    []CompactTx
}

// CompactTx holds the shielded actions of a transaction. Hash is in wire
// byte order.
type CompactTx struct {
	Hash    string
	Actions []CompactAction
}

// CompactAction is a single Orchard action of a compact transaction. All
// fields are hex encoded.
type CompactAction struct {
	Nullifier    string
	Cmx          string
	EphemeralKey string
	Ciphertext   string
}

// CompactOutput is a compact action denormalized with the coordinates of the
// transaction and block that include it.
type CompactOutput struct {
	Nullifier    string
	Cmx          string
	EphemeralKey string
	Ciphertext   string
	TxID         string
	Height       int64
	Timestamp    int64
}

// MatchedTx identifies a transaction with at least one output that decrypts
// under the wallet viewing key. TxID is in wire byte order.
type MatchedTx struct {
	TxID      string
	Height    int64
	Timestamp int64
}

// NumOfOutputs returns the number of actions across all transactions of the
// block.
func (b CompactBlock) NumOfOutputs() int {
	count := 0
	for _, tx := range b.Vtx {
		count += len(tx.Actions)
	}
	return count
}

// Outputs returns the block actions as compact outputs, in transaction then
// action order.
func (b CompactBlock) Outputs() []CompactOutput {
	outputs := make([]CompactOutput, 0, b.NumOfOutputs())
	for _, tx := range b.Vtx {
		for _, action := range tx.Actions {
			outputs = append(outputs, CompactOutput{
				Nullifier:    action.Nullifier,
				Cmx:          action.Cmx,
				EphemeralKey: action.EphemeralKey,
				Ciphertext:   action.Ciphertext,
				TxID:         tx.Hash,
				Height:       b.Height,
				Timestamp:    b.Time,
			})
		}
	}
	return outputs
}
