package domain

import "time"

// DecryptedNote is what the decryption primitive reveals about the wallet
// output of a full transaction.
type DecryptedNote struct {
	Memo      string
	Amount    Zatoshi
	Nullifier string
}

// DecryptedOutput ...
type DecryptedOutput struct {
	Memo      string  `json:"memo"`
	Amount    Zatoshi `json:"amount"`
	IsSpent   bool    `json:"is_spent"`
	Nullifier string  `json:"nullifier"`
}

// DecryptedTransaction is a wallet transaction as stored in the sync history.
// TxID is in display byte order. Spent is always zero since spend detection
// isn't implemented.
type DecryptedTransaction struct {
	TxID     string            `json:"txid"`
	Height   int64             `json:"height"`
	Received Zatoshi           `json:"received"`
	Spent    Zatoshi           `json:"spent"`
	Outputs  []DecryptedOutput `json:"outputs"`
}

// NewDecryptedTransaction builds the history entry for the given match and
// the note decrypted from its full transaction.
func NewDecryptedTransaction(
	match MatchedTx, note DecryptedNote,
) DecryptedTransaction {
	return DecryptedTransaction{
		TxID:     ReverseTxID(match.TxID),
		Height:   match.Height,
		Received: note.Amount,
		Outputs: []DecryptedOutput{
			{
				Memo:      note.Memo,
				Amount:    note.Amount,
				Nullifier: note.Nullifier,
			},
		},
	}
}

// SyncCheckpoint is the persisted sync state of a wallet address. It's
// always written as a whole, never partially updated.
type SyncCheckpoint struct {
	Address           string                 `json:"address"`
	LastScannedHeight int64                  `json:"last_scanned_height"`
	Balance           Zatoshi                `json:"balance"`
	TotalReceived     Zatoshi                `json:"total_received"`
	TotalSpent        Zatoshi                `json:"total_spent"`
	Transactions      []DecryptedTransaction `json:"transactions"`
	LastSyncTime      int64                  `json:"last_sync_time"`
}

// Key returns the storage key of the checkpoint.
func (c SyncCheckpoint) Key() string {
	return CheckpointKey(c.Address)
}

// CheckpointKey returns the storage key of the checkpoint of address.
func CheckpointKey(address string) string {
	return CheckpointKeyPrefix + address
}

// HasTransaction returns whether txid (display order) is part of the
// history.
func (c *SyncCheckpoint) HasTransaction(txid string) bool {
	if c == nil {
		return false
	}
	for _, tx := range c.Transactions {
		if tx.TxID == txid {
			return true
		}
	}
	return false
}

// Extend returns the next state of the checkpoint after having processed
// every block up to height and found txs. The history is the previous one
// followed by txs; the receiver is left untouched. The scanned height never
// moves backwards.
func (c *SyncCheckpoint) Extend(
	address string, height int64, txs []DecryptedTransaction, now time.Time,
) *SyncCheckpoint {
	next := &SyncCheckpoint{
		Address:           address,
		LastScannedHeight: height,
		Transactions:      make([]DecryptedTransaction, 0, len(txs)),
		LastSyncTime:      now.UnixMilli(),
	}
	if c != nil {
		next.TotalReceived = c.TotalReceived
		next.TotalSpent = c.TotalSpent
		next.Transactions = append(next.Transactions, c.Transactions...)
		if c.LastScannedHeight > height {
			next.LastScannedHeight = c.LastScannedHeight
		}
	}

	for _, tx := range txs {
		next.Transactions = append(next.Transactions, tx)
		next.TotalReceived += tx.Received
	}
	// Spent amounts aren't tracked yet, the balance is what has been received.
	next.Balance = next.TotalReceived

	return next
}

// WalletBalance returns the caller facing projection of the checkpoint. A
// nil checkpoint yields an empty balance.
func (c *SyncCheckpoint) WalletBalance() *WalletBalance {
	if c == nil {
		return &WalletBalance{Transactions: []DecryptedTransaction{}}
	}
	txs := make([]DecryptedTransaction, len(c.Transactions))
	copy(txs, c.Transactions)

	return &WalletBalance{
		Balance:       c.Balance,
		TotalReceived: c.TotalReceived,
		TotalSpent:    c.TotalSpent,
		Transactions:  txs,
	}
}

// WalletBalance ...
type WalletBalance struct {
	Balance       Zatoshi                `json:"balance"`
	TotalReceived Zatoshi                `json:"total_received"`
	TotalSpent    Zatoshi                `json:"total_spent"`
	Transactions  []DecryptedTransaction `json:"transactions"`
}
