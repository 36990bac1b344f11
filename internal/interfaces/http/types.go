package httpinterface

import (
	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/Kenbak/zipher/internal/core/ports"
)

type decryptRequest struct {
	RawTx      string `json:"raw_tx"`
	ViewingKey string `json:"viewing_key"`
}

type decryptResponse struct {
	Memo      string         `json:"memo"`
	Amount    domain.Zatoshi `json:"amount"`
	AmountZec string         `json:"amount_zec"`
}

type balanceResponse struct {
	*domain.WalletBalance
	BalanceZec string `json:"balance_zec"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type eventMessage struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Address         string `json:"address,omitempty"`
	Height          int64  `json:"height,omitempty"`
	BlocksProcessed int    `json:"blocks_processed,omitempty"`
	TotalBlocks     int    `json:"total_blocks,omitempty"`
	MatchesFound    int    `json:"matches_found,omitempty"`
	NewTransactions int    `json:"new_transactions,omitempty"`
	TxID            string `json:"txid,omitempty"`
	Error           string `json:"error,omitempty"`
}

func newBalanceResponse(balance *domain.WalletBalance) balanceResponse {
	return balanceResponse{balance, balance.Balance.String()}
}

func newEventMessage(e ports.SyncEvent) eventMessage {
	msg := eventMessage{
		ID:              e.ID,
		Type:            e.Type.String(),
		Address:         e.Address,
		Height:          e.Height,
		BlocksProcessed: e.BlocksProcessed,
		TotalBlocks:     e.TotalBlocks,
		MatchesFound:    e.MatchesFound,
		NewTransactions: e.NewTransactions,
		TxID:            e.TxID,
	}
	if e.Err != nil {
		msg.Error = e.Err.Error()
	}
	return msg
}
