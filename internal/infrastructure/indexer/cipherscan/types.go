package cipherscan

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/Kenbak/zipher/internal/core/domain"
)

// flexInt decodes a JSON number or a numeric string.
type flexInt int64

func (i *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*i = 0
		return nil
	}

	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*i = flexInt(n)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q", data)
	}
	*i = flexInt(f)
	return nil
}

type infoResponse struct {
	Blocks flexInt `json:"blocks"`
	Height flexInt `json:"height"`
}

func (r infoResponse) height() int64 {
	if r.Blocks > 0 {
		return int64(r.Blocks)
	}
	return int64(r.Height)
}

type scanRequest struct {
	StartHeight int64 `json:"startHeight"`
	EndHeight   int64 `json:"endHeight"`
}

type scanResponse struct {
	Blocks []compactBlock `json:"blocks"`
}

type compactBlock struct {
	Height flexInt     `json:"height"`
	Time   flexInt     `json:"time"`
	Vtx    []compactTx `json:"vtx"`
}

type compactTx struct {
	Hash    string          `json:"hash"`
	Actions []compactAction `json:"actions"`
}

type compactAction struct {
	Nullifier    string `json:"nullifier"`
	Cmx          string `json:"cmx"`
	EphemeralKey string `json:"ephemeralKey"`
	Ciphertext   string `json:"ciphertext"`
}

type rawTxResponse struct {
	Hex    string `json:"hex"`
	RawHex string `json:"rawHex"`
}

func (b compactBlock) toDomain() domain.CompactBlock {
	txs := make([]domain.CompactTx, 0, len(b.Vtx))
	for _, tx := range b.Vtx {
		actions := make([]domain.CompactAction, 0, len(tx.Actions))
		for _, a := range tx.Actions {
			actions = append(actions, domain.CompactAction{
				Nullifier:    a.Nullifier,
				Cmx:          a.Cmx,
				EphemeralKey: a.EphemeralKey,
				Ciphertext:   a.Ciphertext,
			})
		}
		txs = append(txs, domain.CompactTx{Hash: tx.Hash, Actions: actions})
	}
	return domain.CompactBlock{
		Height: int64(b.Height),
		Time:   int64(b.Time),
		Vtx:    txs,
	}
}
