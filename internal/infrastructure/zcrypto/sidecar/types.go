package sidecar

import "github.com/Kenbak/zipher/internal/core/domain"

type deriveRequest struct {
	Seed    string `json:"seed"`
	Network string `json:"network"`
	Account uint32 `json:"account"`
}

type deriveResponse struct {
	ViewingKey string `json:"viewingKey"`
}

type output struct {
	Nullifier    string `json:"nullifier"`
	Cmx          string `json:"cmx"`
	EphemeralKey string `json:"ephemeral_key"`
	Ciphertext   string `json:"ciphertext"`
	TxID         string `json:"txid"`
	Height       int64  `json:"height"`
	Timestamp    int64  `json:"timestamp"`
}

type filterRequest struct {
	ViewingKey string   `json:"viewingKey"`
	Outputs    []output `json:"outputs"`
}

type match struct {
	Index int `json:"index"`
}

type decryptRequest struct {
	ViewingKey string `json:"viewingKey"`
	TxHex      string `json:"txHex"`
}

type decryptResponse struct {
	Memo      string         `json:"memo"`
	Amount    domain.Zatoshi `json:"amount"`
	Nullifier string         `json:"nullifier"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toOutputs(outs []domain.CompactOutput) []output {
	res := make([]output, 0, len(outs))
	for _, o := range outs {
		res = append(res, output{
			Nullifier:    o.Nullifier,
			Cmx:          o.Cmx,
			EphemeralKey: o.EphemeralKey,
			Ciphertext:   o.Ciphertext,
			TxID:         o.TxID,
			Height:       o.Height,
			Timestamp:    o.Timestamp,
		})
	}
	return res
}
