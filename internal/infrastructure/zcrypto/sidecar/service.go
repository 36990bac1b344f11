package sidecar

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/Kenbak/zipher/internal/core/ports"
	"github.com/Kenbak/zipher/pkg/httputil"
)

var (
	// ErrInvalidURL ...
	ErrInvalidURL = errors.New("invalid crypto service url")
	// ErrRequestFailed is returned when the crypto service rejects a request.
	ErrRequestFailed = errors.New("crypto service request failed")
)

type service struct {
	apiURL string
	client *httputil.Client
}

// NewService returns a ports.ShieldedCrypto backed by the local service
// wrapping the Zcash key derivation and note decryption libraries.
func NewService(apiURL string, timeout time.Duration) (ports.ShieldedCrypto, error) {
	u, err := url.Parse(apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, apiURL)
	}

	return &service{
		apiURL: strings.TrimRight(apiURL, "/"),
		client: httputil.NewClient(timeout, 0),
	}, nil
}

func (s *service) DeriveViewingKey(
	ctx context.Context, seed []byte, network domain.Network, account uint32,
) (string, error) {
	req := deriveRequest{
		Seed:    hex.EncodeToString(seed),
		Network: network.String(),
		Account: account,
	}

	var resp deriveResponse
	if err := s.post(ctx, "derive", req, &resp); err != nil {
		return "", err
	}
	return resp.ViewingKey, nil
}

func (s *service) FilterOutputs(
	ctx context.Context, viewingKey string, outputs []domain.CompactOutput,
) ([]int, error) {
	req := filterRequest{
		ViewingKey: viewingKey,
		Outputs:    toOutputs(outputs),
	}

	var resp []match
	if err := s.post(ctx, "filter", req, &resp); err != nil {
		return nil, err
	}

	indexes := make([]int, 0, len(resp))
	for _, m := range resp {
		indexes = append(indexes, m.Index)
	}
	return indexes, nil
}

func (s *service) DecryptTransaction(
	ctx context.Context, viewingKey, txHex string,
) (domain.DecryptedNote, error) {
	req := decryptRequest{
		ViewingKey: viewingKey,
		TxHex:      txHex,
	}

	var resp decryptResponse
	if err := s.post(ctx, "decrypt", req, &resp); err != nil {
		return domain.DecryptedNote{}, err
	}
	return domain.DecryptedNote{
		Memo:      resp.Memo,
		Amount:    resp.Amount,
		Nullifier: resp.Nullifier,
	}, nil
}

func (s *service) post(
	ctx context.Context, endpoint string, req, resp interface{},
) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	url := fmt.Sprintf("%s/%s", s.apiURL, endpoint)
	status, respBody, err := s.client.NewHTTPRequest(
		ctx, http.MethodPost, url, string(body), headers,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	if status != http.StatusOK {
		reason := strings.TrimSpace(respBody)
		var errResp errorResponse
		if err := json.Unmarshal([]byte(respBody), &errResp); err == nil &&
			errResp.Error != "" {
			reason = errResp.Error
		}
		return fmt.Errorf(
			"%w: %s: status %d: %s", ErrRequestFailed, endpoint, status, reason,
		)
	}

	if err := json.Unmarshal([]byte(respBody), resp); err != nil {
		return fmt.Errorf("%s: invalid response: %w", endpoint, err)
	}
	return nil
}
