package cipherscan

import (
	"context"
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
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidURL ...
	ErrInvalidURL = errors.New("invalid indexer url")
	// ErrMissingHeight ...
	ErrMissingHeight = errors.New("no height in response")
	// ErrMissingRawTx ...
	ErrMissingRawTx = errors.New("no raw transaction in response")
)

type service struct {
	apiURL string
	client *httputil.Client
}

// NewService returns a ports.ChainIndexer talking to a CipherScan API
// instance. Requests are rate limited to rps per second, if positive.
func NewService(
	apiURL string, timeout time.Duration, rps int,
) (ports.ChainIndexer, error) {
	u, err := url.Parse(apiURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, apiURL)
	}

	return &service{
		apiURL: strings.TrimRight(apiURL, "/"),
		client: httputil.NewClient(timeout, rps),
	}, nil
}

// GetChainHeight never fails because of the indexer: if the tip can't be
// fetched, domain.FallbackHeight is returned so that the sync goes on.
func (s *service) GetChainHeight(ctx context.Context) (int64, error) {
	height, err := s.getChainHeight(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		log.WithError(err).Warnf(
			"cipherscan: failed to fetch chain height, using fallback height %d",
			domain.FallbackHeight,
		)
		return domain.FallbackHeight, nil
	}
	return height, nil
}

func (s *service) GetCompactBlocks(
	ctx context.Context, startHeight, endHeight int64,
) ([]domain.CompactBlock, error) {
	if startHeight < 0 || endHeight < startHeight {
		return nil, fmt.Errorf(
			"%w: [%d, %d]", domain.ErrInvalidHeightRange, startHeight, endHeight,
		)
	}

	body, _ := json.Marshal(scanRequest{startHeight, endHeight})
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	url := fmt.Sprintf("%s/api/lightwalletd/scan", s.apiURL)
	status, resp, err := s.client.NewHTTPRequest(
		ctx, http.MethodPost, url, string(body), headers,
	)
	if err != nil {
		return nil, networkError(err)
	}
	if status < 200 || status > 299 {
		return nil, statusError(status, resp)
	}

	var data scanResponse
	if err := json.Unmarshal([]byte(resp), &data); err != nil {
		return nil, networkError(fmt.Errorf("invalid scan response: %w", err))
	}

	blocks := make([]domain.CompactBlock, 0, len(data.Blocks))
	for _, b := range data.Blocks {
		blocks = append(blocks, b.toDomain())
	}

	log.Debugf(
		"cipherscan: received %d compact block(s) in range [%d, %d]",
		len(blocks), startHeight, endHeight,
	)
	return blocks, nil
}

func (s *service) GetRawTransaction(
	ctx context.Context, txid string,
) (string, error) {
	if err := domain.ValidateTxID(txid); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/tx/%s/raw", s.apiURL, txid)
	status, resp, err := s.client.NewHTTPRequest(
		ctx, http.MethodGet, url, "", nil,
	)
	if err != nil {
		return "", networkError(err)
	}
	if status != http.StatusOK {
		return "", statusError(status, resp)
	}

	var data rawTxResponse
	if err := json.Unmarshal([]byte(resp), &data); err != nil {
		return "", networkError(fmt.Errorf("invalid raw tx response: %w", err))
	}

	rawTx := data.Hex
	if rawTx == "" {
		rawTx = data.RawHex
	}
	if rawTx == "" {
		return "", networkError(ErrMissingRawTx)
	}
	return rawTx, nil
}

func (s *service) getChainHeight(ctx context.Context) (int64, error) {
	url := fmt.Sprintf("%s/api/info", s.apiURL)
	status, resp, err := s.client.NewHTTPRequest(
		ctx, http.MethodGet, url, "", nil,
	)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, statusError(status, resp)
	}

	var data infoResponse
	if err := json.Unmarshal([]byte(resp), &data); err != nil {
		return 0, err
	}

	height := data.height()
	if height <= 0 {
		return 0, ErrMissingHeight
	}
	return height, nil
}

func networkError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
}

func statusError(status int, body string) error {
	return fmt.Errorf(
		"%w: status %d: %s", domain.ErrNetwork, status, strings.TrimSpace(body),
	)
}
