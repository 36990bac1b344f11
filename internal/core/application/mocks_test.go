package application_test

import (
	"context"
	"sync"

	"github.com/Kenbak/zipher/internal/core/application"
	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/Kenbak/zipher/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// **** Indexer ****

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) GetChainHeight(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	var res int64
	if a := args.Get(0); a != nil {
		res = a.(int64)
	}
	return res, args.Error(1)
}

func (m *mockIndexer) GetCompactBlocks(
	ctx context.Context, startHeight, endHeight int64,
) ([]domain.CompactBlock, error) {
	args := m.Called(ctx, startHeight, endHeight)

	var res []domain.CompactBlock
	if a := args.Get(0); a != nil {
		res = a.([]domain.CompactBlock)
	}
	return res, args.Error(1)
}

func (m *mockIndexer) GetRawTransaction(
	ctx context.Context, txid string,
) (string, error) {
	args := m.Called(ctx, txid)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

// **** Crypto ****

type filterFunc func(outputs []domain.CompactOutput) []int

type mockCrypto struct {
	mock.Mock
}

func (m *mockCrypto) DeriveViewingKey(
	ctx context.Context, seed []byte, network domain.Network, account uint32,
) (string, error) {
	args := m.Called(ctx, seed, network, account)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockCrypto) FilterOutputs(
	ctx context.Context, viewingKey string, outputs []domain.CompactOutput,
) ([]int, error) {
	args := m.Called(ctx, viewingKey, outputs)

	var res []int
	switch a := args.Get(0).(type) {
	case filterFunc:
		res = a(outputs)
	case []int:
		res = a
	}
	return res, args.Error(1)
}

func (m *mockCrypto) DecryptTransaction(
	ctx context.Context, viewingKey, txHex string,
) (domain.DecryptedNote, error) {
	args := m.Called(ctx, viewingKey, txHex)

	var res domain.DecryptedNote
	if a := args.Get(0); a != nil {
		res = a.(domain.DecryptedNote)
	}
	return res, args.Error(1)
}

// **** Notifier ****

type mockNotifier struct {
	lock   sync.Mutex
	events []ports.SyncEvent
}

func (m *mockNotifier) Publish(event ports.SyncEvent) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.events = append(m.events, event)
}

func (m *mockNotifier) eventsOfType(t ports.SyncEventType) []ports.SyncEvent {
	m.lock.Lock()
	defer m.lock.Unlock()

	events := make([]ports.SyncEvent, 0)
	for _, e := range m.events {
		if e.Type == t {
			events = append(events, e)
		}
	}
	return events
}

// **** SyncService ****

type mockSyncService struct {
	mock.Mock
}

func (m *mockSyncService) Sync(
	ctx context.Context, req application.SyncRequest,
) (*domain.WalletBalance, error) {
	args := m.Called(ctx, req)

	var res *domain.WalletBalance
	if a := args.Get(0); a != nil {
		res = a.(*domain.WalletBalance)
	}
	return res, args.Error(1)
}

func (m *mockSyncService) DecryptTransactionMemo(
	ctx context.Context, rawTxHex, viewingKey string,
) (*domain.DecryptedNote, error) {
	args := m.Called(ctx, rawTxHex, viewingKey)

	var res *domain.DecryptedNote
	if a := args.Get(0); a != nil {
		res = a.(*domain.DecryptedNote)
	}
	return res, args.Error(1)
}

func (m *mockSyncService) GetBalance(
	ctx context.Context, address string,
) (*domain.WalletBalance, error) {
	args := m.Called(ctx, address)

	var res *domain.WalletBalance
	if a := args.Get(0); a != nil {
		res = a.(*domain.WalletBalance)
	}
	return res, args.Error(1)
}

func (m *mockSyncService) Reset(ctx context.Context, address string) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}
