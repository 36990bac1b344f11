package application_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kenbak/zipher/internal/core/application"
	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errSync = errors.New("indexer unreachable")

func newTestSession(t *testing.T) *application.Session {
	session, err := application.Unlock(application.SessionOpts{
		Address:    testAddress,
		SeedPhrase: testSeedPhrase,
	})
	require.NoError(t, err)
	return session
}

func newTestAutoSyncer(
	t *testing.T, svc application.SyncService, session *application.Session,
) *application.AutoSyncer {
	syncer, err := application.NewAutoSyncer(svc, session, application.AutoSyncerOpts{
		Interval:               10 * time.Millisecond,
		MaxConsecutiveFailures: 3,
		SuspendTimeout:         time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(syncer.Stop)
	return syncer
}

func TestAutoSyncer(t *testing.T) {
	t.Run("SyncsPeriodically", testAutoSyncerSyncsPeriodically())
	t.Run("SuspendsAfterFailures", testAutoSyncerSuspendsAfterFailures())
	t.Run("ManualSyncResumes", testAutoSyncerManualSyncResumes())
	t.Run("StopsWhenLocked", testAutoSyncerStopsWhenLocked())
	t.Run("RestartsAfterLoopExit", testAutoSyncerRestartsAfterLoopExit())
}

func testAutoSyncerSyncsPeriodically() func(*testing.T) {
	return func(t *testing.T) {
		var count int32
		svc := &mockSyncService{}
		svc.On("Sync", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { atomic.AddInt32(&count, 1) }).
			Return(&domain.WalletBalance{}, nil)

		syncer := newTestAutoSyncer(t, svc, newTestSession(t))
		syncer.Start()
		syncer.Start()

		require.Eventually(t, func() bool {
			return atomic.LoadInt32(&count) >= 3
		}, time.Second, 5*time.Millisecond)

		syncer.Stop()
		calls := atomic.LoadInt32(&count)
		time.Sleep(50 * time.Millisecond)
		require.Equal(t, calls, atomic.LoadInt32(&count))
	}
}

func testAutoSyncerSuspendsAfterFailures() func(*testing.T) {
	return func(t *testing.T) {
		svc := &mockSyncService{}
		svc.On("Sync", mock.Anything, mock.Anything).Return(nil, errSync)

		syncer := newTestAutoSyncer(t, svc, newTestSession(t))
		syncer.Start()

		require.Eventually(t, syncer.Suspended, time.Second, 5*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		syncer.Stop()

		svc.AssertNumberOfCalls(t, "Sync", 3)
	}
}

func testAutoSyncerManualSyncResumes() func(*testing.T) {
	return func(t *testing.T) {
		svc := &mockSyncService{}
		svc.On("Sync", mock.Anything, mock.Anything).Return(nil, errSync).Times(3)

		syncer := newTestAutoSyncer(t, svc, newTestSession(t))
		syncer.Start()
		require.Eventually(t, syncer.Suspended, time.Second, 5*time.Millisecond)

		expected := &domain.WalletBalance{Balance: 10_000}
		svc.On("Sync", mock.Anything, mock.Anything).Return(expected, nil)

		balance, err := syncer.SyncNow(context.Background())
		require.NoError(t, err)
		require.Equal(t, expected, balance)
		require.False(t, syncer.Suspended())
	}
}

func testAutoSyncerStopsWhenLocked() func(*testing.T) {
	return func(t *testing.T) {
		svc := &mockSyncService{}
		session := newTestSession(t)
		session.Lock()

		syncer := newTestAutoSyncer(t, svc, session)
		syncer.Start()
		time.Sleep(50 * time.Millisecond)

		svc.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)

		_, err := syncer.SyncNow(context.Background())
		require.ErrorIs(t, err, application.ErrSessionLocked)
	}
}

func testAutoSyncerRestartsAfterLoopExit() func(*testing.T) {
	return func(t *testing.T) {
		var count int32
		svc := &mockSyncService{}
		svc.On("Sync", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { atomic.AddInt32(&count, 1) }).
			Return(&domain.WalletBalance{}, nil)

		session := newTestSession(t)
		syncer := newTestAutoSyncer(t, svc, session)
		syncer.Start()
		require.True(t, syncer.Running())

		require.Eventually(t, func() bool {
			return atomic.LoadInt32(&count) >= 1
		}, time.Second, 5*time.Millisecond)

		session.Lock()
		require.Eventually(t, func() bool {
			return !syncer.Running()
		}, time.Second, 5*time.Millisecond)

		syncer.Start()
		require.Eventually(t, func() bool {
			return !syncer.Running()
		}, time.Second, 5*time.Millisecond)

		// Stop after a self-terminated run returns right away.
		syncer.Stop()
		require.False(t, syncer.Running())
	}
}
