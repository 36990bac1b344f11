package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kenbak/zipher/internal/config"
	"github.com/Kenbak/zipher/internal/core/application"
	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/Kenbak/zipher/internal/core/ports"
	"github.com/Kenbak/zipher/internal/infrastructure/indexer/cipherscan"
	"github.com/Kenbak/zipher/internal/infrastructure/metrics"
	"github.com/Kenbak/zipher/internal/infrastructure/pubsub"
	dbbadger "github.com/Kenbak/zipher/internal/infrastructure/storage/db/badger"
	"github.com/Kenbak/zipher/internal/infrastructure/storage/db/inmemory"
	"github.com/Kenbak/zipher/internal/infrastructure/zcrypto/sidecar"
	httpinterface "github.com/Kenbak/zipher/internal/interfaces/http"
	"github.com/Kenbak/zipher/pkg/stats"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if interval := config.GetInt(config.StatsIntervalKey); interval > 0 {
		stats.EnableMemoryStatistics(ctx, time.Duration(interval)*time.Second)
	}

	// Sync state store
	repo, err := newCheckpointRepository()
	if err != nil {
		log.WithError(err).Fatal("failed to open sync state store")
	}
	defer repo.Close()

	// Remote services
	indexerSvc, err := cipherscan.NewService(
		config.GetString(config.IndexerURLKey),
		config.GetDuration(config.IndexerTimeoutKey),
		config.GetInt(config.IndexerRPSKey),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init indexer client")
	}
	cryptoSvc, err := sidecar.NewService(
		config.GetString(config.CryptoURLKey),
		config.GetDuration(config.CryptoTimeoutKey),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init crypto client")
	}

	// Sync events
	var syncMetrics *metrics.SyncMetrics
	sinks := make([]ports.SyncNotifier, 0, 1)
	if config.GetBool(config.EnableMetricsKey) {
		syncMetrics = metrics.NewSyncMetrics()
		sinks = append(sinks, syncMetrics)
	}
	pubsubSvc := pubsub.NewService(sinks...)
	defer pubsubSvc.Close()

	syncSvc, err := application.NewSyncService(application.SyncServiceOpts{
		Indexer:        indexerSvc,
		Crypto:         cryptoSvc,
		Repository:     repo,
		Notifier:       pubsubSvc,
		Network:        config.GetNetwork(),
		AccountIndex:   config.GetUint32(config.AccountIndexKey),
		ChunkSize:      config.GetInt(config.SyncChunkSizeKey),
		ScanRange:      config.GetInt64(config.SyncScanRangeKey),
		DecryptWorkers: config.GetInt(config.SyncDecryptWorkersKey),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to init sync service")
	}

	// Wallet session
	session, err := unlockSession()
	if err != nil {
		log.WithError(err).Fatal("failed to unlock wallet")
	}
	defer session.Lock()

	autoSyncer, err := application.NewAutoSyncer(
		syncSvc, session, application.AutoSyncerOpts{
			Interval:               config.GetDuration(config.AutoSyncIntervalKey),
			MaxConsecutiveFailures: config.GetUint32(config.AutoSyncMaxFailuresKey),
			SuspendTimeout:         config.GetDuration(config.AutoSyncSuspendTimeoutKey),
		},
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init auto syncer")
	}

	// HTTP interface
	httpOpts := httpinterface.ServiceOpts{
		Port:       config.GetInt(config.HTTPListeningPortKey),
		SyncSvc:    syncSvc,
		AutoSyncer: autoSyncer,
		Session:    session,
		PubSub:     pubsubSvc,
	}
	if syncMetrics != nil {
		httpOpts.MetricsHandler = syncMetrics.Handler()
	}
	httpSvc, err := httpinterface.NewService(httpOpts)
	if err != nil {
		log.WithError(err).Fatal("failed to init http interface")
	}
	if err := httpSvc.Start(); err != nil {
		log.WithError(err).Fatal("failed to start http interface")
	}

	autoSyncer.Start()
	log.Infof(
		"zipher daemon started on network %s for wallet %s",
		config.GetNetwork(), shortAddress(session.Address()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)
	<-sigChan

	log.Info("shutting down daemon")
	httpSvc.Stop()
	autoSyncer.Stop()
	log.Info("daemon stopped")
}

func newCheckpointRepository() (domain.CheckpointRepository, error) {
	if config.GetString(config.DBTypeKey) == config.DBInMemory {
		return inmemory.NewCheckpointRepositoryImpl(), nil
	}
	return dbbadger.NewCheckpointRepositoryImpl(
		config.GetDbDir(), dbbadger.NewLogger(),
	)
}

func unlockSession() (*application.Session, error) {
	provider, err := newFileProvider(config.GetString(config.SeedFileKey))
	if err != nil {
		return nil, err
	}
	seedPhrase, err := provider.SeedPhrase()
	if err != nil {
		return nil, err
	}

	return application.Unlock(application.SessionOpts{
		Address:        config.GetString(config.WalletAddressKey),
		SeedPhrase:     seedPhrase,
		BirthdayHeight: config.GetBirthdayHeight(),
		CreatedAt:      config.GetWalletCreatedAt(),
	})
}

func shortAddress(address string) string {
	if len(address) <= 20 {
		return address
	}
	return address[:20] + "..."
}
