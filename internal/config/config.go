package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Kenbak/zipher/internal/core/application"
	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey is the network viewing keys are derived for, either main or test
	NetworkKey = "NETWORK"
	// IndexerURLKey is the base url of the CipherScan API serving chain data
	IndexerURLKey = "INDEXER_URL"
	// IndexerTimeoutKey is the timeout of every request to the indexer
	IndexerTimeoutKey = "INDEXER_TIMEOUT"
	// IndexerRPSKey is the max number of requests per second sent to the
	// indexer, 0 disables the limit
	IndexerRPSKey = "INDEXER_RPS"
	// CryptoURLKey is the base url of the service wrapping the Zcash key
	// derivation and note decryption libraries
	CryptoURLKey = "CRYPTO_URL"
	// CryptoTimeoutKey is the timeout of every request to the crypto service
	CryptoTimeoutKey = "CRYPTO_TIMEOUT"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// SyncScanRangeKey is the max number of blocks processed before writing a
	// checkpoint
	SyncScanRangeKey = "SYNC_SCAN_RANGE"
	// SyncChunkSizeKey is the max number of outputs trial-decrypted per call
	// to the crypto service
	SyncChunkSizeKey = "SYNC_CHUNK_SIZE"
	// SyncDecryptWorkersKey is the number of matched transactions fetched and
	// decrypted concurrently
	SyncDecryptWorkersKey = "SYNC_DECRYPT_WORKERS"
	// AutoSyncIntervalKey is the interval between periodic syncs
	AutoSyncIntervalKey = "AUTO_SYNC_INTERVAL"
	// AutoSyncMaxFailuresKey is the number of consecutive failed syncs after
	// which periodic syncs are suspended
	AutoSyncMaxFailuresKey = "AUTO_SYNC_MAX_FAILURES"
	// AutoSyncSuspendTimeoutKey is how long periodic syncs stay suspended
	AutoSyncSuspendTimeoutKey = "AUTO_SYNC_SUSPEND_TIMEOUT"
	// HTTPListeningPortKey is the port where the HTTP interface will listen on
	HTTPListeningPortKey = "HTTP_LISTENING_PORT"
	// SeedFileKey defines full path to a file that contains the seed phrase
	// of the wallet to sync
	SeedFileKey = "SEED_FILE"
	// WalletAddressKey is the unified address identifying the wallet state
	WalletAddressKey = "WALLET_ADDRESS"
	// BirthdayHeightKey is the height the wallet was created at, if known
	BirthdayHeightKey = "BIRTHDAY_HEIGHT"
	// WalletCreatedAtKey is the unix time in milliseconds the wallet was
	// created at, used to estimate the birthday height if not known
	WalletCreatedAtKey = "WALLET_CREATED_AT"
	// AccountIndexKey is the ZIP-32 account index of the wallet
	AccountIndexKey = "ACCOUNT_INDEX"
	// EnableMetricsKey exposes prometheus metrics on the HTTP interface
	EnableMetricsKey = "ENABLE_METRICS"
	// StatsIntervalKey defines interval in seconds for logging memory
	// statistics, 0 disables them
	StatsIntervalKey = "STATS_INTERVAL"

	DbLocation = "db"

	// DBBadger ...
	DBBadger = "badger"
	// DBInMemory ...
	DBInMemory = "inmemory"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("zipher", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("ZIPHER")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, domain.NetworkTest.String())
	vip.SetDefault(IndexerURLKey, "https://api.testnet.cipherscan.app")
	vip.SetDefault(IndexerTimeoutKey, 30*time.Second)
	vip.SetDefault(IndexerRPSKey, 10)
	vip.SetDefault(CryptoURLKey, "http://localhost:7070")
	vip.SetDefault(CryptoTimeoutKey, 2*time.Minute)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(SyncScanRangeKey, domain.DefaultScanRange)
	vip.SetDefault(SyncChunkSizeKey, domain.DefaultChunkSize)
	vip.SetDefault(SyncDecryptWorkersKey, 1)
	vip.SetDefault(AutoSyncIntervalKey, application.DefaultAutoSyncInterval)
	vip.SetDefault(AutoSyncMaxFailuresKey, application.DefaultAutoSyncMaxFailures)
	vip.SetDefault(AutoSyncSuspendTimeoutKey, 5*time.Minute)
	vip.SetDefault(HTTPListeningPortKey, 7777)
	vip.SetDefault(AccountIndexKey, 0)
	vip.SetDefault(EnableMetricsKey, false)
	vip.SetDefault(StatsIntervalKey, 0)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func Set(key string, value interface{}) {
	vip.Set(key, value)
}

func IsSet(key string) bool {
	return vip.IsSet(key)
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetInt64(key string) int64 {
	return vip.GetInt64(key)
}

func GetUint32(key string) uint32 {
	return vip.GetUint32(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetNetwork() domain.Network {
	return domain.Network(GetString(NetworkKey))
}

// GetDbDir returns the directory of the on-disk database, or an empty string
// if the state must be kept in memory only.
func GetDbDir() string {
	if GetString(DBTypeKey) == DBInMemory {
		return ""
	}
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetBirthdayHeight returns the configured birthday height, if any.
func GetBirthdayHeight() *int64 {
	if !vip.IsSet(BirthdayHeightKey) {
		return nil
	}
	height := GetInt64(BirthdayHeightKey)
	return &height
}

// GetWalletCreatedAt returns the configured wallet creation time, if any.
func GetWalletCreatedAt() *time.Time {
	if !vip.IsSet(WalletCreatedAtKey) {
		return nil
	}
	createdAt := time.UnixMilli(GetInt64(WalletCreatedAtKey))
	return &createdAt
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if err := GetNetwork().Validate(); err != nil {
		return fmt.Errorf("%s: %s", NetworkKey, err)
	}

	dbType := GetString(DBTypeKey)
	if dbType != DBBadger && dbType != DBInMemory {
		return fmt.Errorf(
			"%s must be either %s or %s", DBTypeKey, DBBadger, DBInMemory,
		)
	}

	for _, key := range []string{IndexerURLKey, CryptoURLKey} {
		if len(GetString(key)) <= 0 {
			return fmt.Errorf("missing %s", key)
		}
	}

	for _, key := range []string{
		SyncScanRangeKey, SyncChunkSizeKey, SyncDecryptWorkersKey,
		AutoSyncMaxFailuresKey,
	} {
		if GetInt(key) <= 0 {
			return fmt.Errorf("%s must be greater than 0", key)
		}
	}

	if GetInt(IndexerRPSKey) < 0 {
		return fmt.Errorf("%s must not be negative", IndexerRPSKey)
	}

	if GetDuration(AutoSyncIntervalKey) <= 0 {
		return fmt.Errorf("%s must be greater than 0", AutoSyncIntervalKey)
	}

	if port := GetInt(HTTPListeningPortKey); port <= 0 || port > 65535 {
		return fmt.Errorf("%s must be a valid port number", HTTPListeningPortKey)
	}

	if GetInt64(AccountIndexKey) < 0 ||
		GetInt64(AccountIndexKey) > application.MaxAccountIndex {
		return fmt.Errorf("%s out of range", AccountIndexKey)
	}

	if vip.IsSet(BirthdayHeightKey) && GetInt64(BirthdayHeightKey) < 0 {
		return fmt.Errorf("%s must not be negative", BirthdayHeightKey)
	}

	return nil
}

func initDatadir() error {
	datadir := GetDatadir()
	if GetString(DBTypeKey) == DBInMemory {
		return makeDirectoryIfNotExists(datadir)
	}
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
