package dbbadger

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const gcInterval = 30 * time.Minute

// NewLogger returns a badger.Logger writing through logrus. Badger's info
// messages are logged at debug level.
func NewLogger() badger.Logger {
	return badgerLogger{log.WithField("db", "badger")}
}

type badgerLogger struct {
	*log.Entry
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.Debugf(format, args...)
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	if err := json.NewEncoder(&buff).Encode(value); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(value)
}

// createDb opens the badgerhold store at dbDir, or an in-memory one if dbDir
// is empty. On-disk stores get their value log garbage collected
// periodically until closed.
func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, func(), error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, nil, err
	}

	if isInMemory {
		return db, func() {}, nil
	}

	ticker := time.NewTicker(gcInterval)
	quit := make(chan struct{})
	go func() {
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				if err := db.Badger().RunValueLogGC(0.5); err != nil &&
					err != badger.ErrNoRewrite {
					log.WithError(err).Warn("badger: value log gc failed")
				}
			}
		}
	}()

	stopGC := func() {
		ticker.Stop()
		close(quit)
	}
	return db, stopGC, nil
}
