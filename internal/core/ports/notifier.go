package ports

// SyncEventType ...
type SyncEventType int

const (
	SyncStarted SyncEventType = iota
	SyncProgress
	SyncCompleted
	SyncFailed
	StaleHeightFallback
	DecryptionSkipped
)

var syncEventTypeToString = map[SyncEventType]string{
	SyncStarted:         "SYNC_STARTED",
	SyncProgress:        "SYNC_PROGRESS",
	SyncCompleted:       "SYNC_COMPLETED",
	SyncFailed:          "SYNC_FAILED",
	StaleHeightFallback: "STALE_HEIGHT_FALLBACK",
	DecryptionSkipped:   "DECRYPTION_SKIPPED",
}

func (t SyncEventType) String() string {
	if s, ok := syncEventTypeToString[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// SyncEvent is emitted by the sync engine while a pass is running. Only the
// fields relevant to the event type are set.
type SyncEvent struct {
	// ID identifies the sync pass the event belongs to.
	ID      string
	Type    SyncEventType
	Address string
	// Height is the last scanned height for SyncCompleted, the tip height for
	// SyncStarted and StaleHeightFallback.
	Height          int64
	BlocksProcessed int
	TotalBlocks     int
	MatchesFound    int
	NewTransactions int
	TxID            string
	Err             error
}

// SyncNotifier receives the events of the sync engine. Publish must not
// block the caller.
type SyncNotifier interface {
	Publish(event SyncEvent)
}

// SyncEventTypeFromString returns the event type with the given name.
func SyncEventTypeFromString(s string) (SyncEventType, bool) {
	for t, name := range syncEventTypeToString {
		if name == s {
			return t, true
		}
	}
	return 0, false
}
