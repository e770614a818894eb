package datachannel

import (
	"time"

	"go.uber.org/atomic"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	iotago "github.com/iotaledger/iota.go/v4"
	"github.com/iotaledger/purity/pkg/database"
)

var trackerPrefix = kvstore.KeyPrefix("seen")

// Tracker remembers the output ids that were already reported, so that repeated polls only
// yield the ids that are new.
type Tracker struct {
	store kvstore.KVStore
	size  atomic.Int64
	mutex syncutils.Mutex
}

// NewTracker creates a tracker on top of the store.
func NewTracker(store kvstore.KVStore) (*Tracker, error) {
	t := &Tracker{
		store: store,
	}

	var size int64
	if err := store.IterateKeys(trackerPrefix, func(_ kvstore.Key) bool {
		size++

		return true
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to load tracked output ids")
	}
	t.size.Store(size)

	return t, nil
}

func trackerKey(outputID iotago.OutputID) kvstore.Key {
	return append(append(kvstore.Key{}, trackerPrefix...), outputID[:]...)
}

// Add marks the ids as seen and returns the ones that were not seen before, in input order.
func (t *Tracker) Add(outputIDs ...iotago.OutputID) (iotago.OutputIDs, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	seenAt := []byte(time.Now().UTC().Format(time.RFC3339))

	fresh := make(iotago.OutputIDs, 0)
	for _, outputID := range outputIDs {
		key := trackerKey(outputID)

		has, err := t.store.Has(key)
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to look up output %s", outputID.ToHex())
		}
		if has {
			continue
		}

		if err := t.store.Set(key, seenAt); err != nil {
			return nil, ierrors.Wrapf(err, "failed to track output %s", outputID.ToHex())
		}

		t.size.Inc()
		fresh = append(fresh, outputID)
	}

	return fresh, nil
}

// Has reports whether the id was seen before.
func (t *Tracker) Has(outputID iotago.OutputID) (bool, error) {
	return t.store.Has(trackerKey(outputID))
}

// Size returns the number of seen ids.
func (t *Tracker) Size() int {
	return int(t.size.Load())
}

// Reset forgets all seen ids.
func (t *Tracker) Reset() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.store.DeletePrefix(trackerPrefix); err != nil {
		return ierrors.Wrap(err, "failed to reset tracker")
	}
	t.size.Store(0)

	return nil
}

// OpenTracker opens the tracker persisted with the given engine in path.
func OpenTracker(engine database.Engine, path string) (*Tracker, *database.Store, error) {
	store, err := database.Open(database.Config{
		Engine:    engine,
		Directory: path,
		Version:   trackerDatabaseVersion,
	})
	if err != nil {
		return nil, nil, err
	}

	tracker, err := NewTracker(store)
	if err != nil {
		_ = store.Close()

		return nil, nil, err
	}

	return tracker, store, nil
}

const trackerDatabaseVersion database.Version = 1
