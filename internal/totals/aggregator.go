package totals

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/solidarityfund/fundraiser-backend/pkg/blob"
	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
)

const (
	defaultSnapshotPath = "donations/totals.json"
	lockName            = "totals"
	incrementLockWait   = 5 * time.Second
)

type snapshotBlob interface {
	Put(ctx context.Context, key string, data []byte, opts blob.PutOptions) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Aggregator maintains the per-team totals snapshot: a single blob holding
// map[teamRef]totalCents. The snapshot is derived state; Rebuild can always
// recompute it from the record store.
type Aggregator struct {
	blob  snapshotBlob
	locks lockStore
	path  string
}

func NewAggregator(b snapshotBlob, locks lockStore, path string) (*Aggregator, error) {
	if b == nil {
		return nil, errors.New("blob store is required")
	}
	if locks == nil {
		return nil, errors.New("lock store is required")
	}
	if strings.TrimSpace(path) == "" {
		path = defaultSnapshotPath
	}
	return &Aggregator{blob: b, locks: locks, path: path}, nil
}

// Totals returns the current snapshot. An absent snapshot reads as empty.
func (a *Aggregator) Totals(ctx context.Context) (map[string]int64, error) {
	data, err := a.blob.Get(ctx, a.path)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return map[string]int64{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read totals snapshot")
	}
	var totals map[string]int64
	if err := json.Unmarshal(data, &totals); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode totals snapshot")
	}
	if totals == nil {
		totals = map[string]int64{}
	}
	return totals, nil
}

// TotalFor returns one team's running total in cents; zero when unseen.
func (a *Aggregator) TotalFor(ctx context.Context, teamRef string) (int64, error) {
	totals, err := a.Totals(ctx)
	if err != nil {
		return 0, err
	}
	return totals[teamRef], nil
}

// Increment adds a counted donation to one team's total. The read-add-write
// cycle runs under the snapshot lock so concurrent webhook deliveries cannot
// lose updates.
func (a *Aggregator) Increment(ctx context.Context, teamRef string, amountCents int64) error {
	if strings.TrimSpace(teamRef) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "team ref is required")
	}
	if amountCents <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "increment must be positive")
	}

	lock, err := newSnapshotLock(a.locks, a.locks.LockKey(lockName), 0)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build totals lock")
	}
	if err := lock.acquireWait(ctx, incrementLockWait); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire totals lock")
	}
	defer func() { _ = lock.release(ctx) }()

	totals, err := a.Totals(ctx)
	if err != nil {
		return err
	}
	totals[teamRef] += amountCents
	return a.write(ctx, totals)
}

func (a *Aggregator) write(ctx context.Context, totals map[string]int64) error {
	data, err := json.Marshal(totals)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode totals snapshot")
	}
	if err := a.blob.Put(ctx, a.path, data, blob.PutOptions{ContentType: "application/json"}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write totals snapshot")
	}
	return nil
}
