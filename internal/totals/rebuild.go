package totals

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/solidarityfund/fundraiser-backend/internal/donations"
	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
)

// Rebuild may scan a large record store; the lock TTL covers the whole pass.
const rebuildLockTTL = 5 * time.Minute

// RecordScanner is the slice of the donation store Rebuild needs.
type RecordScanner interface {
	ForEach(ctx context.Context, fn func(donations.Record) error) (*donations.ScanReport, error)
}

// RebuildStats summarizes one reconciliation pass. TeamAmounts holds display
// values ("25.00") for operator output; totals themselves stay in cents.
type RebuildStats struct {
	Scanned     int               `json:"scanned"`
	Counted     int               `json:"counted"`
	Skipped     int               `json:"skipped"`
	Teams       int               `json:"teams"`
	TeamAmounts map[string]string `json:"team_amounts"`
	ScanWarning string            `json:"scan_warning,omitempty"`
}

// Rebuild recomputes the snapshot from the record store and overwrites it,
// repairing any drift between records and totals. The snapshot lock is held
// for the whole pass so concurrent increments cannot be overwritten.
func (a *Aggregator) Rebuild(ctx context.Context, records RecordScanner) (*RebuildStats, error) {
	if records == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record scanner required")
	}

	lock, err := newSnapshotLock(a.locks, a.locks.LockKey(lockName), rebuildLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build totals lock")
	}
	acquired, err := lock.acquire(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire totals lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "totals rebuild already running")
	}
	defer func() { _ = lock.release(ctx) }()

	recomputed := map[string]int64{}
	stats := &RebuildStats{TeamAmounts: map[string]string{}}
	var scanErrs error

	report, err := records.ForEach(ctx, func(rec donations.Record) error {
		if !rec.Countable() {
			stats.Skipped++
			return nil
		}
		recomputed[*rec.TeamRef] += rec.AmountCents
		stats.Counted++
		return nil
	})
	if report != nil {
		stats.Scanned = report.Scanned
		stats.Skipped += report.Skipped
		scanErrs = multierr.Append(scanErrs, report.SkipErr)
	}
	if err != nil {
		return stats, err
	}

	if err := a.write(ctx, recomputed); err != nil {
		return stats, err
	}

	stats.Teams = len(recomputed)
	for team, cents := range recomputed {
		stats.TeamAmounts[team] = decimal.NewFromInt(cents).Shift(-2).StringFixed(2)
	}
	if scanErrs != nil {
		stats.ScanWarning = scanErrs.Error()
	}
	return stats, nil
}
