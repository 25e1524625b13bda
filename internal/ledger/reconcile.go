package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Drift describes one entry whose balance snapshot disagrees with the
// running sum of the log up to and including it.
type Drift struct {
	EntryID  string          `json:"entry_id"`
	Sequence int64           `json:"sequence"`
	Recorded decimal.Decimal `json:"recorded"`
	Expected decimal.Decimal `json:"expected"`
}

// ReconcileReport compares an owner's materialized balance with its log.
type ReconcileReport struct {
	Owner        string          `json:"owner"`
	Entries      int             `json:"entries"`
	Materialized decimal.Decimal `json:"materialized"`
	Derived      decimal.Decimal `json:"derived"`
	Version      int64           `json:"version"`
	LastSequence int64           `json:"last_sequence"`
	Drifts       []Drift         `json:"drifts,omitempty"`
	SequenceGaps bool            `json:"sequence_gaps"`
	Repaired     bool            `json:"repaired"`
}

// Consistent reports whether the balance, snapshots and sequence all agree.
func (r *ReconcileReport) Consistent() bool {
	return r.Materialized.Equal(r.Derived) && len(r.Drifts) == 0 && !r.SequenceGaps && r.Version == r.LastSequence
}

// Settled reports whether nothing is left to fix after this run. Repair only
// rewrites the materialized balance, so drifted snapshots or gaps keep an
// owner unsettled.
func (r *ReconcileReport) Settled() bool {
	return r.Consistent() || (r.Repaired && len(r.Drifts) == 0 && !r.SequenceGaps)
}

// Reconcile recomputes owner's balance from its log. With repair set, a
// materialized balance that disagrees with the log is overwritten with the
// derived value. Entries are never rewritten.
func (l *Ledger) Reconcile(ctx context.Context, owner Owner, repair bool) (*ReconcileReport, error) {
	var report *ReconcileReport
	err := l.run(ctx, []Owner{owner}, func(ctx context.Context, st Store) error {
		bal, err := balanceOf(ctx, st, owner, true)
		if err != nil {
			return err
		}
		entries, err := st.Entries(ctx, owner)
		if err != nil {
			return err
		}

		report = &ReconcileReport{
			Owner:        owner.String(),
			Entries:      len(entries),
			Materialized: bal.Amount,
			Version:      bal.Version,
		}
		running := decimal.Zero
		for i, e := range entries {
			running = running.Add(e.Type.Signed(e.Amount))
			if !running.Equal(e.BalanceAfter) {
				report.Drifts = append(report.Drifts, Drift{
					EntryID:  e.ID,
					Sequence: e.Sequence,
					Recorded: e.BalanceAfter,
					Expected: running,
				})
			}
			if e.Sequence != int64(i+1) {
				report.SequenceGaps = true
			}
			report.LastSequence = e.Sequence
		}
		report.Derived = running

		if report.Consistent() {
			return nil
		}
		l.log.Warnw("ledger drift detected",
			"owner", report.Owner,
			"materialized", report.Materialized.StringFixed(2),
			"derived", report.Derived.StringFixed(2),
			"drifts", len(report.Drifts),
		)

		if repair && (!bal.Amount.Equal(running) || bal.Version != report.LastSequence) {
			if err := st.WriteBalance(ctx, owner, running, bal.Version, report.LastSequence); err != nil {
				return err
			}
			report.Repaired = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ReconcileAll reconciles the reserve and every wallet concurrently.
func (l *Ledger) ReconcileAll(ctx context.Context, repair bool) ([]*ReconcileReport, error) {
	ids, err := l.store.WalletOwners(ctx)
	if err != nil {
		return nil, storageErr(err)
	}

	owners := make([]Owner, 0, len(ids)+1)
	owners = append(owners, ReserveOwner())
	for _, id := range ids {
		owners = append(owners, WalletOwner(id))
	}

	reports := make([]*ReconcileReport, len(owners))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, o := range owners {
		g.Go(func() error {
			r, err := l.Reconcile(gctx, o, repair)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
