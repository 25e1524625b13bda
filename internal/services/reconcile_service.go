package services

import (
	"context"

	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/logger"
)

// reconcileService checks every materialized balance against its log.
type reconcileService struct {
	ledger *ledger.Ledger
}

// NewReconcileService creates a new ReconcileServicer.
func NewReconcileService(l *ledger.Ledger) ReconcileServicer {
	return &reconcileService{ledger: l}
}

// Reconcile checks the reserve and every wallet, optionally repairing
// balances that disagree with their logs.
func (s *reconcileService) Reconcile(ctx context.Context, repair bool) ([]*ledger.ReconcileReport, error) {
	reports, err := s.ledger.ReconcileAll(ctx, repair)
	if err != nil {
		return nil, err
	}

	inconsistent := 0
	for _, r := range reports {
		if r.Consistent() {
			continue
		}
		inconsistent++
		logger.Get().Warnw("ledger out of balance",
			"owner", r.Owner,
			"materialized", r.Materialized.StringFixed(2),
			"derived", r.Derived.StringFixed(2),
			"drifts", len(r.Drifts),
			"repaired", r.Repaired,
		)
	}
	logger.Get().Infow("ledger reconciliation finished",
		"owners", len(reports),
		"inconsistent", inconsistent,
		"repair", repair,
	)
	return reports, nil
}
