package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/cxcontrol/cxcontrol/internal/business"
	jobmetrics "github.com/cxcontrol/cxcontrol/internal/jobs"
	"github.com/cxcontrol/cxcontrol/internal/ledger"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeReconcile recomputes invoice totals from their payment rows.
	TaskTypeReconcile = "ledger:reconcile"
)

// ReconcilePayload scopes a reconciliation run. An empty BusinessID means
// every registered business.
type ReconcilePayload struct {
	BusinessID string `json:"businessId,omitempty"`
}

// NewReconcileTask constructs an Asynq task.
func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReconcile, data), nil
}

// Reconciler runs the reconciliation job across businesses.
type Reconciler struct {
	ledger     *ledger.Service
	businesses *business.Service
	metrics    *jobmetrics.Metrics
	logger     *slog.Logger
}

// NewReconciler constructs the reconcile task handler.
func NewReconciler(ledgerSvc *ledger.Service, businesses *business.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) *Reconciler {
	return &Reconciler{ledger: ledgerSvc, businesses: businesses, metrics: metrics, logger: logger}
}

// HandleReconcile processes TaskTypeReconcile tasks. Sheet data is the
// source of truth for payments, so a failed run is safe to retry.
func (rc *Reconciler) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := rc.metrics.Track("reconcile")
	repaired, err := rc.run(ctx, payload)
	rc.metrics.AddRepairs(repaired)
	if err != nil {
		rc.logger.Error("reconcile run failed", slog.Any("error", err))
	} else {
		rc.logger.Info("reconcile run finished", slog.Int("repaired", repaired))
	}
	return tracker.End(err)
}

func (rc *Reconciler) run(ctx context.Context, payload ReconcilePayload) (int, error) {
	targets, err := rc.targets(ctx, payload)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, b := range targets {
		repaired, err := rc.ledger.ReconcileAll(ctx, b.SheetID)
		if err != nil {
			return total, err
		}
		if repaired > 0 {
			rc.logger.Info("reconcile repaired invoices",
				slog.String("business", b.Name),
				slog.Int("repaired", repaired))
		}
		total += repaired
	}
	return total, nil
}

func (rc *Reconciler) targets(ctx context.Context, payload ReconcilePayload) ([]business.Business, error) {
	if payload.BusinessID != "" {
		b, err := rc.businesses.Get(ctx, payload.BusinessID)
		if err != nil {
			return nil, err
		}
		return []business.Business{*b}, nil
	}
	return rc.businesses.List(ctx)
}
