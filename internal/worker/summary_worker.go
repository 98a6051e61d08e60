// Package worker recomputes monthly summaries in the background so API
// reads stay fast. It consumes rebuild messages published on transaction
// and budget writes and runs a reconciliation pass at startup in case
// messages were lost while the worker was down.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Raajp10/ai-expense-tracker/internal/amqp"
	"github.com/Raajp10/ai-expense-tracker/internal/insight/query"
	"github.com/Raajp10/ai-expense-tracker/internal/log"
)

// Store is what the worker needs from the record store.
type Store interface {
	query.SummaryStore
	UserIDsWithExpenses(ctx context.Context, month string) ([]int64, error)
}

type SummaryWorker struct {
	store  Store
	logger *log.Logger
}

func NewSummaryWorker(store Store, logger *log.Logger) *SummaryWorker {
	return &SummaryWorker{
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRebuild processes one rebuild message. The summary is recomputed
// from the current records, so replaying an old message is harmless.
func (w *SummaryWorker) HandleRebuild(ctx context.Context, msg *amqp.SummaryRebuildMessage) error {
	if _, err := query.BuildMonthlySummary(ctx, w.store, msg.UserID, msg.Month); err != nil {
		return fmt.Errorf("rebuild summary for user %d month %s: %w", msg.UserID, msg.Month, err)
	}
	return nil
}

// StartupReconcile rebuilds the current month's summary for every user
// with expense data, recovering from messages missed while the worker was
// down. Per-user failures are logged and skipped.
func (w *SummaryWorker) StartupReconcile(ctx context.Context) error {
	month := time.Now().Format("2006-01")
	userIDs, err := w.store.UserIDsWithExpenses(ctx, month)
	if err != nil {
		return fmt.Errorf("list users for %s: %w", month, err)
	}
	if len(userIDs) == 0 {
		w.logger.InfoContext(ctx, "no summaries to reconcile", log.FieldMonth, month)
		return nil
	}

	rebuilt := 0
	for _, id := range userIDs {
		if _, err := query.BuildMonthlySummary(ctx, w.store, id, month); err != nil {
			w.logger.ErrorContext(ctx, "reconcile failed",
				log.FieldUserID, id,
				log.FieldMonth, month,
				log.FieldError, err,
			)
			continue
		}
		rebuilt++
	}
	w.logger.InfoContext(ctx, "startup reconcile completed",
		log.FieldMonth, month,
		"users", len(userIDs),
		"rebuilt", rebuilt,
	)
	return nil
}
