// Package services orchestrates writes that span the record store and the
// message broker.
package services

import (
	"context"
	"fmt"

	"github.com/Raajp10/ai-expense-tracker/internal/amqp"
	"github.com/Raajp10/ai-expense-tracker/internal/core"
	"github.com/Raajp10/ai-expense-tracker/internal/log"
	"github.com/Raajp10/ai-expense-tracker/internal/storage"
)

// TransactionService saves records locally and schedules the affected
// monthly summary for an async rebuild. The broker is optional: without
// it, writes still succeed and summaries catch up on next query.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewTransactionService(store *storage.SQLiteRepository, amqpClient *amqp.Client, logger *log.Logger) *TransactionService {
	return &TransactionService{
		storage:    store,
		amqpClient: amqpClient,
		logger:     logger.WithComponent(log.ComponentApp),
	}
}

// CreateTransaction persists the transaction and publishes a summary
// rebuild for its month. Publish failures do not fail the write.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	saved, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishRebuild(ctx, saved.UserID, core.MonthOf(saved.Date))
	return saved, nil
}

// CreateBudget persists the budget and schedules a rebuild, since budget
// rows feed the summary's overspend line.
func (s *TransactionService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	saved, err := s.storage.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	s.publishRebuild(ctx, saved.UserID, saved.Month)
	return saved, nil
}

func (s *TransactionService) publishRebuild(ctx context.Context, userID int64, month string) {
	if s.amqpClient == nil {
		s.logger.Debug("broker not configured, skipping summary rebuild",
			log.FieldUserID, userID,
			log.FieldMonth, month,
		)
		return
	}
	if err := s.amqpClient.PublishSummaryRebuild(ctx, userID, month); err != nil {
		s.logger.ErrorContext(ctx, "publish summary rebuild failed",
			log.FieldUserID, userID,
			log.FieldMonth, month,
			log.FieldError, err,
		)
	}
}

// Close releases the storage and broker connections.
func (s *TransactionService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
