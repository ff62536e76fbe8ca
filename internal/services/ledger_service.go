package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"finledger/internal/amqp"
	"finledger/internal/core"
	"finledger/internal/ledger"
)

// Store is the persistence surface the service needs. Both the SQLite
// repository and the in-memory store satisfy it.
type Store interface {
	ledger.TransactionWriter
	ledger.LedgerReader
	ledger.TransactionGetter
}

// LedgerService orchestrates transaction operations across storage and AMQP
type LedgerService struct {
	store      Store
	amqpClient *amqp.Client
}

func NewLedgerService(store Store, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// AddTransaction saves a transaction locally and publishes an export message
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	// Save locally first (fast, reliable)
	id, err := s.store.Append(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	// Publish async export message (non-blocking)
	if err := s.publishAddedMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction-added message",
			"id", id, "error", err)
		// Don't fail the request - transaction is saved locally
	}

	return id, nil
}

// Snapshot returns all stored transactions for the dashboard aggregations.
func (s *LedgerService) Snapshot(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return txs, nil
}

// GetTransaction fetches a single transaction by ID.
func (s *LedgerService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.Get(ctx, id)
}

func (s *LedgerService) publishAddedMessage(ctx context.Context, id string) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping export message")
		return nil
	}

	return s.amqpClient.PublishTransactionAdded(ctx, id)
}

// Close closes both storage and AMQP connections
func (s *LedgerService) Close() error {
	var errs []error

	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
