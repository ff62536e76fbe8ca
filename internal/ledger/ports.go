package ledger

import (
	"context"

	"finledger/internal/core"
)

// Ports for the persistence adapters. Storage owns identifier assignment and
// created_at stamps; the aggregation core only ever sees materialized
// snapshots.
type (
	TransactionWriter interface {
		// Append stores a validated transaction and returns its assigned ID.
		Append(ctx context.Context, tx core.Transaction) (id string, err error)
	}

	// LedgerReader hands out a consistent, already-materialized snapshot of
	// the full ledger. Callers treat the returned slice as read-only.
	LedgerReader interface {
		Snapshot(ctx context.Context) ([]core.Transaction, error)
	}

	TransactionGetter interface {
		Get(ctx context.Context, id string) (core.Transaction, error)
	}
)
