package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/export"
	"finanzas/internal/storage"
)

// SyncWorker mirrors ledger transactions from SQLite to an external sheet.
// AMQP messages drive the common path; ProcessPending is the backup for
// messages lost while the worker was down.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	exporter  export.Exporter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, exporter export.Exporter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version)

	if w.exporter == nil {
		slog.WarnContext(ctx, "No exporter configured, skipping sheet export", "id", msg.ID)
		return nil
	}

	tx, err := w.storage.GetByID(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Row was deleted before we got to it; the delete message will
			// clean up the sheet if a row ever landed there.
			slog.WarnContext(ctx, "Transaction gone before sync, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.exportTransaction(ctx, tx); err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}

	return nil
}

// HandleDeleteMessage processes a single transaction delete message from AMQP.
// The ledger row is already gone, so the message carries the row data needed
// to locate the sheet copy.
func (w *SyncWorker) HandleDeleteMessage(ctx context.Context, msg *amqp.TransactionDeleteMessage) error {
	slog.InfoContext(ctx, "Processing delete message", "id", msg.ID)

	if w.exporter == nil {
		slog.WarnContext(ctx, "No exporter configured, skipping sheet deletion", "id", msg.ID)
		return nil
	}

	date, err := core.ParseDate(msg.Date)
	if err != nil {
		return fmt.Errorf("parse date in delete message: %w", err)
	}

	tx := core.Transaction{
		ID:       msg.ID,
		Type:     core.TransactionType(msg.Type),
		Category: msg.Category,
		Amount:   core.Money{Cents: msg.AmountCents},
		Date:     date,
	}

	if err := w.exporter.Remove(ctx, tx); err != nil {
		if errors.Is(err, export.ErrRowNotFound) {
			// Never made it to the sheet, nothing to remove.
			slog.WarnContext(ctx, "No sheet row for deleted transaction", "id", msg.ID)
			return nil
		}
		slog.ErrorContext(ctx, "Failed to remove transaction from sheet",
			"id", msg.ID,
			"error", err,
			"timestamp", msg.Timestamp)
		return fmt.Errorf("remove transaction from sheet: %w", err)
	}

	slog.InfoContext(ctx, "Removed transaction from sheet",
		"id", msg.ID,
		"timestamp", msg.Timestamp)
	return nil
}

// ProcessPending exports transactions that are still marked unsynced.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	if w.exporter == nil {
		return nil
	}

	pending, err := w.storage.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		tx, err := w.storage.GetByID(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			continue
		}

		if err := w.exportTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog at worker startup. Useful to
// recover from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if w.exporter == nil {
		return nil
	}

	// Larger batch for the startup pass
	pending, err := w.storage.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		tx, err := w.storage.GetByID(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction for startup sync",
				"id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			errorCount++
			continue
		}

		if err := w.exportTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}

		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

func (w *SyncWorker) exportTransaction(ctx context.Context, tx core.Transaction) error {
	ref, err := w.exporter.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, tx.ID); err != nil {
		// The export itself worked, so don't fail the message.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction",
		"id", tx.ID,
		"sheet_ref", ref,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)

	return nil
}
