// Package worker consumes record sync messages and mirrors hour records to
// an external sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kousu/internal/amqp"
	"kousu/internal/sheets"
	"kousu/internal/storage"
)

// ExportWorker replays upserted hour records into the configured sheet
type ExportWorker struct {
	storage *storage.Repository
	sheets  sheets.RecordWriter
}

func NewExportWorker(storage *storage.Repository, sheets sheets.RecordWriter) *ExportWorker {
	return &ExportWorker{
		storage: storage,
		sheets:  sheets,
	}
}

// HandleSyncMessage processes a single record sync message from AMQP
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	slog.InfoContext(ctx, "Processing record sync message",
		"record_id", msg.RecordID,
		"timestamp", msg.Timestamp)

	record, err := w.storage.GetRecord(ctx, msg.RecordID)
	if err != nil {
		return fmt.Errorf("get record from storage: %w", err)
	}

	ref, err := w.sheets.Append(ctx, record)
	if err != nil {
		return fmt.Errorf("append record to sheet: %w", err)
	}

	slog.InfoContext(ctx, "Record exported to sheet",
		"record_id", msg.RecordID,
		"project", record.ProjectName,
		"row_ref", ref)

	return nil
}
