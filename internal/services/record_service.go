package services

import (
	"context"
	"fmt"
	"log/slog"

	"kousu/internal/amqp"
	"kousu/internal/core"
	"kousu/internal/storage"
)

// RecordService fronts the record store and the aggregation layer, and
// publishes sync events for the export worker when AMQP is configured.
type RecordService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
}

func NewRecordService(storage *storage.Repository, amqpClient *amqp.Client) *RecordService {
	return &RecordService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

func (s *RecordService) CreateProject(ctx context.Context, name, client, description string) (int64, error) {
	return s.storage.CreateProject(ctx, name, client, description)
}

func (s *RecordService) CreateMember(ctx context.Context, name, email string) (int64, error) {
	return s.storage.CreateMember(ctx, name, email)
}

func (s *RecordService) ListProjects(ctx context.Context) ([]core.Project, error) {
	return s.storage.ListProjects(ctx)
}

func (s *RecordService) ListMembers(ctx context.Context) ([]core.Member, error) {
	return s.storage.ListMembers(ctx)
}

func (s *RecordService) ListPeriods(ctx context.Context) ([]core.Period, error) {
	return s.storage.ListPeriods(ctx)
}

func (s *RecordService) QueryRecords(ctx context.Context, year, month *int) ([]core.Record, error) {
	return s.storage.QueryRecords(ctx, year, month)
}

// UpsertHourRecord writes the record and, when AMQP is available,
// publishes a sync event. Publish failures are logged and swallowed; the
// local write already succeeded.
func (s *RecordService) UpsertHourRecord(ctx context.Context, rec core.HourRecord) error {
	if err := s.storage.UpsertHourRecord(ctx, rec); err != nil {
		return fmt.Errorf("upsert hour record: %w", err)
	}

	if s.amqpClient == nil {
		return nil
	}

	id, err := s.storage.RecordID(ctx, rec.ProjectID, rec.MemberID, rec.Year, rec.Month)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to resolve record id for sync", "error", err)
		return nil
	}
	if err := s.amqpClient.PublishRecordSync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record sync message",
			"record_id", id, "error", err)
	}
	return nil
}

// SummaryByPeriod re-derives the all-up summary from row-level records.
func (s *RecordService) SummaryByPeriod(ctx context.Context, year, month *int) (core.Summary, error) {
	records, err := s.storage.QueryRecords(ctx, year, month)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary query: %w", err)
	}
	return core.Summarize(records), nil
}

// RollupByProject groups matching records by project.
func (s *RecordService) RollupByProject(ctx context.Context, year, month *int) ([]core.ProjectRollup, error) {
	records, err := s.storage.QueryRecords(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("project rollup query: %w", err)
	}
	return core.RollupByProject(records), nil
}

// RollupByMember groups matching records by (member, year, month).
func (s *RecordService) RollupByMember(ctx context.Context, year, month *int) ([]core.MemberRollup, error) {
	records, err := s.storage.QueryRecords(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("member rollup query: %w", err)
	}
	return core.RollupByMember(records), nil
}

// Close releases the storage and AMQP handles.
func (s *RecordService) Close() error {
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
		return fmt.Errorf("close record service: %v", errs)
	}

	return nil
}
