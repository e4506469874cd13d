package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"kousu/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return repo
}

func intPtr64(v int64) *int64 { return &v }

func TestCreateProject(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.CreateProject(ctx, "Website Redesign", "Acme Corp", "full redesign")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if id == 0 {
		t.Error("CreateProject() id = 0, want non-zero")
	}

	// Duplicate names are allowed for projects
	id2, err := repo.CreateProject(ctx, "Website Redesign", "", "")
	if err != nil {
		t.Fatalf("CreateProject() duplicate name error = %v", err)
	}
	if id2 == id {
		t.Error("CreateProject() reused id for a new project")
	}

	if _, err := repo.CreateProject(ctx, "  ", "", ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("CreateProject() blank name error = %v, want ErrValidation", err)
	}

	projects, err := repo.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("ListProjects() len = %d, want 2", len(projects))
	}
	// Newest first
	if projects[0].ID != id2 {
		t.Errorf("ListProjects()[0].ID = %d, want %d (newest first)", projects[0].ID, id2)
	}
	if projects[1].Client != "Acme Corp" || projects[1].Description != "full redesign" {
		t.Errorf("ListProjects()[1] = %+v, want stored client/description", projects[1])
	}
}

func TestCreateMember_IdempotentByName(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id1, err := repo.CreateMember(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("CreateMember() error = %v", err)
	}

	// Same name again returns the existing id; the stored email stays
	id2, err := repo.CreateMember(ctx, "Alice", "other@example.com")
	if err != nil {
		t.Fatalf("CreateMember() repeat error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("CreateMember() ids = %d, %d; want identical for same name", id1, id2)
	}

	members, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("ListMembers() len = %d, want 1", len(members))
	}
	if members[0].Email != "alice@example.com" {
		t.Errorf("ListMembers()[0].Email = %q, want first write kept", members[0].Email)
	}

	if _, err := repo.CreateMember(ctx, "", ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("CreateMember() blank name error = %v, want ErrValidation", err)
	}
}

func TestListMembers_SortedByName(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, name := range []string{"Charlie", "Alice", "Bob"} {
		if _, err := repo.CreateMember(ctx, name, ""); err != nil {
			t.Fatalf("CreateMember(%q) error = %v", name, err)
		}
	}

	members, err := repo.ListMembers(ctx)
	if err != nil {
		t.Fatalf("ListMembers() error = %v", err)
	}
	var names []string
	for _, m := range members {
		names = append(names, m.Name)
	}
	want := []string{"Alice", "Bob", "Charlie"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ListMembers() names = %v, want %v", names, want)
		}
	}
}

func TestUpsertHourRecord(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	projectID, err := repo.CreateProject(ctx, "Website Redesign", "Acme Corp", "")
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	memberID, err := repo.CreateMember(ctx, "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("CreateMember() error = %v", err)
	}

	rec := core.HourRecord{
		ProjectID:      projectID,
		MemberID:       &memberID,
		Year:           2024,
		Month:          5,
		EstimatedHours: 40,
		PlannedHours:   35,
		ActualHours:    0,
		Notes:          "kickoff",
	}
	if err := repo.UpsertHourRecord(ctx, rec); err != nil {
		t.Fatalf("UpsertHourRecord() error = %v", err)
	}

	// Second write for the same key overwrites in place
	rec.ActualHours = 42
	rec.Notes = "done"
	if err := repo.UpsertHourRecord(ctx, rec); err != nil {
		t.Fatalf("UpsertHourRecord() second write error = %v", err)
	}

	records, err := repo.QueryRecords(ctx, nil, nil)
	if err != nil {
		t.Fatalf("QueryRecords() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("QueryRecords() len = %d, want 1 after double upsert", len(records))
	}
	got := records[0]
	if got.ActualHours != 42 || got.Notes != "done" {
		t.Errorf("record = %+v, want overwritten hours and notes", got)
	}
	if got.ProjectName != "Website Redesign" || got.Client != "Acme Corp" {
		t.Errorf("record join = %q/%q, want project fields", got.ProjectName, got.Client)
	}
	if got.MemberName == nil || *got.MemberName != "Alice" {
		t.Errorf("record.MemberName = %v, want Alice", got.MemberName)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestUpsertHourRecord_UnassignedAndMemberCoexist(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	projectID, _ := repo.CreateProject(ctx, "App Development", "", "")
	memberID, _ := repo.CreateMember(ctx, "Bob", "")

	base := core.HourRecord{ProjectID: projectID, Year: 2024, Month: 6, EstimatedHours: 10}
	if err := repo.UpsertHourRecord(ctx, base); err != nil {
		t.Fatalf("UpsertHourRecord() unassigned error = %v", err)
	}

	assigned := base
	assigned.MemberID = &memberID
	if err := repo.UpsertHourRecord(ctx, assigned); err != nil {
		t.Fatalf("UpsertHourRecord() assigned error = %v", err)
	}

	records, err := repo.QueryRecords(ctx, nil, nil)
	if err != nil {
		t.Fatalf("QueryRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("QueryRecords() len = %d, want unassigned and assigned rows to coexist", len(records))
	}

	// Named member sorts before the unassigned row
	if records[0].MemberID == nil {
		t.Error("QueryRecords() unassigned row sorted before member row")
	}
	if records[1].MemberID != nil {
		t.Error("QueryRecords() member row sorted last, want unassigned last")
	}

	// A second unassigned write targets the unassigned row only
	base.EstimatedHours = 99
	if err := repo.UpsertHourRecord(ctx, base); err != nil {
		t.Fatalf("UpsertHourRecord() unassigned overwrite error = %v", err)
	}
	records, _ = repo.QueryRecords(ctx, nil, nil)
	if len(records) != 2 {
		t.Fatalf("QueryRecords() len = %d after overwrite, want 2", len(records))
	}
	if records[1].EstimatedHours != 99 {
		t.Errorf("unassigned row EstimatedHours = %v, want 99", records[1].EstimatedHours)
	}
	if records[0].EstimatedHours != 10 {
		t.Errorf("member row EstimatedHours = %v, want untouched 10", records[0].EstimatedHours)
	}
}

func TestUpsertHourRecord_Rejections(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	projectID, _ := repo.CreateProject(ctx, "P", "", "")

	tests := []struct {
		name    string
		rec     core.HourRecord
		wantErr error
	}{
		{
			"unknown project",
			core.HourRecord{ProjectID: 9999, Year: 2024, Month: 1},
			core.ErrNotFound,
		},
		{
			"unknown member",
			core.HourRecord{ProjectID: projectID, MemberID: intPtr64(9999), Year: 2024, Month: 1},
			core.ErrNotFound,
		},
		{
			"bad month",
			core.HourRecord{ProjectID: projectID, Year: 2024, Month: 13},
			core.ErrValidation,
		},
		{
			"negative hours",
			core.HourRecord{ProjectID: projectID, Year: 2024, Month: 1, ActualHours: -1},
			core.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.UpsertHourRecord(ctx, tt.rec); !errors.Is(err, tt.wantErr) {
				t.Errorf("UpsertHourRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueryRecords_PeriodFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	projectID, _ := repo.CreateProject(ctx, "P", "", "")

	for _, p := range []struct{ year, month int }{
		{2023, 12}, {2024, 1}, {2024, 2},
	} {
		rec := core.HourRecord{ProjectID: projectID, Year: p.year, Month: p.month, ActualHours: 1}
		if err := repo.UpsertHourRecord(ctx, rec); err != nil {
			t.Fatalf("UpsertHourRecord(%d-%d) error = %v", p.year, p.month, err)
		}
	}

	year := 2024
	month := 1

	all, err := repo.QueryRecords(ctx, nil, nil)
	if err != nil {
		t.Fatalf("QueryRecords(nil, nil) error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("QueryRecords(nil, nil) len = %d, want 3", len(all))
	}
	// Newest period first
	if all[0].Year != 2024 || all[0].Month != 2 {
		t.Errorf("QueryRecords()[0] period = %d-%d, want 2024-2", all[0].Year, all[0].Month)
	}

	byYear, err := repo.QueryRecords(ctx, &year, nil)
	if err != nil {
		t.Fatalf("QueryRecords(year, nil) error = %v", err)
	}
	if len(byYear) != 2 {
		t.Errorf("QueryRecords(year, nil) len = %d, want 2", len(byYear))
	}

	byMonth, err := repo.QueryRecords(ctx, &year, &month)
	if err != nil {
		t.Fatalf("QueryRecords(year, month) error = %v", err)
	}
	if len(byMonth) != 1 || byMonth[0].Month != 1 {
		t.Errorf("QueryRecords(year, month) = %+v, want single 2024-1 row", byMonth)
	}

	// Month without year is ignored
	orphanMonth := 12
	monthOnly, err := repo.QueryRecords(ctx, nil, &orphanMonth)
	if err != nil {
		t.Fatalf("QueryRecords(nil, month) error = %v", err)
	}
	if len(monthOnly) != 3 {
		t.Errorf("QueryRecords(nil, month) len = %d, want all 3", len(monthOnly))
	}
}

func TestGetRecordAndRecordID(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	projectID, _ := repo.CreateProject(ctx, "P", "C", "")
	memberID, _ := repo.CreateMember(ctx, "Alice", "alice@example.com")

	rec := core.HourRecord{ProjectID: projectID, MemberID: &memberID, Year: 2024, Month: 5, ActualHours: 7.5}
	if err := repo.UpsertHourRecord(ctx, rec); err != nil {
		t.Fatalf("UpsertHourRecord() error = %v", err)
	}

	id, err := repo.RecordID(ctx, projectID, &memberID, 2024, 5)
	if err != nil {
		t.Fatalf("RecordID() error = %v", err)
	}

	got, err := repo.GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if got.ActualHours != 7.5 || got.ProjectName != "P" {
		t.Errorf("GetRecord() = %+v, want stored record", got)
	}
	if got.MemberEmail == nil || *got.MemberEmail != "alice@example.com" {
		t.Errorf("GetRecord().MemberEmail = %v, want alice@example.com", got.MemberEmail)
	}

	if _, err := repo.GetRecord(ctx, 99999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetRecord(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := repo.RecordID(ctx, projectID, nil, 2024, 5); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("RecordID(unassigned key) error = %v, want ErrNotFound", err)
	}
}

func TestListPeriods(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	projectID, _ := repo.CreateProject(ctx, "P", "", "")
	memberID, _ := repo.CreateMember(ctx, "Alice", "")

	// Two records in the same period collapse to one entry
	for _, rec := range []core.HourRecord{
		{ProjectID: projectID, Year: 2024, Month: 1},
		{ProjectID: projectID, MemberID: &memberID, Year: 2024, Month: 1},
		{ProjectID: projectID, Year: 2023, Month: 12},
		{ProjectID: projectID, Year: 2024, Month: 3},
	} {
		if err := repo.UpsertHourRecord(ctx, rec); err != nil {
			t.Fatalf("UpsertHourRecord() error = %v", err)
		}
	}

	periods, err := repo.ListPeriods(ctx)
	if err != nil {
		t.Fatalf("ListPeriods() error = %v", err)
	}

	want := []core.Period{{Year: 2024, Month: 3}, {Year: 2024, Month: 1}, {Year: 2023, Month: 12}}
	if len(periods) != len(want) {
		t.Fatalf("ListPeriods() len = %d, want %d", len(periods), len(want))
	}
	for i := range want {
		if periods[i] != want[i] {
			t.Errorf("ListPeriods()[%d] = %+v, want %+v", i, periods[i], want[i])
		}
	}
}
