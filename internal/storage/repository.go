package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kousu/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the persistence and identity layer for projects, members
// and hour records, backed by SQLite.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateProject inserts a new project row. Every call creates a new row;
// project names are not unique.
func (r *Repository) CreateProject(ctx context.Context, name, client, description string) (int64, error) {
	p := core.Project{Name: name, Client: client, Description: description}
	if err := p.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (name, client, description, created_at) VALUES (?, ?, ?, ?)`,
		name, client, description, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("project id: %w", err)
	}

	slog.InfoContext(ctx, "Project created", "id", id, "name", name, "client", client)
	return id, nil
}

// CreateMember inserts a member, or returns the id of the existing row
// when the name is already taken. Name matching is exact and
// case-sensitive (BINARY collation).
func (r *Repository) CreateMember(ctx context.Context, name, email string) (int64, error) {
	m := core.Member{Name: name, Email: email}
	if err := m.Validate(); err != nil {
		return 0, err
	}

	// Insert-or-ignore plus lookup keeps the operation race-safe: two
	// concurrent calls for the same name both end up with the same id.
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO members (name, email, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		name, email, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("insert member: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT id FROM members WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup member id: %w", err)
	}

	slog.InfoContext(ctx, "Member resolved", "id", id, "name", name)
	return id, nil
}

// UpsertHourRecord writes the hour figures for one (project, member,
// year, month) key. An existing row for the key is overwritten in place;
// otherwise a new row is inserted. The write is a single INSERT ... ON
// CONFLICT statement, so concurrent upserts for the same key cannot
// produce duplicates.
func (r *Repository) UpsertHourRecord(ctx context.Context, rec core.HourRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	if err := r.checkProjectExists(ctx, rec.ProjectID); err != nil {
		return err
	}
	if rec.MemberID != nil {
		if err := r.checkMemberExists(ctx, *rec.MemberID); err != nil {
			return err
		}
	}

	// member_key collapses "no member" to 0 so the unique constraint
	// sees unassigned rows as one group.
	var memberKey int64
	if rec.MemberID != nil {
		memberKey = *rec.MemberID
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO hour_records
			(project_id, member_id, member_key, year, month,
			 estimated_hours, planned_hours, actual_hours, notes,
			 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, member_key, year, month) DO UPDATE SET
			estimated_hours = excluded.estimated_hours,
			planned_hours   = excluded.planned_hours,
			actual_hours    = excluded.actual_hours,
			notes           = excluded.notes,
			updated_at      = excluded.updated_at`,
		rec.ProjectID, rec.MemberID, memberKey, rec.Year, rec.Month,
		rec.EstimatedHours, rec.PlannedHours, rec.ActualHours, rec.Notes,
		now, now)
	if err != nil {
		return fmt.Errorf("upsert hour record: %w", err)
	}

	slog.InfoContext(ctx, "Hour record upserted",
		"project_id", rec.ProjectID,
		"member_key", memberKey,
		"year", rec.Year,
		"month", rec.Month,
		"actual_hours", rec.ActualHours)
	return nil
}

func (r *Repository) checkProjectExists(ctx context.Context, id int64) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: id %d", core.ErrProjectNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	return nil
}

func (r *Repository) checkMemberExists(ctx context.Context, id int64) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM members WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: id %d", core.ErrMemberNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("check member: %w", err)
	}
	return nil
}

// ListProjects returns all projects, most recently created first.
func (r *Repository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, client, description, created_at
		FROM projects
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []core.Project
	for rows.Next() {
		var p core.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Client, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListMembers returns all members ordered by name (case-sensitive).
func (r *Repository) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, created_at
		FROM members
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		var m core.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// QueryRecords returns joined hour records, optionally filtered by year
// and month. A nil year returns everything and makes month irrelevant;
// a year without month covers all twelve months of that year.
func (r *Repository) QueryRecords(ctx context.Context, year, month *int) ([]core.Record, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT k.id, k.project_id, k.member_id, k.year, k.month,
		       k.estimated_hours, k.planned_hours, k.actual_hours, k.notes,
		       k.created_at, k.updated_at,
		       p.name, p.client, m.name, m.email
		FROM hour_records k
		JOIN projects p ON k.project_id = p.id
		LEFT JOIN members m ON k.member_id = m.id`)

	var args []any
	if year != nil {
		sb.WriteString(" WHERE k.year = ?")
		args = append(args, *year)
		if month != nil {
			sb.WriteString(" AND k.month = ?")
			args = append(args, *month)
		}
	}
	// Unassigned rows sort after named members; the member_key term makes
	// that explicit instead of leaning on engine NULL ordering.
	sb.WriteString(`
		ORDER BY k.year DESC, k.month DESC, p.name ASC,
		         (k.member_key = 0) ASC, m.name ASC`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []core.Record
	for rows.Next() {
		var (
			rec         core.Record
			memberID    sql.NullInt64
			memberName  sql.NullString
			memberEmail sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.ProjectID, &memberID, &rec.Year, &rec.Month,
			&rec.EstimatedHours, &rec.PlannedHours, &rec.ActualHours, &rec.Notes,
			&rec.CreatedAt, &rec.UpdatedAt,
			&rec.ProjectName, &rec.Client, &memberName, &memberEmail,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if memberID.Valid {
			rec.MemberID = &memberID.Int64
		}
		if memberName.Valid {
			rec.MemberName = &memberName.String
		}
		if memberEmail.Valid {
			rec.MemberEmail = &memberEmail.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRecord returns a single joined record by id. Missing ids map to
// core.ErrNotFound.
func (r *Repository) GetRecord(ctx context.Context, id int64) (core.Record, error) {
	var (
		rec         core.Record
		memberID    sql.NullInt64
		memberName  sql.NullString
		memberEmail sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT k.id, k.project_id, k.member_id, k.year, k.month,
		       k.estimated_hours, k.planned_hours, k.actual_hours, k.notes,
		       k.created_at, k.updated_at,
		       p.name, p.client, m.name, m.email
		FROM hour_records k
		JOIN projects p ON k.project_id = p.id
		LEFT JOIN members m ON k.member_id = m.id
		WHERE k.id = ?`, id).Scan(
		&rec.ID, &rec.ProjectID, &memberID, &rec.Year, &rec.Month,
		&rec.EstimatedHours, &rec.PlannedHours, &rec.ActualHours, &rec.Notes,
		&rec.CreatedAt, &rec.UpdatedAt,
		&rec.ProjectName, &rec.Client, &memberName, &memberEmail)
	if err == sql.ErrNoRows {
		return core.Record{}, fmt.Errorf("hour record %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("get record: %w", err)
	}
	if memberID.Valid {
		rec.MemberID = &memberID.Int64
	}
	if memberName.Valid {
		rec.MemberName = &memberName.String
	}
	if memberEmail.Valid {
		rec.MemberEmail = &memberEmail.String
	}
	return rec, nil
}

// RecordID returns the row id for an upsert key, used by the service
// layer to reference the record in sync messages.
func (r *Repository) RecordID(ctx context.Context, projectID int64, memberID *int64, year, month int) (int64, error) {
	var memberKey int64
	if memberID != nil {
		memberKey = *memberID
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM hour_records
		WHERE project_id = ? AND member_key = ? AND year = ? AND month = ?`,
		projectID, memberKey, year, month).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("hour record for key: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("record id: %w", err)
	}
	return id, nil
}

// ListPeriods returns every (year, month) with at least one record,
// newest first.
func (r *Repository) ListPeriods(ctx context.Context) ([]core.Period, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT year, month
		FROM hour_records
		ORDER BY year DESC, month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	defer rows.Close()

	var periods []core.Period
	for rows.Next() {
		var p core.Period
		if err := rows.Scan(&p.Year, &p.Month); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}
