package core

import (
	"math"
	"reflect"
	"testing"
)

func memberRecord(project int64, projectName string, member int64, memberName string, year, month int, est, plan, act float64) Record {
	return Record{
		ProjectID:      project,
		ProjectName:    projectName,
		MemberID:       &member,
		MemberName:     &memberName,
		Year:           year,
		Month:          month,
		EstimatedHours: est,
		PlannedHours:   plan,
		ActualHours:    act,
	}
}

func projectRecord(project int64, projectName string, year, month int, est, plan, act float64) Record {
	return Record{
		ProjectID:      project,
		ProjectName:    projectName,
		Year:           year,
		Month:          month,
		EstimatedHours: est,
		PlannedHours:   plan,
		ActualHours:    act,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarize(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Summarize(nil)
		if s.TotalEstimated != 0 || s.TotalPlanned != 0 || s.TotalActual != 0 || s.RecordCount != 0 {
			t.Errorf("Summarize(nil) = %+v, want zero totals", s)
		}
	})

	t.Run("totals across records", func(t *testing.T) {
		records := []Record{
			memberRecord(1, "Website Redesign", 1, "Alice", 2024, 5, 40, 35, 42),
			projectRecord(2, "Maintenance", 2024, 5, 10, 8, 6.5),
		}

		s := Summarize(records)

		if !almostEqual(s.TotalEstimated, 50) {
			t.Errorf("TotalEstimated = %v, want 50", s.TotalEstimated)
		}
		if !almostEqual(s.TotalPlanned, 43) {
			t.Errorf("TotalPlanned = %v, want 43", s.TotalPlanned)
		}
		if !almostEqual(s.TotalActual, 48.5) {
			t.Errorf("TotalActual = %v, want 48.5", s.TotalActual)
		}
		if s.RecordCount != 2 {
			t.Errorf("RecordCount = %d, want 2", s.RecordCount)
		}
		if len(s.Records) != 2 {
			t.Errorf("len(Records) = %d, want 2", len(s.Records))
		}
	})
}

func TestRollupByProject(t *testing.T) {
	records := []Record{
		memberRecord(1, "Website Redesign", 1, "Alice", 2024, 5, 40, 35, 42),
		memberRecord(1, "Website Redesign", 2, "Bob", 2024, 6, 20, 20, 18),
		projectRecord(1, "Website Redesign", 2024, 5, 5, 5, 4),
		memberRecord(2, "App Development", 1, "Alice", 2024, 5, 30, 30, 31),
	}

	rollups := RollupByProject(records)

	if len(rollups) != 2 {
		t.Fatalf("len(rollups) = %d, want 2", len(rollups))
	}

	// Ordered by project name
	if rollups[0].ProjectName != "App Development" || rollups[1].ProjectName != "Website Redesign" {
		t.Errorf("rollup order = %q, %q; want name ascending", rollups[0].ProjectName, rollups[1].ProjectName)
	}

	web := rollups[1]
	if !almostEqual(web.EstimatedHours, 65) || !almostEqual(web.PlannedHours, 60) || !almostEqual(web.ActualHours, 64) {
		t.Errorf("web totals = %v/%v/%v, want 65/60/64", web.EstimatedHours, web.PlannedHours, web.ActualHours)
	}
	if !reflect.DeepEqual(web.Periods, []string{"2024-05", "2024-06"}) {
		t.Errorf("web.Periods = %v, want [2024-05 2024-06]", web.Periods)
	}
	// Unassigned record contributes hours but no member entry
	if !reflect.DeepEqual(web.Members, []string{"Alice", "Bob"}) {
		t.Errorf("web.Members = %v, want [Alice Bob]", web.Members)
	}
}

// Per-project sums must equal a summary over that project's records alone.
func TestRollupByProject_MatchesFilteredSummary(t *testing.T) {
	records := []Record{
		memberRecord(1, "A", 1, "Alice", 2024, 1, 10, 11, 12),
		memberRecord(1, "A", 2, "Bob", 2024, 2, 1, 2, 3),
		memberRecord(2, "B", 1, "Alice", 2024, 1, 7, 7, 7),
	}

	for _, rollup := range RollupByProject(records) {
		var filtered []Record
		for _, r := range records {
			if r.ProjectID == rollup.ProjectID {
				filtered = append(filtered, r)
			}
		}
		s := Summarize(filtered)
		if !almostEqual(rollup.EstimatedHours, s.TotalEstimated) ||
			!almostEqual(rollup.PlannedHours, s.TotalPlanned) ||
			!almostEqual(rollup.ActualHours, s.TotalActual) {
			t.Errorf("project %d rollup %v/%v/%v, want %v/%v/%v",
				rollup.ProjectID,
				rollup.EstimatedHours, rollup.PlannedHours, rollup.ActualHours,
				s.TotalEstimated, s.TotalPlanned, s.TotalActual)
		}
	}
}

func TestRollupByMember(t *testing.T) {
	records := []Record{
		memberRecord(1, "Website Redesign", 1, "Alice", 2024, 5, 40, 35, 42),
		memberRecord(2, "App Development", 1, "Alice", 2024, 5, 30, 30, 31),
		memberRecord(1, "Website Redesign", 2, "Bob", 2024, 5, 20, 20, 18),
		projectRecord(1, "Website Redesign", 2024, 5, 5, 5, 4),
		memberRecord(1, "Website Redesign", 1, "Alice", 2024, 4, 10, 10, 9),
	}

	rollups := RollupByMember(records)

	if len(rollups) != 4 {
		t.Fatalf("len(rollups) = %d, want 4", len(rollups))
	}

	// 2024-05 first (period descending), members name ascending, unassigned last
	if rollups[0].MemberName == nil || *rollups[0].MemberName != "Alice" {
		t.Errorf("rollups[0] = %+v, want Alice", rollups[0])
	}
	if rollups[1].MemberName == nil || *rollups[1].MemberName != "Bob" {
		t.Errorf("rollups[1] = %+v, want Bob", rollups[1])
	}
	if rollups[2].MemberName != nil {
		t.Errorf("rollups[2] = %+v, want unassigned group", rollups[2])
	}
	if rollups[3].Year != 2024 || rollups[3].Month != 4 {
		t.Errorf("rollups[3] period = %d-%d, want 2024-4", rollups[3].Year, rollups[3].Month)
	}

	// Alice's 2024-05 group merges both projects
	alice := rollups[0]
	if !almostEqual(alice.EstimatedHours, 70) || !almostEqual(alice.ActualHours, 73) {
		t.Errorf("alice totals = %v/%v, want 70/73", alice.EstimatedHours, alice.ActualHours)
	}
	if !reflect.DeepEqual(alice.Projects, []string{"App Development", "Website Redesign"}) {
		t.Errorf("alice.Projects = %v", alice.Projects)
	}

	// Unassigned group keeps nil identity
	unassigned := rollups[2]
	if unassigned.MemberID != nil || unassigned.Email != nil {
		t.Errorf("unassigned group carries member identity: %+v", unassigned)
	}
	if !almostEqual(unassigned.ActualHours, 4) {
		t.Errorf("unassigned.ActualHours = %v, want 4", unassigned.ActualHours)
	}
}

// The all-time summary must equal the sum over every per-period summary.
func TestSummarize_AllTimeEqualsPeriodSums(t *testing.T) {
	records := []Record{
		memberRecord(1, "A", 1, "Alice", 2023, 12, 8, 8, 8),
		memberRecord(1, "A", 1, "Alice", 2024, 1, 10, 11, 12),
		projectRecord(2, "B", 2024, 1, 4, 4, 5),
		memberRecord(2, "B", 2, "Bob", 2024, 2, 6, 6, 6),
	}

	all := Summarize(records)

	byPeriod := make(map[Period][]Record)
	for _, r := range records {
		p := Period{Year: r.Year, Month: r.Month}
		byPeriod[p] = append(byPeriod[p], r)
	}

	var est, plan, act float64
	count := 0
	for _, group := range byPeriod {
		s := Summarize(group)
		est += s.TotalEstimated
		plan += s.TotalPlanned
		act += s.TotalActual
		count += s.RecordCount
	}

	if !almostEqual(all.TotalEstimated, est) || !almostEqual(all.TotalPlanned, plan) || !almostEqual(all.TotalActual, act) {
		t.Errorf("all-time totals %v/%v/%v, period sums %v/%v/%v",
			all.TotalEstimated, all.TotalPlanned, all.TotalActual, est, plan, act)
	}
	if all.RecordCount != count {
		t.Errorf("all-time count %d, period sum %d", all.RecordCount, count)
	}
}
