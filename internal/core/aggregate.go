package core

import "sort"

// The three aggregate shapes below are all re-derived from the same
// row-level record slice on every read instead of being maintained as
// separate materialized aggregates. Record volume is project-tracking
// scale, so recomputation is cheap and there is nothing to drift out of
// sync.

type (
	// Summary is the all-up view over a filtered record set. Records
	// carries the full joined rows the totals were computed from; the
	// chat context builder consumes it directly.
	Summary struct {
		TotalEstimated float64  `json:"total_estimated"`
		TotalPlanned   float64  `json:"total_planned"`
		TotalActual    float64  `json:"total_actual"`
		RecordCount    int      `json:"record_count"`
		Records        []Record `json:"records"`
	}

	// ProjectRollup groups records by project, collapsing member and
	// period differences into sums and distinct sets.
	ProjectRollup struct {
		ProjectID      int64    `json:"project_id"`
		ProjectName    string   `json:"project_name"`
		Client         string   `json:"client"`
		Periods        []string `json:"periods"`
		EstimatedHours float64  `json:"estimated_hours"`
		PlannedHours   float64  `json:"planned_hours"`
		ActualHours    float64  `json:"actual_hours"`
		Members        []string `json:"members"`
	}

	// MemberRollup groups records by (member-or-unassigned, year, month).
	// Unassigned records form their own group with nil member fields.
	MemberRollup struct {
		MemberID       *int64   `json:"member_id"`
		MemberName     *string  `json:"member_name"`
		Email          *string  `json:"email"`
		Year           int      `json:"year"`
		Month          int      `json:"month"`
		EstimatedHours float64  `json:"estimated_hours"`
		PlannedHours   float64  `json:"planned_hours"`
		ActualHours    float64  `json:"actual_hours"`
		Projects       []string `json:"projects"`
	}
)

// Summarize totals the three hour fields across all records. An empty
// slice yields zero totals and a zero count.
func Summarize(records []Record) Summary {
	s := Summary{Records: records, RecordCount: len(records)}
	for _, r := range records {
		s.TotalEstimated += r.EstimatedHours
		s.TotalPlanned += r.PlannedHours
		s.TotalActual += r.ActualHours
	}
	return s
}

// RollupByProject produces one row per project, ordered by project name.
// Member names are collected as a distinct sorted set; unassigned records
// contribute hours but no member entry.
func RollupByProject(records []Record) []ProjectRollup {
	type acc struct {
		rollup  ProjectRollup
		periods map[string]struct{}
		members map[string]struct{}
	}

	byProject := make(map[int64]*acc)
	for _, r := range records {
		a, ok := byProject[r.ProjectID]
		if !ok {
			a = &acc{
				rollup: ProjectRollup{
					ProjectID:   r.ProjectID,
					ProjectName: r.ProjectName,
					Client:      r.Client,
				},
				periods: make(map[string]struct{}),
				members: make(map[string]struct{}),
			}
			byProject[r.ProjectID] = a
		}
		a.rollup.EstimatedHours += r.EstimatedHours
		a.rollup.PlannedHours += r.PlannedHours
		a.rollup.ActualHours += r.ActualHours
		a.periods[Period{Year: r.Year, Month: r.Month}.Label()] = struct{}{}
		if r.MemberName != nil {
			a.members[*r.MemberName] = struct{}{}
		}
	}

	rollups := make([]ProjectRollup, 0, len(byProject))
	for _, a := range byProject {
		a.rollup.Periods = sortedKeys(a.periods)
		a.rollup.Members = sortedKeys(a.members)
		rollups = append(rollups, a.rollup)
	}
	sort.Slice(rollups, func(i, j int) bool {
		if rollups[i].ProjectName != rollups[j].ProjectName {
			return rollups[i].ProjectName < rollups[j].ProjectName
		}
		return rollups[i].ProjectID < rollups[j].ProjectID
	})
	return rollups
}

// RollupByMember produces one row per (member, year, month), with
// unassigned records kept as their own group. Rows are ordered year
// descending, month descending, then member name ascending with the
// unassigned group last.
func RollupByMember(records []Record) []MemberRollup {
	type key struct {
		member int64 // 0 = unassigned
		year   int
		month  int
	}
	type acc struct {
		rollup   MemberRollup
		projects map[string]struct{}
	}

	groups := make(map[key]*acc)
	for _, r := range records {
		k := key{year: r.Year, month: r.Month}
		if r.MemberID != nil {
			k.member = *r.MemberID
		}
		a, ok := groups[k]
		if !ok {
			a = &acc{
				rollup: MemberRollup{
					MemberID:   r.MemberID,
					MemberName: r.MemberName,
					Email:      r.MemberEmail,
					Year:       r.Year,
					Month:      r.Month,
				},
				projects: make(map[string]struct{}),
			}
			groups[k] = a
		}
		a.rollup.EstimatedHours += r.EstimatedHours
		a.rollup.PlannedHours += r.PlannedHours
		a.rollup.ActualHours += r.ActualHours
		a.projects[r.ProjectName] = struct{}{}
	}

	rollups := make([]MemberRollup, 0, len(groups))
	for _, a := range groups {
		a.rollup.Projects = sortedKeys(a.projects)
		rollups = append(rollups, a.rollup)
	}
	sort.Slice(rollups, func(i, j int) bool {
		a, b := rollups[i], rollups[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Month != b.Month {
			return a.Month > b.Month
		}
		// Unassigned sorts after every named member.
		switch {
		case a.MemberName == nil:
			return false
		case b.MemberName == nil:
			return true
		default:
			return *a.MemberName < *b.MemberName
		}
	})
	return rollups
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
