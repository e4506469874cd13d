package http

import (
	"fmt"
	"net/http"

	"kousu/internal/core"
	applog "kousu/internal/log"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Client      string `json:"client"`
	Description string `json:"description"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.records.CreateProject(r.Context(), req.Name, req.Client, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"project_id": id,
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.records.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if projects == nil {
		projects = []core.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

type createMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.records.CreateMember(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"member_id": id,
	})
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.records.ListMembers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if members == nil {
		members = []core.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

type upsertRecordRequest struct {
	ProjectID      int64      `json:"project_id"`
	MemberID       OptionalID `json:"member_id"`
	Year           int        `json:"year"`
	Month          int        `json:"month"`
	EstimatedHours float64    `json:"estimated_hours"`
	PlannedHours   float64    `json:"planned_hours"`
	ActualHours    float64    `json:"actual_hours"`
	Notes          string     `json:"notes"`
}

func (s *Server) handleUpsertRecord(w http.ResponseWriter, r *http.Request) {
	var req upsertRecordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := core.HourRecord{
		ProjectID:      req.ProjectID,
		MemberID:       req.MemberID.Value,
		Year:           req.Year,
		Month:          req.Month,
		EstimatedHours: req.EstimatedHours,
		PlannedHours:   req.PlannedHours,
		ActualHours:    req.ActualHours,
		Notes:          req.Notes,
	}

	if err := s.records.UpsertHourRecord(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}

	// Aggregates derive from records; drop every cached summary.
	s.summaryCache.Clear()

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	year, month := parseOptionalPeriod(r)

	records, err := s.records.QueryRecords(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []core.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRollupByProject(w http.ResponseWriter, r *http.Request) {
	year, month := parseOptionalPeriod(r)

	rollups, err := s.records.RollupByProject(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	if rollups == nil {
		rollups = []core.ProjectRollup{}
	}
	writeJSON(w, http.StatusOK, rollups)
}

func (s *Server) handleRollupByMember(w http.ResponseWriter, r *http.Request) {
	year, month := parseOptionalPeriod(r)

	rollups, err := s.records.RollupByMember(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	if rollups == nil {
		rollups = []core.MemberRollup{}
	}
	writeJSON(w, http.StatusOK, rollups)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month := parseOptionalPeriod(r)

	key := periodKey(year, month)
	if summary, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := s.records.SummaryByPeriod(r.Context(), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	if summary.Records == nil {
		summary.Records = []core.Record{}
	}

	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := s.records.ListPeriods(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if periods == nil {
		periods = []core.Period{}
	}
	writeJSON(w, http.StatusOK, periods)
}

type agentChatRequest struct {
	Message string `json:"message"`
	Year    *int   `json:"year"`
	Month   *int   `json:"month"`
}

func (s *Server) handleAgentChat(w http.ResponseWriter, r *http.Request) {
	var req agentChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	response, err := s.agent.Chat(r.Context(), req.Message, req.Year, req.Month)
	if err != nil {
		sl := applog.NewStructuredLogger(applog.FromContext(r.Context()))
		sl.LogError(r.Context(), "Agent chat failed", err, applog.ComponentAgent, applog.OpChat, applog.NewFields())
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"response": fmt.Sprintf("エラーが発生しました: %v", err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}
