package http

import (
	"net/http"

	"finledger/internal/core"
	applog "finledger/internal/log"
	"finledger/internal/services"
)

type summaryResponse struct {
	Month string `json:"month"`
	services.MonthSummary
}

type budgetResponse struct {
	Month string                 `json:"month"`
	Lines []services.BudgetLine `json:"lines"`
	// OverCap lists the keys at or past their cap when warnings are on.
	OverCap []string `json:"overCap"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	key := monthKey(now)

	gen := s.dashboard.current()
	summary, hit := s.dashboard.summaries.Get(key)
	if !hit {
		summary = s.app.Aggregator.MonthSummary(r.Context(), now)
		s.dashboard.setSummary(gen, key, summary)
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Month summary served", "month", key, "cache_hit", hit)

	NewJSONResponse().Body(summaryResponse{Month: key, MonthSummary: summary}).Write(w)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()
	key := monthKey(now)

	gen := s.dashboard.current()
	lines, hit := s.dashboard.budgets.Get(key)
	if !hit {
		lines = s.app.Aggregator.BudgetProgress(ctx, now)
		s.dashboard.setBudget(gen, key, lines)
	}

	over := []string{}
	if s.app.Settings.Load(ctx).WarnOverCap == core.WarnOn {
		for _, l := range lines {
			if l.OverCap() {
				over = append(over, l.Key)
			}
		}
	}
	NewJSONResponse().Body(budgetResponse{Month: key, Lines: lines, OverCap: over}).Write(w)
}

func (s *Server) handleLastSevenDays(w http.ResponseWriter, r *http.Request) {
	days := s.app.Aggregator.LastSevenDays(r.Context(), s.now())
	NewJSONResponse().Body(map[string]any{"days": days}).Write(w)
}
