package server

import (
	"errors"
	"net/http"
	"strconv"

	"expense-chat/internal/models"
	"expense-chat/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *Server) handleRecentExpenses(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	limit := queryLimit(r, defaultListLimit)

	expenses, err := s.expenses.RecentByUser(r.Context(), user.ID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleSearchExpenses(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		respondError(w, http.StatusBadRequest, errors.New("q query parameter is required"))
		return
	}

	user := userFrom(r.Context())
	expenses, err := s.expenses.Search(r.Context(), user.ID, term, queryLimit(r, defaultListLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	period := queryPeriod(r)

	total, err := s.expenses.SummaryByPeriod(r.Context(), user.ID, period)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"period": period,
		"total":  total,
	})
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	period := queryPeriod(r)

	breakdown, err := s.expenses.CategoryBreakdown(r.Context(), user.ID, period, queryLimit(r, defaultListLimit))
	if err != nil {
		writeError(w, err)
		return
	}
	if breakdown == nil {
		breakdown = []repository.CategoryTotal{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"period":    period,
		"breakdown": breakdown,
	})
}

func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			respondError(w, http.StatusBadRequest, errors.New("days must be between 1 and 365"))
			return
		}
		days = parsed
	}

	totals, err := s.expenses.DailyTotals(r.Context(), user.ID, days)
	if err != nil {
		writeError(w, err)
		return
	}
	if totals == nil {
		totals = []repository.DailyTotal{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"days":   days,
		"totals": totals,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	trends, err := s.expenses.Trends(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"trends": trends})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	stats, err := s.accounts.Stats(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// queryLimit parses the limit query parameter, clamped to maxListLimit.
func queryLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return def
	}
	return min(limit, maxListLimit)
}

// queryPeriod parses the period query parameter, defaulting to the current
// month. Unknown values fall through to the store's all-time behavior.
func queryPeriod(r *http.Request) string {
	if period := r.URL.Query().Get("period"); period != "" {
		return period
	}
	return repository.PeriodCurrentMonth
}
