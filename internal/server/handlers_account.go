package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"expense-chat/internal/auth"
	"expense-chat/internal/models"
	"expense-chat/internal/repository"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"user": userFrom(r.Context())})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName           *string `json:"full_name"`
		Email              *string `json:"email"`
		CurrencyPreference *string `json:"currency_preference"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Email != nil {
		if err := auth.ValidateEmail(*req.Email); err != nil {
			writeError(w, err)
			return
		}
	}

	user := userFrom(r.Context())
	err := s.accounts.UpdateProfile(r.Context(), user.ID, repository.ProfileUpdate{
		FullName:           req.FullName,
		Email:              req.Email,
		CurrencyPreference: req.CurrencyPreference,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	prefs, err := s.preferences.GetAll(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"preferences": prefs})
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(req) == 0 {
		respondError(w, http.StatusBadRequest, errors.New("at least one preference is required"))
		return
	}

	user := userFrom(r.Context())
	for key, value := range req {
		if key == "" {
			respondError(w, http.StatusBadRequest, errors.New("preference keys must not be empty"))
			return
		}
		if err := s.preferences.Set(r.Context(), user.ID, key, value); err != nil {
			writeError(w, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handleGetBudgets(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := parseIntInRange(raw, 2000, 2100)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("year must be a valid calendar year"))
			return
		}
		year = parsed
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := parseIntInRange(raw, 1, 12)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("month must be between 1 and 12"))
			return
		}
		month = parsed
	}

	statuses, err := s.budgets.StatusForMonth(r.Context(), user.ID, year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	if statuses == nil {
		statuses = []repository.BudgetStatus{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"year":    year,
		"month":   month,
		"budgets": statuses,
	})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Year     int    `json:"year"`
		Month    int    `json:"month"`
		Category string `json:"category"`
		Amount   string `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Year < 2000 || req.Year > 2100 || req.Month < 1 || req.Month > 12 {
		respondError(w, http.StatusBadRequest, errors.New("year and month must name a valid calendar month"))
		return
	}

	amount, err := decimalFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		respondError(w, http.StatusBadRequest, errors.New("amount must be a positive number"))
		return
	}

	user := userFrom(r.Context())
	budget := &models.MonthlyBudget{
		UserID:   user.ID,
		Year:     req.Year,
		Month:    req.Month,
		Category: req.Category,
		Amount:   amount,
	}
	if err := s.budgets.Upsert(r.Context(), budget); err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"budget": budget})
}

func parseIntInRange(raw string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("value %d out of range [%d, %d]", v, lo, hi)
	}
	return v, nil
}

func decimalFromString(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, errors.New("amount is required")
	}
	return decimal.NewFromString(raw)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": categories})
}
