// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"expense-chat/internal/auth"
	"expense-chat/internal/models"
	"expense-chat/internal/repository"
)

// AuthService is the credential and session surface the handlers need.
type AuthService interface {
	Register(ctx context.Context, username, email, password, fullName string) (*models.PublicUser, error)
	Authenticate(ctx context.Context, identifier, password string) (*models.PublicUser, error)
	CreateSession(ctx context.Context, userID int64, meta auth.SessionMeta) (string, error)
	ValidateSession(ctx context.Context, token string) (*models.PublicUser, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, userID int64, current, newPassword string) error
}

// ChatService handles one conversational message.
type ChatService interface {
	HandleMessage(ctx context.Context, user *models.PublicUser, text string, recentMessages []string) (string, error)
}

// ExpenseReader is the read-side of the expense store.
type ExpenseReader interface {
	RecentByUser(ctx context.Context, userID int64, limit int) ([]models.Expense, error)
	Search(ctx context.Context, userID int64, term string, limit int) ([]models.Expense, error)
	SummaryByPeriod(ctx context.Context, userID int64, period string) (decimal.Decimal, error)
	CategoryBreakdown(ctx context.Context, userID int64, period string, limit int) ([]repository.CategoryTotal, error)
	DailyTotals(ctx context.Context, userID int64, days int) ([]repository.DailyTotal, error)
	Trends(ctx context.Context, userID int64) (*repository.SpendingTrends, error)
}

// AccountStore covers profile and stats operations.
type AccountStore interface {
	Stats(ctx context.Context, id int64) (*models.UserStats, error)
	UpdateProfile(ctx context.Context, id int64, upd repository.ProfileUpdate) error
}

// PreferenceStore is the per-user key/value preference surface.
type PreferenceStore interface {
	GetAll(ctx context.Context, userID int64) (map[string]string, error)
	Set(ctx context.Context, userID int64, key, value string) error
}

// BudgetStore covers monthly budget operations.
type BudgetStore interface {
	Upsert(ctx context.Context, budget *models.MonthlyBudget) error
	StatusForMonth(ctx context.Context, userID int64, year, month int) ([]repository.BudgetStatus, error)
}

// CategoryStore lists the expense vocabulary.
type CategoryStore interface {
	GetAll(ctx context.Context) ([]models.Category, error)
}

// Server wires the HTTP surface to the application services.
type Server struct {
	auth        AuthService
	chat        ChatService
	expenses    ExpenseReader
	accounts    AccountStore
	preferences PreferenceStore
	budgets     BudgetStore
	categories  CategoryStore
}

// Deps carries the collaborators a Server needs.
type Deps struct {
	Auth        AuthService
	Chat        ChatService
	Expenses    ExpenseReader
	Accounts    AccountStore
	Preferences PreferenceStore
	Budgets     BudgetStore
	Categories  CategoryStore
}

// New creates a Server.
func New(deps Deps) *Server {
	return &Server{
		auth:        deps.Auth,
		chat:        deps.Chat,
		expenses:    deps.Expenses,
		accounts:    deps.Accounts,
		preferences: deps.Preferences,
		budgets:     deps.Budgets,
		categories:  deps.Categories,
	}
}

// Routes constructs the router containing all API endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/logout", s.handleLogout)
			r.Get("/auth/session", s.handleSession)
			r.Post("/auth/password", s.handleChangePassword)

			r.Post("/chat", s.handleChat)

			r.Get("/expenses/recent", s.handleRecentExpenses)
			r.Get("/expenses/search", s.handleSearchExpenses)
			r.Get("/summary", s.handleSummary)
			r.Get("/breakdown", s.handleBreakdown)
			r.Get("/analytics/daily", s.handleDailyTotals)
			r.Get("/analytics/trends", s.handleTrends)
			r.Get("/stats", s.handleStats)

			r.Get("/profile", s.handleGetProfile)
			r.Put("/profile", s.handleUpdateProfile)
			r.Get("/preferences", s.handleGetPreferences)
			r.Put("/preferences", s.handleSetPreferences)
			r.Get("/budgets", s.handleGetBudgets)
			r.Put("/budgets", s.handleSetBudget)
			r.Get("/categories", s.handleCategories)
		})
	})

	return otelhttp.NewHandler(r, "expense-chat.http")
}
