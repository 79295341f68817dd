// Package models defines the domain entities for the expense assistant.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency preference assigned to new users.
const DefaultCurrency = "₹"

// DefaultTimezone is the timezone assigned to new users.
const DefaultTimezone = "Asia/Kolkata"

// User represents a registered account. PasswordHash and Salt never leave
// the auth layer.
type User struct {
	ID                 int64
	Username           string
	Email              string
	PasswordHash       string
	Salt               string
	FullName           string
	IsActive           bool
	CurrencyPreference string
	Timezone           string
	CreatedAt          time.Time
	LastLogin          *time.Time
}

// Public strips credential material for returning to callers.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		FullName:           u.FullName,
		CurrencyPreference: u.CurrencyPreference,
	}
}

// PublicUser is the profile shape exposed over the API.
type PublicUser struct {
	ID                 int64  `json:"id"`
	Username           string `json:"username"`
	Email              string `json:"email"`
	FullName           string `json:"full_name"`
	CurrencyPreference string `json:"currency_preference"`
}

// Session is a bearer login session. A session is valid iff IsActive and
// the current time is before ExpiresAt.
type Session struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	IsActive  bool
	IPAddress string
	UserAgent string
}

// Valid reports whether the session authenticates requests at instant now.
func (s *Session) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// Expense represents a single expense entry owned by exactly one user.
type Expense struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"-"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Date          string          `json:"date"` // calendar date, YYYY-MM-DD
	Location      string          `json:"location,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Tags          string          `json:"tags,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Category is one entry of the fixed expense vocabulary.
type Category struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Color       string           `json:"color"`
	Icon        string           `json:"icon"`
	BudgetLimit *decimal.Decimal `json:"budget_limit,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MonthlyBudget is a per-user spending target for a calendar month,
// optionally restricted to a single category.
type MonthlyBudget struct {
	ID       int64           `json:"id"`
	UserID   int64           `json:"-"`
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// UserStats summarizes an account for the profile page.
type UserStats struct {
	Username         string          `json:"username"`
	FullName         string          `json:"full_name"`
	MemberSince      time.Time       `json:"member_since"`
	LastLogin        *time.Time      `json:"last_login"`
	TotalExpenses    int64           `json:"total_expenses"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	FirstExpenseDate string          `json:"first_expense_date,omitempty"`
}
