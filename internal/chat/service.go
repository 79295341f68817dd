// Package chat orchestrates the conversation loop: interpret a message,
// dispatch each extracted intent, and compose the reply.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"expense-chat/internal/interpreter"
	"expense-chat/internal/logger"
	"expense-chat/internal/models"
	"expense-chat/internal/repository"
)

// maxRowsInReply caps how many result rows one reply lists.
const maxRowsInReply = 10

// highSpendThreshold triggers the daily-spend notice after adding expenses.
var highSpendThreshold = decimal.NewFromInt(2000)

// Interpreter extracts structured intents from free text.
type Interpreter interface {
	Interpret(ctx context.Context, text string, convo interpreter.Context) ([]interpreter.Intent, error)
}

// ExpenseStore is the slice of the expense repository the chat loop needs.
type ExpenseStore interface {
	Create(ctx context.Context, expense *models.Expense) error
	ScopedQuery(ctx context.Context, userID int64, sql string) (*repository.ScopedResult, error)
	SummaryByPeriod(ctx context.Context, userID int64, period string) (decimal.Decimal, error)
}

// Service handles one chat message end to end.
type Service struct {
	interpreter Interpreter
	expenses    ExpenseStore
	currency    string

	messagesHandled metric.Int64Counter
	expensesAdded   metric.Int64Counter
}

// NewService creates a chat Service. currency is the symbol prefixed to
// amounts in replies.
func NewService(intp Interpreter, expenses ExpenseStore, currency string) *Service {
	if currency == "" {
		currency = models.DefaultCurrency
	}

	meter := otel.Meter("expense-chat/chat")
	messagesHandled, _ := meter.Int64Counter("chat.messages_handled",
		metric.WithDescription("Chat messages processed"))
	expensesAdded, _ := meter.Int64Counter("chat.expenses_added",
		metric.WithDescription("Expenses recorded through chat"))

	return &Service{
		interpreter:     intp,
		expenses:        expenses,
		currency:        currency,
		messagesHandled: messagesHandled,
		expensesAdded:   expensesAdded,
	}
}

// HandleMessage interprets text and applies every extracted intent. Intents
// are dispatched independently: a failing insert or query produces an error
// line in the reply but never rolls back earlier intents. Only interpreter
// failure aborts the whole message.
func (s *Service) HandleMessage(ctx context.Context, user *models.PublicUser, text string, recentMessages []string) (string, error) {
	s.messagesHandled.Add(ctx, 1)

	intents, err := s.interpreter.Interpret(ctx, text, interpreter.Context{
		FullName:       user.FullName,
		Username:       user.Username,
		RecentMessages: recentMessages,
	})
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user_hash", logger.HashUserID(user.ID)).
			Msg("Chat: intent extraction failed")
		return "", err
	}

	var replies []string
	addedExpense := false

	for _, intent := range intents {
		switch intent.Kind {
		case interpreter.IntentAddExpense:
			line, ok := s.handleAddExpense(ctx, user.ID, intent)
			replies = append(replies, line)
			addedExpense = addedExpense || ok

		case interpreter.IntentQueryExpense:
			replies = append(replies, s.handleQueryExpense(ctx, user.ID, intent)...)

		case interpreter.IntentGeneralQuery:
			replies = append(replies, s.handleGeneralQuery(ctx, user.ID, intent)...)

		default:
			replies = append(replies, "I'm not sure how to help with that. Try asking about expenses or spending patterns!")
		}
	}

	if addedExpense {
		replies = append(replies, s.spendingNotices(ctx, user.ID)...)
	}

	return strings.Join(replies, "\n\n"), nil
}

// handleAddExpense inserts one expense and returns the reply line. ok
// reports whether the insert succeeded.
func (s *Service) handleAddExpense(ctx context.Context, userID int64, intent interpreter.Intent) (string, bool) {
	expense := &models.Expense{
		UserID:      userID,
		Amount:      intent.Amount,
		Category:    intent.Category,
		Description: intent.Description,
		Date:        intent.Date,
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		logger.Log.Warn().Err(err).
			Str("user_hash", logger.HashUserID(userID)).
			Msg("Chat: failed to add expense")
		return fmt.Sprintf("Could not add that expense: %v", err), false
	}

	s.expensesAdded.Add(ctx, 1)
	return fmt.Sprintf("Added: %s for %s - %s",
		s.amount(expense.Amount), expense.Category, expense.Description), true
}

// handleQueryExpense runs one scoped query and formats its result. A single
// scalar renders as a total; row sets are listed, capped at maxRowsInReply.
func (s *Service) handleQueryExpense(ctx context.Context, userID int64, intent interpreter.Intent) []string {
	result, err := s.expenses.ScopedQuery(ctx, userID, intent.Query)
	if err != nil {
		var qerr *repository.QueryError
		if errors.As(err, &qerr) {
			return []string{fmt.Sprintf("Query error: %v", qerr.Err)}
		}
		return []string{fmt.Sprintf("Query error: %v", err)}
	}

	if len(result.Rows) == 0 {
		return []string{"No records found for your query."}
	}

	if len(result.Rows) == 1 && len(result.Rows[0]) == 1 {
		return []string{fmt.Sprintf("Result: %s", s.scalar(result.Rows[0][0]))}
	}

	lines := []string{fmt.Sprintf("Found %d records:", len(result.Rows))}
	for _, row := range result.Rows[:min(len(result.Rows), maxRowsInReply)] {
		lines = append(lines, s.rowLine(row))
	}
	return lines
}

// handleGeneralQuery runs a category analysis (avg/total/count).
func (s *Service) handleGeneralQuery(ctx context.Context, userID int64, intent interpreter.Intent) []string {
	if intent.AnalysisType != "category_analysis" || intent.Query == "" {
		return []string{"I'm not sure how to help with that. Try asking about expenses or spending patterns!"}
	}

	result, err := s.expenses.ScopedQuery(ctx, userID, intent.Query)
	if err != nil || len(result.Rows) == 0 || len(result.Rows[0]) < 3 {
		return []string{"Unable to analyze that category."}
	}

	row := result.Rows[0]
	cat := intent.Category
	if cat == "" {
		cat = "that category"
	}

	return []string{
		fmt.Sprintf("%s analysis:", strings.ToUpper(cat[:1])+cat[1:]),
		fmt.Sprintf("Total this month: %s", s.scalar(row[1])),
		fmt.Sprintf("Average per transaction: %s", s.scalar(row[0])),
		fmt.Sprintf("Number of transactions: %v", row[2]),
	}
}

// spendingNotices appends contextual tips after expenses were added.
func (s *Service) spendingNotices(ctx context.Context, userID int64) []string {
	notices := []string{"Tip: you can add multiple expenses at once!"}

	todayTotal, err := s.expenses.SummaryByPeriod(ctx, userID, repository.PeriodToday)
	if err == nil && todayTotal.GreaterThan(highSpendThreshold) {
		notices = append(notices, "Notice: you've spent quite a bit today. Consider reviewing your budget!")
	}
	return notices
}

// rowLine formats one result row. Rows shaped like (amount, category,
// description, date) get the expense layout; anything else is generic.
func (s *Service) rowLine(row []any) string {
	if len(row) >= 4 {
		return fmt.Sprintf("- %s - %v (%v) on %v", s.scalar(row[0]), row[1], row[2], row[3])
	}

	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return "- " + strings.Join(parts, ", ")
}

// scalar renders one value, formatting decimals as currency amounts.
func (s *Service) scalar(v any) string {
	switch d := v.(type) {
	case decimal.Decimal:
		return s.amount(d)
	case nil:
		return s.amount(decimal.Zero)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (s *Service) amount(d decimal.Decimal) string {
	return s.currency + d.StringFixed(2)
}
