package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"expense-chat/internal/logger"
)

// Intent kinds the model may return.
const (
	IntentAddExpense   = "add_expense"
	IntentQueryExpense = "query_expense"
	IntentGeneralQuery = "general_query"
)

// MaxMessageLength caps user text embedded in the prompt.
const MaxMessageLength = 500

// apiTimeout bounds a single model call.
const apiTimeout = 30 * time.Second

// Intent is one structured action extracted from a chat message.
// A single message can produce several (e.g. three expenses at once).
type Intent struct {
	Kind         string          `json:"intent"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Date         string          `json:"date"`
	Query        string          `json:"query"`
	AnalysisType string          `json:"analysis_type"`
}

// Context carries conversational state embedded in the prompt.
type Context struct {
	FullName string
	Username string
	// RecentMessages holds the latest user messages, oldest first.
	RecentMessages []string
}

// Interpret extracts structured intents from a chat message. Transport
// failures, empty responses and unparseable output all return
// *ExternalServiceError.
func (c *Client) Interpret(ctx context.Context, text string, convo Context) ([]Intent, error) {
	if c.generator == nil {
		return nil, &ExternalServiceError{Op: "interpret", Err: fmt.Errorf("gemini client not initialized")}
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message text is required")
	}

	prompt := c.buildIntentPrompt(text, convo)

	logger.Log.Debug().
		Str("message", logger.SanitizeText(text)).
		Int("context_messages", len(convo.RecentMessages)).
		Msg("Interpret: sending prompt to Gemini")

	timeoutCtx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	temp := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(1000),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a JSON API. You MUST respond with ONLY valid JSON, no preamble or explanation. Output a JSON array of intent objects."},
			},
		},
		ResponseMIMEType: "application/json",
	}

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, contents, config)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Interpret: Gemini API call failed")
		return nil, &ExternalServiceError{Op: "generate", Err: err}
	}
	if resp == nil {
		return nil, &ExternalServiceError{Op: "generate", Err: fmt.Errorf("no response from Gemini")}
	}

	fullText := resp.Text()
	if fullText == "" {
		return nil, &ExternalServiceError{Op: "generate", Err: fmt.Errorf("no text content in response")}
	}

	intents, err := parseIntents(fullText)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Interpret: could not parse Gemini response")
		return nil, &ExternalServiceError{Op: "parse", Err: err}
	}

	logger.Log.Debug().
		Int("intent_count", len(intents)).
		Msg("Interpret: parsed intents")

	return intents, nil
}

// buildIntentPrompt assembles the extraction prompt: date context, the
// user's identity, recent conversation and few-shot examples.
func (c *Client) buildIntentPrompt(text string, convo Context) string {
	today := c.now()
	currentDate := today.Format("2006-01-02")
	yesterday := today.AddDate(0, 0, -1).Format("2006-01-02")
	currentMonth := today.Format("January 2006")

	var recentContext strings.Builder
	for _, msg := range convo.RecentMessages {
		recentContext.WriteString("User: ")
		recentContext.WriteString(SanitizeForPrompt(msg, MaxMessageLength))
		recentContext.WriteString("\n")
	}

	return fmt.Sprintf(`You are an expense management assistant with full context awareness.

CONTEXT INFORMATION:
- User: %s (@%s)
- Today's date: %s
- Yesterday's date: %s
- Current month: %s

RECENT CONVERSATION CONTEXT:
%s
CURRENT USER INPUT: %s

TASK: Extract structured JSON from the user input. Consider the conversation context.

SUPPORTED INTENTS:
1. add_expense - Adding new expenses
2. query_expense - Querying existing expenses
3. general_query - General financial questions/analysis

PARSING RULES:
- Handle relative dates: "yesterday", "last week", "this month", "2 days ago"
- Infer categories: "coffee" is "food", "uber" is "transportation"
- Queries must be PostgreSQL SELECT statements against the expenses table
  (columns: amount, category, description, date)
- Never filter by user in queries; scoping is applied by the system

EXAMPLES:

Input: "I grabbed coffee with Sarah yesterday for 350"
Output: [{"intent": "add_expense", "amount": 350, "category": "food", "description": "Coffee with Sarah", "date": "%s"}]

Input: "Spent 2000 on groceries, 500 on fuel, and 1200 eating out"
Output: [
    {"intent": "add_expense", "amount": 2000, "category": "groceries", "description": "Groceries", "date": "%s"},
    {"intent": "add_expense", "amount": 500, "category": "transportation", "description": "Fuel", "date": "%s"},
    {"intent": "add_expense", "amount": 1200, "category": "dining", "description": "Eating out", "date": "%s"}
]

Input: "How much have I spent on food this month?"
Output: [{"intent": "query_expense", "query": "SELECT SUM(amount) FROM expenses WHERE category IN ('food', 'groceries', 'dining') AND date_trunc('month', date) = date_trunc('month', CURRENT_DATE)", "description": "Total food spending this month"}]

Input: "Show me my biggest expenses this week"
Output: [{"intent": "query_expense", "query": "SELECT amount, category, description, date FROM expenses WHERE date >= CURRENT_DATE - INTERVAL '7 days' ORDER BY amount DESC LIMIT 5", "description": "Top expenses this week"}]

Input: "Am I overspending on entertainment?"
Output: [{"intent": "general_query", "analysis_type": "category_analysis", "category": "entertainment", "query": "SELECT AVG(amount) as avg_spending, SUM(amount) as total, COUNT(*) as count FROM expenses WHERE category = 'entertainment' AND date_trunc('month', date) = date_trunc('month', CURRENT_DATE)"}]

Return ONLY valid JSON. No explanations or additional text.`,
		SanitizeForPrompt(convo.FullName, 80),
		SanitizeForPrompt(convo.Username, 40),
		currentDate,
		yesterday,
		currentMonth,
		recentContext.String(),
		SanitizeForPrompt(text, MaxMessageLength),
		yesterday,
		currentDate,
		currentDate,
		currentDate,
	)
}

// parseIntents extracts the intent array from model output. It tolerates
// markdown fences, surrounding prose and a bare object instead of an array.
func parseIntents(text string) ([]Intent, error) {
	jsonText := extractIntentJSON(text)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	if strings.HasPrefix(jsonText, "{") {
		jsonText = "[" + jsonText + "]"
	}

	var intents []Intent
	if err := json.Unmarshal([]byte(jsonText), &intents); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if len(intents) == 0 {
		return nil, fmt.Errorf("empty intent list in response")
	}
	return intents, nil
}

// extractIntentJSON pulls the first JSON array or object out of text that
// may carry fences or preamble. Gemini sometimes wraps output even when
// ResponseMIMEType is set to application/json.
func extractIntentJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	arrStart := strings.Index(text, "[")
	objStart := strings.Index(text, "{")

	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		end := strings.LastIndex(text, "]")
		if end > arrStart {
			return text[arrStart : end+1]
		}
	}
	if objStart != -1 {
		end := strings.LastIndex(text, "}")
		if end > objStart {
			return text[objStart : end+1]
		}
	}
	return ""
}

// SanitizeForPrompt sanitizes user input to prevent prompt injection attacks.
// It replaces quotes that could break prompt structure, strips null bytes,
// normalizes whitespace and truncates to maxLength.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")

	input = strings.Join(strings.Fields(input), " ")

	if len(input) > maxLength {
		input = strings.TrimSpace(input[:maxLength])
	}

	return input
}
