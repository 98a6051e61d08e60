package query

import (
	"fmt"
	"strings"
)

// systemPrompt frames every model call.
const systemPrompt = "You are a precise, privacy-preserving budgeting assistant. " +
	"Use only the provided context from the database."

// maxPromptTransactions caps the transaction table embedded in a prompt.
const maxPromptTransactions = 200

// BuildPrompt assembles the structured prompt for the model: user
// profile, numeric and prose summaries, top categories, and the month's
// transaction table so the model can answer item-level questions from
// descriptions.
func BuildPrompt(question string, rc *Context) string {
	topBlock := "No category breakdown available."
	if len(rc.TopCategories) > 0 {
		n := len(rc.TopCategories)
		if n > 5 {
			n = 5
		}
		lines := make([]string, n)
		for i, c := range rc.TopCategories[:n] {
			lines[i] = fmt.Sprintf("- %s: %.2f", c.Name, c.Total)
		}
		topBlock = strings.Join(lines, "\n")
	}

	txBlock := "No transactions for this month."
	if len(rc.Transactions) > 0 {
		txs := rc.Transactions
		if len(txs) > maxPromptTransactions {
			txs = txs[:maxPromptTransactions]
		}
		lines := make([]string, 0, len(txs)+1)
		lines = append(lines, "date | amount | description | category_name")
		for _, t := range txs {
			lines = append(lines, fmt.Sprintf("%s | %.2f | %s | %s", t.Date, t.Amount, t.Description, t.Category))
		}
		txBlock = strings.Join(lines, "\n")
	}

	return strings.TrimSpace(fmt.Sprintf(`
You are **Rcube**, an AI expense assistant for a single user.

User:
- id: %d
- name: %s
- email: %s

You are given TRUSTED DATA from a database for this user in month %s.
You must base your answer ONLY on this data. DO NOT make up numbers.

High-level numeric summary:
%s

Natural-language summary:
%s

Top spending categories (category: total_amount):
%s

All transactions for this user and month (each row is one transaction):
%s

IMPORTANT BEHAVIOR RULES:
- FIRST, read the user's question carefully.
- If the question is about greetings or something very general (not directly
  asking about money, spending, income, categories, budgets, anomalies, or
  segments), give a short friendly answer and explain briefly what you can do.
  Do NOT list totals or category amounts in that case.
- If the question *is* about spending, budgets, anomalies, categories, or
  segments, then use the data above to compute the answer as precisely as you can.
- Only mention totals, categories, or specific transactions that are directly
  relevant to answering the question.
- Never invent values that are not implied by the data.

Transaction hints:
- The "description" column often contains item names like "Pizza", "Pasta", etc.
- If the user asks about "Pizza", scan the transactions table and sum the amounts
  of rows whose description contains the word "Pizza" (case-insensitive).

Answering style:
- Start your answer by addressing the user by name (e.g., "Hi %s, ...").
- Keep the answer in 2-5 short sentences or concise bullet points.
- If the question cannot be answered from this data, say so clearly and suggest
  what you *can* answer instead (e.g., totals, top category, anomalies).

User question:
%s
`, rc.UserID, rc.UserName, rc.UserEmail, rc.Month, rc.NumericSummary, rc.SummaryText, topBlock, txBlock, rc.UserName, question))
}
