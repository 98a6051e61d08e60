package query

import (
	"fmt"
	"strings"
)

// itemKeywords are description words the fallback can total directly.
var itemKeywords = []string{"pizza", "pasta", "coffee", "rent", "uber", "shopping"}

// ruleBasedAnswer is the deterministic stand-in for the model: it
// recognizes a fixed set of intents and computes exact answers from the
// retrieved context. Anything else gets a help message with example
// questions.
func ruleBasedAnswer(question string, rc *Context) string {
	q := strings.ToLower(question)

	for _, kw := range itemKeywords {
		if !strings.Contains(q, kw) {
			continue
		}
		var total float64
		for _, t := range rc.Transactions {
			if t.Description != "" && strings.Contains(strings.ToLower(t.Description), kw) {
				total += t.Amount
			}
		}
		if total > 0 {
			return fmt.Sprintf(
				"In %s, your total spending on '%s' was %.2f, based on the transaction descriptions.",
				rc.Month, kw, total)
		}
		return fmt.Sprintf(
			"In %s, I did not find any transactions whose description contains '%s'.",
			rc.Month, kw)
	}

	if strings.Contains(q, "how much") && strings.Contains(q, "spend") {
		return fmt.Sprintf("In %s, you spent a total of %.2f.", rc.Month, rc.TotalSpent)
	}

	if strings.Contains(q, "income") {
		return fmt.Sprintf("In %s, your recorded income was %.2f.", rc.Month, rc.TotalIncome)
	}

	if strings.Contains(q, "saving") || strings.Contains(q, "net") {
		return fmt.Sprintf(
			"In %s, your net savings (income minus expenses) were %.2f. Income: %.2f, Expenses: %.2f.",
			rc.Month, rc.NetSavings, rc.TotalIncome, rc.TotalSpent)
	}

	if strings.Contains(q, "top") && strings.Contains(q, "category") {
		if len(rc.TopCategories) == 0 {
			return fmt.Sprintf("In %s, there are no expense categories recorded.", rc.Month)
		}
		best := rc.TopCategories[0]
		return fmt.Sprintf(
			"In %s, your top spending category was %s with %.2f.",
			rc.Month, best.Name, best.Total)
	}

	if strings.Contains(q, "summary") || strings.Contains(q, "overview") {
		if rc.SummaryText == "" {
			return fmt.Sprintf("No summary available for %s.", rc.Month)
		}
		return rc.SummaryText
	}

	return fmt.Sprintf(
		"I can answer questions about your spending in %s based on the database. "+
			"Key numbers are: %s. Try asking things like "+
			"'How much did I spend?', 'What was my top category?', or "+
			"'What is my total Pizza spend in %s?'.",
		rc.Month, rc.NumericSummary, rc.Month)
}
