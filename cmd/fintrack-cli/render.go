package main

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func usageMarkdown(statuses []services.BudgetStatus, currency string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Budgets at %s\n\n", now.Format("2006-01-02 15:04"))
	if len(statuses) == 0 {
		b.WriteString("_No budgets defined._\n")
		return b.String()
	}
	b.WriteString("| Category | Period | Window | Spent | Budget | Remaining | Used |\n")
	b.WriteString("|---|---|---|---:|---:|---:|---:|\n")
	for _, st := range statuses {
		u := st.Usage
		if st.Err != nil {
			fmt.Fprintf(&b, "| %s | %s | - | - | %s | - | %s |\n",
				u.Budget.Category, u.Budget.Period, u.Budget.Amount.Format(currency), st.Err)
			continue
		}
		used := "n/a"
		if u.HasPercentage() {
			used = fmt.Sprintf("%.1f%%", u.Percentage)
		}
		if u.IsOverBudget {
			used = "**" + used + " over**"
		}
		fmt.Fprintf(&b, "| %s | %s | %s → %s | %s | %s | %s | %s |\n",
			u.Budget.Category,
			u.Budget.Period,
			u.Window.Start.Format("2006-01-02"),
			u.Window.End.Format("2006-01-02"),
			u.Spent.Format(currency),
			u.Budget.Amount.Format(currency),
			u.Remaining.Format(currency),
			used)
	}
	return b.String()
}

func summaryMarkdown(s core.Summary, byCategory []core.CategoryAmount, currency string) string {
	var b strings.Builder
	b.WriteString("# Summary\n\n")
	fmt.Fprintf(&b, "- Income: %s\n", s.TotalIncome.Format(currency))
	fmt.Fprintf(&b, "- Expenses: %s\n", s.TotalExpenses.Format(currency))
	fmt.Fprintf(&b, "- Balance: %s\n", s.Balance.Format(currency))
	if len(byCategory) == 0 {
		return b.String()
	}
	b.WriteString("\n## Expenses by category\n\n")
	b.WriteString("| Category | Amount | Share |\n|---|---:|---:|\n")
	for _, row := range byCategory {
		fmt.Fprintf(&b, "| %s | %s | %.1f%% |\n", row.Name, row.Amount.Format(currency), row.Share)
	}
	return b.String()
}

// recentMarkdown shows calendar dates in loc.
func recentMarkdown(txs []core.Transaction, currency string, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("# Recent transactions\n\n")
	if len(txs) == 0 {
		b.WriteString("_No transactions yet._\n")
		return b.String()
	}
	b.WriteString("| Date | Title | Category | Amount |\n|---|---|---|---:|\n")
	for _, t := range txs {
		amount := t.Amount.Format(currency)
		if t.Type == core.Expense {
			amount = "-" + amount
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", t.Date.In(loc).Format("2006-01-02"), escapeCell(t.Title), t.Category, amount)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
