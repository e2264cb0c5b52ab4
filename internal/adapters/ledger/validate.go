package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

const dateLayout = "2006-01-02"

// dateLayouts are tried in order; the first is the canonical form. Numeric
// day/month orders are left out since 03/04/2017 reads both ways.
var dateLayouts = []string{
	dateLayout,
	"2 Jan 2006",
	"2 January 2006",
}

const dateFormatMessage = "`date` must be formatted YYYY-MM-DD or as 2 Jan 2006"

func invalid(format string, args ...any) string {
	return "Invalid expense: " + fmt.Sprintf(format, args...)
}

// validate turns a decoded body into an expense, or explains why it cannot.
func validate(in domain.ExpenseInput) (domain.Expense, string) {
	payee, msg := payeeField(in)
	if msg != "" {
		return domain.Expense{}, msg
	}
	amount, msg := amountField(in)
	if msg != "" {
		return domain.Expense{}, msg
	}
	date, msg := dateField(in)
	if msg != "" {
		return domain.Expense{}, msg
	}
	return domain.Expense{Payee: payee, Amount: amount, Date: date}, ""
}

func payeeField(in domain.ExpenseInput) (string, string) {
	raw, ok := in["payee"]
	if !ok || raw == nil {
		return "", invalid("`payee` is required")
	}
	payee, ok := raw.(string)
	if !ok {
		return "", invalid("`payee` must be text")
	}
	payee = strings.TrimSpace(payee)
	if payee == "" {
		return "", invalid("`payee` is required")
	}
	return payee, ""
}

func amountField(in domain.ExpenseInput) (float64, string) {
	raw, ok := in["amount"]
	if !ok || raw == nil {
		return 0, invalid("`amount` is required")
	}

	var amount float64
	var err error
	switch v := raw.(type) {
	case json.Number:
		amount, err = v.Float64()
	case float64:
		amount = v
	case int:
		amount = float64(v)
	case int64:
		amount = float64(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, invalid("`amount` is required")
		}
		amount, err = strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, invalid("`amount` must be a number")
	}
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, invalid("`amount` must be a number")
	}
	return amount, ""
}

func dateField(in domain.ExpenseInput) (string, string) {
	raw, ok := in["date"]
	if !ok || raw == nil {
		return "", invalid("`date` is required")
	}
	s, ok := raw.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", invalid("`date` is required")
	}
	date, ok := normalizeDate(s)
	if !ok {
		return "", invalid(dateFormatMessage)
	}
	return date, ""
}

// normalizeDate rewrites any accepted date form as YYYY-MM-DD.
func normalizeDate(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), true
		}
	}
	return "", false
}
