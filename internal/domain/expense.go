package domain

// ExpenseInput is the decoded request body, keyed by field name. Values are
// canonical document values (string, json.Number, bool, nil, []any,
// map[string]any) and are not checked here; the ledger owns validation.
type ExpenseInput map[string]any

type Expense struct {
	Payee  string  `json:"payee"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"` // normalized as YYYY-MM-DD
}

// RecordOutcome is the ledger's answer to a record attempt: either accepted
// with an id or rejected with a message, never both.
type RecordOutcome struct {
	expenseID    int64
	errorMessage string
	accepted     bool
}

func Accepted(expenseID int64) RecordOutcome {
	return RecordOutcome{expenseID: expenseID, accepted: true}
}

func Rejected(message string) RecordOutcome {
	return RecordOutcome{errorMessage: message}
}

func (o RecordOutcome) Success() bool        { return o.accepted }
func (o RecordOutcome) ExpenseID() int64     { return o.expenseID }
func (o RecordOutcome) ErrorMessage() string { return o.errorMessage }
