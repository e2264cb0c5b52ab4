package ports

import (
	"context"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

type LedgerPort interface {
	// Record validates and stores an expense. Validation failures and storage
	// failures are both reported as a rejected outcome.
	Record(ctx context.Context, expense domain.ExpenseInput) domain.RecordOutcome

	// ExpensesOn returns the expense recorded on date, or nil when there is none.
	ExpensesOn(ctx context.Context, date string) (*domain.Expense, error)
}
