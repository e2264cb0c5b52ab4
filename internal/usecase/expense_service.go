package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/ports"
)

// ExpenseService hands decoded expenses to the ledger and shapes its answers.
// It holds no state of its own; every call goes to the ledger exactly once.
type ExpenseService struct {
	ledger ports.LedgerPort
}

func NewExpenseService(ledger ports.LedgerPort) *ExpenseService {
	return &ExpenseService{ledger: ledger}
}

func (s *ExpenseService) RecordExpense(ctx context.Context, expense domain.ExpenseInput) domain.RecordOutcome {
	log := zerolog.Ctx(ctx)
	log.Debug().Int("fields", len(expense)).Msg("RecordExpense called")

	outcome := s.ledger.Record(ctx, expense)
	if outcome.Success() {
		log.Info().Int64("expense_id", outcome.ExpenseID()).Msg("expense recorded")
	} else {
		log.Info().Str("reason", outcome.ErrorMessage()).Msg("expense rejected")
	}
	return outcome
}

// ExpensesOn returns the expenses for date as a list of zero or one records.
// The date is passed through untouched.
func (s *ExpenseService) ExpensesOn(ctx context.Context, date string) ([]domain.Expense, error) {
	zerolog.Ctx(ctx).Debug().Str("date", date).Msg("ExpensesOn called")

	expense, err := s.ledger.ExpensesOn(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("lookup expenses on %q: %w", date, err)
	}

	result := []domain.Expense{}
	if expense != nil {
		result = append(result, *expense)
	}
	return result, nil
}
