package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/usecase"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Record(ctx context.Context, expense domain.ExpenseInput) domain.RecordOutcome {
	args := m.Called(ctx, expense)
	return args.Get(0).(domain.RecordOutcome)
}

func (m *mockLedger) ExpensesOn(ctx context.Context, date string) (*domain.Expense, error) {
	args := m.Called(ctx, date)
	expense, _ := args.Get(0).(*domain.Expense)
	return expense, args.Error(1)
}

func TestRecordExpense_PassesOutcomeThrough(t *testing.T) {
	ledger := &mockLedger{}
	input := domain.ExpenseInput{"some": "data"}
	ledger.On("Record", mock.Anything, input).Return(domain.Rejected("Expense incomplete")).Once()

	svc := usecase.NewExpenseService(ledger)
	outcome := svc.RecordExpense(context.Background(), input)

	assert.False(t, outcome.Success())
	assert.Equal(t, "Expense incomplete", outcome.ErrorMessage())
	ledger.AssertExpectations(t)
}

func TestExpensesOn_WrapsSingleRecord(t *testing.T) {
	ledger := &mockLedger{}
	record := &domain.Expense{Payee: "payee", Amount: 0.99, Date: "2017-10-20"}
	ledger.On("ExpensesOn", mock.Anything, "2017-10-20").Return(record, nil).Once()
	ledger.On("ExpensesOn", mock.Anything, "2017-10-21").Return(nil, nil).Once()

	svc := usecase.NewExpenseService(ledger)

	got, err := svc.ExpensesOn(context.Background(), "2017-10-20")
	require.NoError(t, err)
	assert.Equal(t, []domain.Expense{*record}, got)

	got, err = svc.ExpensesOn(context.Background(), "2017-10-21")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	ledger.AssertExpectations(t)
}

func TestExpensesOn_LedgerFailure(t *testing.T) {
	ledger := &mockLedger{}
	boom := errors.New("connection refused")
	ledger.On("ExpensesOn", mock.Anything, "2017-10-20").Return(nil, boom)

	_, err := usecase.NewExpenseService(ledger).ExpensesOn(context.Background(), "2017-10-20")
	assert.ErrorIs(t, err, boom)
}
