package ledger

import (
	"context"
	"sync"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

// MemoryLedger keeps expenses in process memory. Ids start at 1.
type MemoryLedger struct {
	mu     sync.RWMutex
	lastID int64
	byDate map[string][]domain.Expense
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{byDate: make(map[string][]domain.Expense)}
}

func (l *MemoryLedger) Record(_ context.Context, in domain.ExpenseInput) domain.RecordOutcome {
	expense, msg := validate(in)
	if msg != "" {
		return domain.Rejected(msg)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastID++
	l.byDate[expense.Date] = append(l.byDate[expense.Date], expense)
	return domain.Accepted(l.lastID)
}

func (l *MemoryLedger) ExpensesOn(_ context.Context, date string) (*domain.Expense, error) {
	normalized, ok := normalizeDate(date)
	if !ok {
		return nil, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	expenses := l.byDate[normalized]
	if len(expenses) == 0 {
		return nil, nil
	}
	first := expenses[0]
	return &first, nil
}

func (l *MemoryLedger) Check(_ context.Context, name string) (bool, string) {
	return true, "OK: " + name
}
