package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

// Dialect selects placeholder style, schema and id retrieval.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

const recordFailedMessage = "Expense could not be recorded"

var schemas = map[Dialect][]string{
	DialectSQLite: {
		`CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			payee TEXT NOT NULL,
			amount REAL NOT NULL,
			date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS expenses_date_idx ON expenses (date)`,
	},
	DialectPostgres: {
		`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			payee TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS expenses_date_idx ON expenses (date)`,
	},
}

// SQLLedger stores expenses in a single SQL table. It is safe for
// concurrent use; database/sql owns the connection pool.
type SQLLedger struct {
	db      *sql.DB
	dialect Dialect
	logger  zerolog.Logger
}

func NewSQLLedger(db *sql.DB, dialect Dialect, logger zerolog.Logger) *SQLLedger {
	return &SQLLedger{db: db, dialect: dialect, logger: logger}
}

// Open connects with the named driver ("sqlite" or "postgres") and applies
// the schema.
func Open(ctx context.Context, driver, dsn string, logger zerolog.Logger) (*SQLLedger, error) {
	var dialect Dialect
	switch driver {
	case "sqlite":
		dialect = DialectSQLite
	case "postgres":
		dialect = DialectPostgres
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", driver, err)
	}
	if dialect == DialectSQLite {
		// one connection keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
	}

	l := NewSQLLedger(db, dialect, logger)
	if err := l.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLLedger) Migrate(ctx context.Context) error {
	for _, stmt := range schemas[l.dialect] {
		if _, err := l.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate expenses table: %w", err)
		}
	}
	return nil
}

func (l *SQLLedger) Record(ctx context.Context, in domain.ExpenseInput) domain.RecordOutcome {
	expense, msg := validate(in)
	if msg != "" {
		return domain.Rejected(msg)
	}

	id, err := l.insert(ctx, expense)
	if err != nil {
		l.logger.Error().Err(err).Str("payee", expense.Payee).Msg("failed to insert expense")
		return domain.Rejected(recordFailedMessage)
	}
	return domain.Accepted(id)
}

func (l *SQLLedger) insert(ctx context.Context, e domain.Expense) (int64, error) {
	query := `INSERT INTO expenses (payee, amount, date) VALUES (?, ?, ?)`

	if l.dialect == DialectPostgres {
		var id int64
		err := l.db.QueryRowContext(ctx, l.rebind(query+` RETURNING id`), e.Payee, e.Amount, e.Date).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert expense: %w", err)
		}
		return id, nil
	}

	res, err := l.db.ExecContext(ctx, query, e.Payee, e.Amount, e.Date)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read expense id: %w", err)
	}
	return id, nil
}

// ExpensesOn returns the first expense recorded on date. Dates that cannot
// be parsed match nothing.
func (l *SQLLedger) ExpensesOn(ctx context.Context, date string) (*domain.Expense, error) {
	normalized, ok := normalizeDate(date)
	if !ok {
		return nil, nil
	}

	query := l.rebind(`SELECT payee, amount, date FROM expenses WHERE date = ? ORDER BY id LIMIT 1`)
	var e domain.Expense
	err := l.db.QueryRowContext(ctx, query, normalized).Scan(&e.Payee, &e.Amount, &e.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	return &e, nil
}

func (l *SQLLedger) Check(ctx context.Context, name string) (bool, string) {
	if err := l.db.PingContext(ctx); err != nil {
		return false, fmt.Sprintf("%s: %v", name, err)
	}
	return true, "OK: " + name
}

func (l *SQLLedger) Close() error {
	return l.db.Close()
}

// rebind rewrites ? placeholders as $1..$n for postgres.
func (l *SQLLedger) rebind(query string) string {
	if l.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
