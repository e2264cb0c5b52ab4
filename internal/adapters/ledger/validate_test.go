package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		in   domain.ExpenseInput
		want domain.Expense
		msg  string
	}{
		{
			name: "json body",
			in:   domain.ExpenseInput{"payee": "Starbucks", "amount": json.Number("5.75"), "date": "2017-06-10"},
			want: domain.Expense{Payee: "Starbucks", Amount: 5.75, Date: "2017-06-10"},
		},
		{
			name: "untyped xml body",
			in:   domain.ExpenseInput{"payee": " Zoo ", "amount": "15.25", "date": " 2017-06-10 "},
			want: domain.Expense{Payee: "Zoo", Amount: 15.25, Date: "2017-06-10"},
		},
		{
			name: "named month",
			in:   domain.ExpenseInput{"payee": "Zoo", "amount": 3, "date": "1 Jan 2025"},
			want: domain.Expense{Payee: "Zoo", Amount: 3, Date: "2025-01-01"},
		},
		{name: "missing payee", in: domain.ExpenseInput{"some": "data"}, msg: "Invalid expense: `payee` is required"},
		{name: "blank payee", in: domain.ExpenseInput{"payee": "  "}, msg: "Invalid expense: `payee` is required"},
		{name: "numeric payee", in: domain.ExpenseInput{"payee": json.Number("1")}, msg: "Invalid expense: `payee` must be text"},
		{name: "missing amount", in: domain.ExpenseInput{"payee": "Zoo"}, msg: "Invalid expense: `amount` is required"},
		{name: "text amount", in: domain.ExpenseInput{"payee": "Zoo", "amount": "lots"}, msg: "Invalid expense: `amount` must be a number"},
		{name: "bool amount", in: domain.ExpenseInput{"payee": "Zoo", "amount": true}, msg: "Invalid expense: `amount` must be a number"},
		{name: "missing date", in: domain.ExpenseInput{"payee": "Zoo", "amount": json.Number("1")}, msg: "Invalid expense: `date` is required"},
		{
			name: "full month name",
			in:   domain.ExpenseInput{"payee": "Zoo", "amount": 3, "date": "10  June 2017"},
			want: domain.Expense{Payee: "Zoo", Amount: 3, Date: "2017-06-10"},
		},
		{name: "bad date", in: domain.ExpenseInput{"payee": "Zoo", "amount": json.Number("1"), "date": "2017-13-45"}, msg: "Invalid expense: `date` must be formatted YYYY-MM-DD or as 2 Jan 2006"},
		{name: "day first slashes", in: domain.ExpenseInput{"payee": "Zoo", "amount": json.Number("1"), "date": "10/06/2017"}, msg: "Invalid expense: `date` must be formatted YYYY-MM-DD or as 2 Jan 2006"},
		{name: "month first slashes", in: domain.ExpenseInput{"payee": "Zoo", "amount": json.Number("1"), "date": "06/10/2017"}, msg: "Invalid expense: `date` must be formatted YYYY-MM-DD or as 2 Jan 2006"},
		{name: "day first dashes", in: domain.ExpenseInput{"payee": "Zoo", "amount": json.Number("1"), "date": "10-06-2017"}, msg: "Invalid expense: `date` must be formatted YYYY-MM-DD or as 2 Jan 2006"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, msg := validate(tc.in)
			assert.Equal(t, tc.msg, msg)
			if tc.msg == "" {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
