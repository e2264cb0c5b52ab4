package codec_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/codec"
	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

func TestDocument_Outcomes(t *testing.T) {
	doc, err := codec.Document(domain.Accepted(417))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"expense_id": json.Number("417")}, doc)

	doc, err = codec.Document(domain.Rejected("Expense incomplete"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"error": "Expense incomplete"}, doc)
}

func TestDocument_ExpenseList(t *testing.T) {
	doc, err := codec.Document([]domain.Expense{{Payee: "Starbucks", Amount: 0.99, Date: "2017-10-20"}})
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{
		"payee":  "Starbucks",
		"amount": json.Number("0.99"),
		"date":   "2017-10-20",
	}}, doc)

	doc, err = codec.Document([]domain.Expense(nil))
	require.NoError(t, err)
	assert.Equal(t, []any{}, doc)
}

func TestDocument_RejectsUnsupportedValues(t *testing.T) {
	_, err := codec.Document(map[string]any{"when": struct{}{}})
	assert.Error(t, err)
}

func roundTripValues() map[string]any {
	return map[string]any{
		"accepted":      domain.Accepted(417),
		"rejected":      domain.Rejected("Invalid expense: `payee` is required <&>"),
		"empty list":    []domain.Expense{},
		"one record":    []domain.Expense{{Payee: "Zoo", Amount: 15.25, Date: "2017-06-10"}},
		"zero amount":   []domain.Expense{{Payee: "", Amount: 0, Date: ""}},
		"control chars": []domain.Expense{{Payee: "a\x01b", Amount: 1, Date: "2017-06-10\x1b"}},
		"nested input": domain.ExpenseInput{
			"payee":    "Whole Foods",
			"amount":   json.Number("-95.2e3"),
			"tags":     []any{"food", true, nil, map[string]any{}},
			"some key": "needs a member element",
			"xmlish":   "reserved prefix",
			"member":   "plain",
			"padded":   "  spaced\n\tvalue ",
			"crlf":     "line\r\nbreak",
			"nul\x00":  "\x00\uFFFE",
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON(), codec.XML()} {
		for name, v := range roundTripValues() {
			t.Run(c.Format().String()+"/"+name, func(t *testing.T) {
				want, err := codec.Document(v)
				require.NoError(t, err)

				body, err := c.Encode(v)
				require.NoError(t, err)

				got, err := c.Unmarshal(body)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestDecode_MalformedIsDecodeError(t *testing.T) {
	cases := []struct {
		codec codec.Codec
		body  string
	}{
		{codec.JSON(), ``},
		{codec.JSON(), `{"payee": "Starbucks"`},
		{codec.JSON(), `{"payee": "Starbucks"} trailing`},
		{codec.JSON(), `["not", "an", "object"]`},
		{codec.JSON(), `"scalar"`},
		{codec.XML(), ``},
		{codec.XML(), `<expense><payee>Starbucks</payee>`},
		{codec.XML(), `<expense></expense><expense></expense>`},
		{codec.XML(), `<array type="array"><item>a</item></array>`},
		{codec.XML(), `<expense><amount type="number">five</amount></expense>`},
		{codec.XML(), `<expense><ok type="boolean">yes</ok></expense>`},
		{codec.XML(), `<expense><x type="money">1</x></expense>`},
		{codec.XML(), `<expense><a>1</a><a>2</a></expense>`},
		{codec.XML(), `<h><s>some</s><s>data</s></h>`},
		{codec.XML(), `<expense>text<a>1</a></expense>`},
		{codec.XML(), `<expense><payee type="string" encoding="base64">!!</payee></expense>`},
		{codec.XML(), `<expense><payee type="string" encoding="rot13">nop</payee></expense>`},
		{codec.XML(), `<expense><member name="%%%" encoding="base64">x</member></expense>`},
	}
	for _, tc := range cases {
		_, err := tc.codec.Decode([]byte(tc.body))
		var decodeErr *codec.DecodeError
		if assert.True(t, errors.As(err, &decodeErr), "%s %q: got %v", tc.codec.Format(), tc.body, err) {
			assert.Equal(t, tc.codec.Format(), decodeErr.Format)
		}
	}
}

func TestDecode_DoesNotValidateBusinessFields(t *testing.T) {
	got, err := codec.JSON().Decode([]byte(`{"some": "data"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseInput{"some": "data"}, got)

	got, err = codec.XML().Decode([]byte(`<expense/>`))
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseInput{}, got)
}

func TestXMLDecode_PlainClientDocument(t *testing.T) {
	body := `<?xml version="1.0"?>
<expense>
  <payee>Starbucks</payee>
  <amount type="number">5.75</amount>
  <date>2017-06-10</date>
</expense>`
	got, err := codec.XML().Decode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseInput{
		"payee":  "Starbucks",
		"amount": json.Number("5.75"),
		"date":   "2017-06-10",
	}, got)
}

func TestJSONEncode_WireShape(t *testing.T) {
	body, err := codec.JSON().Encode(domain.Accepted(417))
	require.NoError(t, err)
	assert.JSONEq(t, `{"expense_id":417}`, string(body))

	body, err = codec.JSON().Encode([]domain.Expense{})
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(body))
}

func TestXMLEncode_WireShape(t *testing.T) {
	body, err := codec.XML().Encode(domain.Accepted(417))
	require.NoError(t, err)
	assert.Equal(t,
		`<?xml version="1.0" encoding="UTF-8"?>`+"\n"+
			`<object type="object"><expense_id type="number">417</expense_id></object>`,
		string(body))

	body, err = codec.XML().Encode(map[string]any{"a b": "c"})
	require.NoError(t, err)
	assert.Contains(t, string(body), `<member name="a b">c</member>`)

	body, err = codec.XML().Encode(map[string]any{"payee": "a\x01b", "nul\x00": "ok"})
	require.NoError(t, err)
	assert.Contains(t, string(body), `<payee type="string" encoding="base64">YQFi</payee>`)
	assert.Contains(t, string(body), `<member name="bnVsAA==" encoding="base64">ok</member>`)
}

func TestXMLEncode_InvalidUTF8IsPreserved(t *testing.T) {
	raw := "caf\xe9"
	body, err := codec.XML().Encode(map[string]any{"payee": raw})
	require.NoError(t, err)

	got, err := codec.XML().Unmarshal(body)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"payee": raw}, got)
}
