// Package codec converts between wire formats and the canonical document
// tree shared by every format, and negotiates which format a request uses.
//
// The canonical document is built from map[string]any (object), []any
// (array), string, json.Number (every number), bool and nil. Decoders only
// produce these values and encoders only accept them, so a value encoded by
// one codec decodes back into an equal value with the same codec.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

// UnrecognisedFormatMessage is the fixed error reported when no codec
// matches the request metadata.
const UnrecognisedFormatMessage = "Unrecognised data format"

var (
	ErrUnsupportedFormat = errors.New("codec: unrecognised data format")
	ErrRootNotObject     = errors.New("document root is not an object")
)

type Codec interface {
	Format() domain.Format
	// ContentType is the media type written on responses in this format.
	ContentType() string
	// Decode parses a request body whose root must be an object.
	Decode(body []byte) (domain.ExpenseInput, error)
	// Unmarshal parses any document of this format.
	Unmarshal(body []byte) (any, error)
	Encode(v any) ([]byte, error)
}

// DecodeError reports bytes that are not well-formed in a codec's format.
type DecodeError struct {
	Format domain.Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed %s body: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Document converts v into the canonical document tree. It accepts record
// outcomes, expenses, expense lists, expense inputs and values that are
// already documents (Go ints and floats are turned into json.Number).
func Document(v any) (any, error) {
	switch t := v.(type) {
	case domain.RecordOutcome:
		if t.Success() {
			return map[string]any{"expense_id": json.Number(strconv.FormatInt(t.ExpenseID(), 10))}, nil
		}
		return map[string]any{"error": t.ErrorMessage()}, nil
	case []domain.Expense:
		list := make([]any, 0, len(t))
		for _, e := range t {
			doc, err := expenseDocument(e)
			if err != nil {
				return nil, err
			}
			list = append(list, doc)
		}
		return list, nil
	case domain.Expense:
		return expenseDocument(t)
	case *domain.Expense:
		if t == nil {
			return nil, nil
		}
		return expenseDocument(*t)
	case domain.ExpenseInput:
		return normalize(map[string]any(t))
	default:
		return normalize(v)
	}
}

func expenseDocument(e domain.Expense) (map[string]any, error) {
	amount, err := floatNumber(e.Amount)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"payee":  e.Payee,
		"amount": amount,
		"date":   e.Date,
	}, nil
}

func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, json.Number:
		return t, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			n, err := normalize(item)
			if err != nil {
				return nil, fmt.Errorf("member %q: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			n, err := normalize(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case int:
		return json.Number(strconv.FormatInt(int64(t), 10)), nil
	case int32:
		return json.Number(strconv.FormatInt(int64(t), 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(t, 10)), nil
	case uint64:
		return json.Number(strconv.FormatUint(t, 10)), nil
	case float32:
		return floatNumber(float64(t))
	case float64:
		return floatNumber(t)
	default:
		return nil, fmt.Errorf("codec: unsupported value of type %T", v)
	}
}

func floatNumber(f float64) (json.Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("codec: %v is not a finite number", f)
	}
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64)), nil
}
