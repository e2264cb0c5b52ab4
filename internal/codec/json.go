package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/cp25sy5-modjot/expense-tracker-service/internal/domain"
)

type jsonCodec struct{}

func JSON() Codec { return jsonCodec{} }

func (jsonCodec) Format() domain.Format { return domain.FormatJSON }

func (jsonCodec) ContentType() string { return "application/json" }

func (c jsonCodec) Decode(body []byte) (domain.ExpenseInput, error) {
	v, err := c.Unmarshal(body)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Format: domain.FormatJSON, Err: ErrRootNotObject}
	}
	return domain.ExpenseInput(obj), nil
}

func (jsonCodec) Unmarshal(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &DecodeError{Format: domain.FormatJSON, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{Format: domain.FormatJSON, Err: errors.New("unexpected data after top-level value")}
	}
	return v, nil
}

func (jsonCodec) Encode(v any) ([]byte, error) {
	doc, err := Document(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
