package staging

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/autobudget/internal/model"
)

// previewEnvelope covers every object shape a serialized preview has taken.
type previewEnvelope struct {
	Transactions json.RawMessage `json:"transactions"`
	Data         json.RawMessage `json:"data"`
	Errors       []string        `json:"errors"`
	HeadersFound []string        `json:"headers_found"`
}

// DecodePreview parses a serialized preview. Besides the current
// {transactions, errors, headers_found} object it accepts a bare array of
// transactions and a {data: [...]} wrapper.
func DecodePreview(data []byte) (model.ImportPreview, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return model.ImportPreview{}, fmt.Errorf("%w: empty payload", ErrMalformedPreview)
	}

	switch trimmed[0] {
	case '[':
		txns, err := decodeTransactions(trimmed)
		if err != nil {
			return model.ImportPreview{}, err
		}
		return model.ImportPreview{Transactions: txns}, nil

	case '{':
		var env previewEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return model.ImportPreview{}, fmt.Errorf("%w: %v", ErrMalformedPreview, err)
		}
		if isArray(env.Transactions) {
			txns, err := decodeTransactions(env.Transactions)
			if err != nil {
				return model.ImportPreview{}, err
			}
			return model.ImportPreview{
				Transactions: txns,
				Errors:       env.Errors,
				HeadersFound: env.HeadersFound,
			}, nil
		}
		if isArray(env.Data) {
			txns, err := decodeTransactions(env.Data)
			if err != nil {
				return model.ImportPreview{}, err
			}
			return model.ImportPreview{Transactions: txns}, nil
		}
	}

	return model.ImportPreview{}, fmt.Errorf("%w: unexpected shape", ErrMalformedPreview)
}

func decodeTransactions(raw []byte) ([]model.ImportedTransaction, error) {
	var txns []model.ImportedTransaction
	if err := json.Unmarshal(raw, &txns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPreview, err)
	}
	return txns, nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
