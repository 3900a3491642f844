package store

import (
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
	"github.com/PawelJastrzebski/quadratic-fork/internal/operation"
)

// marshalTransaction converts a transaction to canonical JSON TEXT.
// Canonical form keeps stored payloads byte-identical across writers.
func marshalTransaction(t operation.Transaction) (string, error) {
	data, err := ir.MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("marshal transaction %s: %w", t.ID, err)
	}
	return string(data), nil
}

func unmarshalTransaction(data string) (operation.Transaction, error) {
	t, err := operation.Decode([]byte(data))
	if err != nil {
		return operation.Transaction{}, fmt.Errorf("unmarshal transaction: %w", err)
	}
	return t, nil
}
