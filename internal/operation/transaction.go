package operation

import (
	"encoding/json"
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// TransactionType records who initiated a transaction.
type TransactionType string

const (
	TypeUser        TransactionType = "user"
	TypeUndo        TransactionType = "undo"
	TypeRedo        TransactionType = "redo"
	TypeMultiplayer TransactionType = "multiplayer"
)

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeUser, TypeUndo, TypeRedo, TypeMultiplayer:
		return true
	}
	return false
}

// Transaction is a committed, ordered batch of operations.
type Transaction struct {
	ID         string          `json:"id"`
	Type       TransactionType `json:"type"`
	Cursor     string          `json:"cursor,omitempty"`
	Operations []Operation     `json:"-"`
	// Axes binds every column and row id the operations mention to its
	// index on the sender. Set only on transactions leaving the process.
	Axes []AxisBinding `json:"axes,omitempty"`
}

// AxisBinding lists id/index pairs for one sheet.
type AxisBinding struct {
	Sheet   ir.SheetID      `json:"sheet"`
	Columns []ColumnBinding `json:"columns,omitempty"`
	Rows    []RowBinding    `json:"rows,omitempty"`
}

// ColumnBinding pairs a column id with its index.
type ColumnBinding struct {
	ID    ir.ColumnID `json:"id"`
	Index int64       `json:"index"`
}

// RowBinding pairs a row id with its index.
type RowBinding struct {
	ID    ir.RowID `json:"id"`
	Index int64    `json:"index"`
}

type transactionJSON struct {
	Version    string          `json:"version"`
	ID         string          `json:"id"`
	Type       TransactionType `json:"type"`
	Cursor     string          `json:"cursor,omitempty"`
	Operations []envelope      `json:"operations"`
	Axes       []AxisBinding   `json:"axes,omitempty"`
}

// MarshalJSON encodes the transaction with tagged operations.
func (t Transaction) MarshalJSON() ([]byte, error) {
	ops, err := encodeOperations(t.Operations)
	if err != nil {
		return nil, err
	}
	return json.Marshal(transactionJSON{
		Version:    ir.FormatVersion,
		ID:         t.ID,
		Type:       t.Type,
		Cursor:     t.Cursor,
		Operations: ops,
		Axes:       t.Axes,
	})
}

// UnmarshalJSON decodes and validates a transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var in transactionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Version != ir.FormatVersion {
		return fmt.Errorf("transaction: unsupported format version %q", in.Version)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("transaction: unknown type %q", in.Type)
	}
	ops, err := decodeOperations(in.Operations)
	if err != nil {
		return fmt.Errorf("transaction %s: %w", in.ID, err)
	}
	*t = Transaction{ID: in.ID, Type: in.Type, Cursor: in.Cursor, Operations: ops, Axes: in.Axes}
	return nil
}

// Encode serializes a transaction for peers or the durable log.
func Encode(t Transaction) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode transaction %s: %w", t.ID, err)
	}
	return data, nil
}

// Decode parses a serialized transaction.
func Decode(data []byte) (Transaction, error) {
	var t Transaction
	if err := json.Unmarshal(data, &t); err != nil {
		return Transaction{}, fmt.Errorf("decode transaction: %w", err)
	}
	return t, nil
}

// EncodeOperations serializes a bare operation list.
func EncodeOperations(ops []Operation) ([]byte, error) {
	env, err := encodeOperations(ops)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// DecodeOperations parses a bare operation list.
func DecodeOperations(data []byte) ([]Operation, error) {
	var env []envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode operations: %w", err)
	}
	return decodeOperations(env)
}

// Digest is the content digest of the transaction's operations. Two
// replicas that hold the same edits compute the same digest.
func Digest(ops []Operation) (string, error) {
	env, err := encodeOperations(ops)
	if err != nil {
		return "", err
	}
	return ir.Digest(ir.DomainTransaction, env)
}
