package engine

import (
	"errors"
	"fmt"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

// RuntimeError represents an error detected while running a transaction.
//
// Runtime errors include:
//   - Unknown transaction: a host message names a transaction that is not parked
//   - Self reference / sheet not found: a host read was refused
//   - Run error / circular reference: recorded on a code cell
//   - Malformed operations: a peer transaction could not be applied
//
// RuntimeError includes structured fields for diagnostics.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// TransactionID identifies the affected transaction.
	TransactionID string

	// Cell names the affected cell, in A1 notation when known.
	Cell string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownTransaction indicates no parked transaction has the id.
	ErrCodeUnknownTransaction RuntimeErrorCode = "UNKNOWN_TRANSACTION"

	// ErrCodeSelfReference indicates running code read its own cell.
	ErrCodeSelfReference RuntimeErrorCode = "SELF_REFERENCE"

	// ErrCodeSheetNotFound indicates running code named an unknown sheet.
	ErrCodeSheetNotFound RuntimeErrorCode = "SHEET_NOT_FOUND"

	// ErrCodeRunError indicates a formula or host failure.
	ErrCodeRunError RuntimeErrorCode = "RUN_ERROR"

	// ErrCodeCircularReference indicates a code cell depends on itself.
	ErrCodeCircularReference RuntimeErrorCode = "CIRCULAR_REFERENCE"

	// ErrCodeMalformedOperations indicates a received transaction was rejected.
	ErrCodeMalformedOperations RuntimeErrorCode = "MALFORMED_OPERATIONS"

	// ErrCodeInvariantViolation indicates internal misuse. It is only ever
	// raised with panic.
	ErrCodeInvariantViolation RuntimeErrorCode = "INVARIANT_VIOLATION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.TransactionID != "" && e.Cell != "" {
		msg = fmt.Sprintf("%s (transaction=%s, cell=%s)", msg, e.TransactionID, e.Cell)
	} else if e.TransactionID != "" {
		msg = fmt.Sprintf("%s (transaction=%s)", msg, e.TransactionID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsUnknownTransaction returns true if err reports an unknown transaction id.
// Uses errors.As to handle wrapped errors.
func IsUnknownTransaction(err error) bool {
	return hasCode(err, ErrCodeUnknownTransaction)
}

// IsSelfReference returns true if err is a self-reference error.
func IsSelfReference(err error) bool {
	return hasCode(err, ErrCodeSelfReference)
}

// IsSheetNotFound returns true if err is a sheet-not-found error.
func IsSheetNotFound(err error) bool {
	return hasCode(err, ErrCodeSheetNotFound)
}

// IsRunError returns true if err is a run error.
func IsRunError(err error) bool {
	return hasCode(err, ErrCodeRunError)
}

// IsCircularReference returns true if err is a circular reference error.
func IsCircularReference(err error) bool {
	return hasCode(err, ErrCodeCircularReference)
}

// IsMalformedOperations returns true if err rejects received operations.
func IsMalformedOperations(err error) bool {
	return hasCode(err, ErrCodeMalformedOperations)
}

// IsInvariantViolation returns true if err is an invariant violation, e.g.
// one recovered from a panic.
func IsInvariantViolation(err error) bool {
	return hasCode(err, ErrCodeInvariantViolation)
}

// NewUnknownTransactionError creates a RuntimeError for an id that is not parked.
func NewUnknownTransactionError(transactionID string) *RuntimeError {
	return &RuntimeError{
		Code:          ErrCodeUnknownTransaction,
		Message:       "no transaction is waiting with this id",
		TransactionID: transactionID,
	}
}

// NewSelfReferenceError creates a RuntimeError for a read of the running cell.
func NewSelfReferenceError(transactionID, cell string) *RuntimeError {
	return &RuntimeError{
		Code:          ErrCodeSelfReference,
		Message:       "code cannot read its own cell",
		TransactionID: transactionID,
		Cell:          cell,
	}
}

// NewSheetNotFoundError creates a RuntimeError for an unknown sheet name.
func NewSheetNotFoundError(transactionID, cell, sheetName string) *RuntimeError {
	return &RuntimeError{
		Code:          ErrCodeSheetNotFound,
		Message:       fmt.Sprintf("sheet %q not found", sheetName),
		TransactionID: transactionID,
		Cell:          cell,
		Details:       map[string]string{"sheet_name": sheetName},
	}
}

// NewMalformedOperationsError creates a RuntimeError wrapping a decode or
// resolution failure of received operations.
func NewMalformedOperationsError(transactionID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:          ErrCodeMalformedOperations,
		Message:       "received operations rejected",
		TransactionID: transactionID,
		Err:           err,
	}
}

// NewInvariantError creates a RuntimeError for internal misuse. Callers
// panic with it.
func NewInvariantError(transactionID, message string) *RuntimeError {
	return &RuntimeError{
		Code:          ErrCodeInvariantViolation,
		Message:       message,
		TransactionID: transactionID,
	}
}

// NewCellError creates a RuntimeError describing a failure recorded on a
// code cell. The code follows the kind of the recorded error.
func NewCellError(transactionID, cell string, runErr ir.RunError) *RuntimeError {
	code := ErrCodeRunError
	switch runErr.Kind {
	case ir.ErrorKindCircularReference:
		code = ErrCodeCircularReference
	case ir.ErrorKindSelfReference:
		code = ErrCodeSelfReference
	case ir.ErrorKindSheetNotFound:
		code = ErrCodeSheetNotFound
	}
	return &RuntimeError{
		Code:          code,
		Message:       runErr.Msg,
		TransactionID: transactionID,
		Cell:          cell,
		Details:       map[string]string{"kind": string(runErr.Kind)},
		Err:           runErr,
	}
}
