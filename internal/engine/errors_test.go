package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PawelJastrzebski/quadratic-fork/internal/ir"
)

func TestRuntimeError_Predicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"unknown transaction", NewUnknownTransactionError("tx"), IsUnknownTransaction},
		{"self reference", NewSelfReferenceError("tx", "A1"), IsSelfReference},
		{"sheet not found", NewSheetNotFoundError("tx", "A1", "Data"), IsSheetNotFound},
		{"malformed", NewMalformedOperationsError("tx", errors.New("bad")), IsMalformedOperations},
		{"invariant", NewInvariantError("tx", "broken"), IsInvariantViolation},
		{"circular", NewCellError("tx", "A1", ir.RunError{Kind: ir.ErrorKindCircularReference}), IsCircularReference},
		{"run error", NewCellError("tx", "A1", ir.RunError{Kind: ir.ErrorKindFormula, Msg: "x"}), IsRunError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, IsUnknownTransaction(errors.New("plain")))
		})
	}
}

func TestRuntimeError_UnwrapsCause(t *testing.T) {
	cause := errors.New("bad payload")
	err := NewMalformedOperationsError("tx", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "MALFORMED_OPERATIONS")
}
