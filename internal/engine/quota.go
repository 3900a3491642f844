package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps is the default number of code cell evaluations allowed in
// one transaction.
const DefaultMaxSteps = 100000

// QuotaEnforcer counts evaluations in one transaction and enforces the
// step limit.
//
// Cycle history catches a cell that reaches itself; the quota catches long
// chains of distinct cells. Together they bound every compute loop.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check counts one evaluation and returns StepsExceededError once the
// limit is passed.
func (q *QuotaEnforcer) Check(transactionID string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			TransactionID: transactionID,
			Steps:         q.current,
			Limit:         q.maxSteps,
		}
	}
	return nil
}

// Current returns the number of evaluations counted.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a transaction exceeds the step quota.
// The remaining frontier is dropped and the transaction finalizes.
type StepsExceededError struct {
	TransactionID string
	Steps         int
	Limit         int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("transaction %s exceeded max steps quota: %d steps > %d limit",
		e.TransactionID, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
