package domain

import (
	"errors"
	"fmt"
)

var (
	// Run errors
	ErrMissingBaseline  = errors.New("from-baseline run requires a baseline date, amount and direction")
	ErrInvalidRunConfig = errors.New("invalid run configuration")
	ErrRunNotFound      = errors.New("run not found")

	// Posting errors
	ErrMissingAmount   = errors.New("cannot post a transaction without an amount")
	ErrZeroAmount      = errors.New("cannot post a zero-amount transaction")
	ErrUnknownPayer    = errors.New("transaction payer is not one of the two parties")
	ErrNotPostable     = errors.New("classification is not postable")
	ErrRuleOverlap     = errors.New("classification rules overlap")
	ErrReviewNotFound  = errors.New("review item not found")
	ErrDecisionInvalid = errors.New("review decision is invalid")
)

// InvariantViolation is a fatal internal inconsistency in the ledger. It
// signals a programming defect, never bad input data: the run aborts and the
// ledger is left intact for forensic inspection.
type InvariantViolation struct {
	Check  string
	Detail string
}

func (v *InvariantViolation) Error() string {
	return fmt.Sprintf("ledger invariant violated (%s): %s", v.Check, v.Detail)
}

// IsInvariantViolation reports whether err is (or wraps) an invariant
// violation.
func IsInvariantViolation(err error) bool {
	var v *InvariantViolation
	return errors.As(err, &v)
}
