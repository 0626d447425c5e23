package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReviewReason states why a transaction was flagged for a human. An item can
// carry several reasons; the queue must let a reviewer tell a classification
// ambiguity apart from a data-quality trigger.
type ReviewReason string

const (
	ReasonMissingAmount    ReviewReason = "missing_amount"
	ReasonZeroAmount       ReviewReason = "zero_amount"
	ReasonLowConfidence    ReviewReason = "low_confidence"
	ReasonUnrecognized     ReviewReason = "unrecognized"
	ReasonSuspiciousAmount ReviewReason = "suspicious_amount"
	ReasonMalformedDate    ReviewReason = "malformed_date"
)

// ManualReviewItem is a transaction the engine cannot confidently post
// without human input. Every item a run produces is exported to the review
// store unconditionally, zero and absent amounts included.
type ManualReviewItem struct {
	Ref         string
	Date        time.Time
	Description string
	Amount      *decimal.Decimal
	Payer       Party
	Source      string
	Reasons     []ReviewReason
}

// HasReason reports whether the item was flagged for the given reason.
func (i ManualReviewItem) HasReason(r ReviewReason) bool {
	for _, have := range i.Reasons {
		if have == r {
			return true
		}
	}
	return false
}

// ReviewDecision is a human resolution for a previously flagged transaction,
// re-ingested by a subsequent run. A decision short-circuits the decoder:
// the resolved classification and amount are used as-is.
type ReviewDecision struct {
	Ref        string
	Kind       Kind
	Split      SplitDirective
	Amount     *decimal.Decimal
	ResolvedBy string
	Note       string
	ResolvedAt time.Time
}
