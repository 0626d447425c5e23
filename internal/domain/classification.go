package domain

import "github.com/shopspring/decimal"

// Kind is the semantic category assigned to a transaction.
type Kind string

const (
	KindExpense      Kind = "expense"
	KindIncome       Kind = "income"
	KindPersonal     Kind = "personal"
	KindRent         Kind = "rent"
	KindSettlement   Kind = "settlement"
	KindUnrecognized Kind = "unrecognized"
)

// Valid reports whether k is one of the known categories.
func (k Kind) Valid() bool {
	switch k {
	case KindExpense, KindIncome, KindPersonal, KindRent, KindSettlement, KindUnrecognized:
		return true
	}
	return false
}

// Confidence expresses how sure the classifier is about a decision.
// Low confidence always routes the transaction to manual review.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// SplitMode selects how a transaction's amount is divided between the parties.
type SplitMode string

const (
	// SplitEven divides the amount 50/50 and posts a single net entry.
	SplitEven SplitMode = "even"
	// SplitFixed divides the amount by a fixed percentage pair and posts
	// gross entries through the clearing account.
	SplitFixed SplitMode = "fixed"
	// SplitFullReimbursement makes the counterparty owe the full amount.
	SplitFullReimbursement SplitMode = "full_reimbursement"
	// SplitExcluded keeps the transaction out of the shared balance entirely.
	SplitExcluded SplitMode = "excluded"
)

// SplitRatio is a fixed percentage pair. The two percentages must sum to 100.
type SplitRatio struct {
	PartyAPercent decimal.Decimal
	PartyBPercent decimal.Decimal
}

// EvenSplit returns the default 50/50 ratio.
func EvenSplit() SplitRatio {
	half := decimal.NewFromInt(50)
	return SplitRatio{PartyAPercent: half, PartyBPercent: half}
}

// Valid reports whether the percentages are non-negative and sum to 100.
func (r SplitRatio) Valid() bool {
	if r.PartyAPercent.IsNegative() || r.PartyBPercent.IsNegative() {
		return false
	}
	return r.PartyAPercent.Add(r.PartyBPercent).Equal(decimal.NewFromInt(100))
}

// Percent returns the percentage owed by the given party.
func (r SplitRatio) Percent(p Party) decimal.Decimal {
	if p == PartyA {
		return r.PartyAPercent
	}
	return r.PartyBPercent
}

// SplitDirective tells the accounting engine how to divide an amount.
// Ratio is only meaningful for SplitFixed.
type SplitDirective struct {
	Mode  SplitMode
	Ratio SplitRatio
}

// Classification is the decoder's verdict for one transaction.
type Classification struct {
	Kind       Kind
	Split      SplitDirective
	Confidence Confidence
	// Rule names the matched rule, or "default" for the fallback.
	Rule string
	// MatchedRules lists every rule that matched; more than one entry
	// means the description was ambiguous.
	MatchedRules []string
}

// Ambiguous reports whether more than one rule claimed the description.
func (c Classification) Ambiguous() bool {
	return len(c.MatchedRules) > 1
}
