package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Party identifies one of the two parties sharing expenses.
type Party string

const (
	PartyA Party = "party_a"
	PartyB Party = "party_b"
)

// Other returns the counterparty.
func (p Party) Other() Party {
	if p == PartyA {
		return PartyB
	}
	return PartyA
}

// Valid reports whether the party is one of the two known parties.
func (p Party) Valid() bool {
	return p == PartyA || p == PartyB
}

// NormalizedTransaction is a single bank transaction after ingestion and
// normalization. It is treated as immutable: the reconciler never mutates
// a transaction, it only derives ledger entries, issues and review items
// from it.
//
// Amount is nil when the source record carried no parseable amount. Zero is
// a real value, never a stand-in for "unknown".
type NormalizedTransaction struct {
	Ref         string
	Source      string
	Date        time.Time
	Description string
	Amount      *decimal.Decimal
	Payer       Party
}

// HasAmount reports whether the transaction carries a parseable amount.
func (t *NormalizedTransaction) HasAmount() bool {
	return t.Amount != nil
}

// AbsAmount returns the absolute amount, or zero when absent.
func (t *NormalizedTransaction) AbsAmount() decimal.Decimal {
	if t.Amount == nil {
		return decimal.Zero
	}
	return t.Amount.Abs()
}
