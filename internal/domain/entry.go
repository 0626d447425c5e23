package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is one of the ledger's logical accounts. The ledger is scoped to
// the two party accounts plus a clearing pseudo-account used to post gross
// split entries; clearing must net to zero after every posting.
type Account string

const (
	AccountPartyA   Account = "party_a"
	AccountPartyB   Account = "party_b"
	AccountClearing Account = "clearing"
)

// AccountFor maps a party to its ledger account.
func AccountFor(p Party) Account {
	if p == PartyA {
		return AccountPartyA
	}
	return AccountPartyB
}

// EntryMemo tags why a ledger entry exists.
type EntryMemo string

const (
	MemoShare      EntryMemo = "share"
	MemoGross      EntryMemo = "gross"
	MemoSettlement EntryMemo = "settlement"
	MemoBaseline   EntryMemo = "baseline"
	MemoRounding   EntryMemo = "rounding"
)

// LedgerEntry is one immutable double-entry record. Each entry is balanced
// by construction: Amount is debited from one account and credited to the
// other. Entries are appended in sequence order and never mutated or
// deleted; corrections are posted as reversing entries.
type LedgerEntry struct {
	Seq     int64
	Ref     string
	Debit   Account
	Credit  Account
	Amount  decimal.Decimal
	Memo    EntryMemo
	EntryAt time.Time
}

// Effect returns the entry's signed contribution to the given account's
// position: credits increase it, debits decrease it.
func (e LedgerEntry) Effect(a Account) decimal.Decimal {
	switch a {
	case e.Credit:
		return e.Amount
	case e.Debit:
		return e.Amount.Neg()
	default:
		return decimal.Zero
	}
}
