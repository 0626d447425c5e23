// Package ledger implements the double-entry accounting engine for one
// reconciliation run. The ledger is an append-only sequence of balanced
// entries over the two party accounts plus a clearing pseudo-account;
// entries are never mutated or deleted, corrections are posted as reversing
// entries.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/domain"
)

var cent = decimal.New(1, -2)

// Engine owns the ledger state for a single run. It is not safe for
// concurrent use; a run is a single-threaded batch computation.
type Engine struct {
	entries   []domain.LedgerEntry
	positions map[domain.Account]decimal.Decimal
	balance   decimal.Decimal
	nextSeq   int64
}

// New creates an empty engine with a zero balance.
func New() *Engine {
	return &Engine{
		positions: map[domain.Account]decimal.Decimal{
			domain.AccountPartyA:   decimal.Zero,
			domain.AccountPartyB:   decimal.Zero,
			domain.AccountClearing: decimal.Zero,
		},
		balance: decimal.Zero,
		nextSeq: 1,
	}
}

// Balance returns the incrementally maintained running balance: positive
// means PartyB owes PartyA.
func (e *Engine) Balance() decimal.Decimal {
	return e.balance
}

// Entries returns a copy of the full ledger in sequence order.
func (e *Engine) Entries() []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, len(e.entries))
	copy(out, e.entries)
	return out
}

// PostBaseline seeds the ledger with a synthetic settlement-equivalent
// entry so FromBaseline runs start from an agreed balance. A zero baseline
// posts nothing.
func (e *Engine) PostBaseline(b domain.Baseline) ([]domain.LedgerEntry, error) {
	signed := b.Signed()
	if signed.IsZero() {
		return nil, nil
	}

	entry := domain.LedgerEntry{
		Ref:     "baseline",
		Debit:   domain.AccountPartyB,
		Credit:  domain.AccountPartyA,
		Amount:  signed.Abs(),
		Memo:    domain.MemoBaseline,
		EntryAt: b.Date,
	}
	if signed.IsNegative() {
		entry.Debit, entry.Credit = entry.Credit, entry.Debit
	}

	return e.append(entry)
}

// Post converts one classified transaction into ledger entries and appends
// them atomically: either every entry lands or none do. A negative amount
// does not change the classification, it reverses the posting direction.
func (e *Engine) Post(tx domain.NormalizedTransaction, cls domain.Classification) ([]domain.LedgerEntry, error) {
	if !tx.HasAmount() {
		return nil, domain.ErrMissingAmount
	}
	if !tx.Payer.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPayer, tx.Payer)
	}
	if cls.Kind == domain.KindPersonal {
		// Zero shared liability at any amount, zero included; the audit
		// trail still records it.
		return nil, nil
	}
	if tx.Amount.IsZero() {
		return nil, domain.ErrZeroAmount
	}

	abs := tx.Amount.Abs()

	var entries []domain.LedgerEntry
	switch cls.Kind {
	case domain.KindSettlement:
		entries = settlementEntries(tx.Ref, abs, tx.Payer, tx.Date)

	case domain.KindUnrecognized:
		return nil, fmt.Errorf("%w: unrecognized transactions go to manual review", domain.ErrNotPostable)

	case domain.KindExpense, domain.KindRent:
		entries = expenseEntries(tx.Ref, abs, tx.Payer, cls.Split, tx.Date)

	case domain.KindIncome:
		// Income received by the payer: the counterparty is owed their
		// share, the reverse direction of an expense.
		entries = expenseEntries(tx.Ref, abs, tx.Payer, cls.Split, tx.Date)
		for i := range entries {
			entries[i].Debit, entries[i].Credit = entries[i].Credit, entries[i].Debit
		}

	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrNotPostable, cls.Kind)
	}

	if tx.Amount.IsNegative() {
		for i := range entries {
			entries[i].Debit, entries[i].Credit = entries[i].Credit, entries[i].Debit
		}
	}

	return e.append(entries...)
}

// PostSettlement posts a direct payment from one party to the other. This
// is the sole legitimate one-sided transfer; every other posting nets to
// zero between the parties.
func (e *Engine) PostSettlement(ref string, amount decimal.Decimal, from domain.Party, at time.Time) ([]domain.LedgerEntry, error) {
	if amount.IsZero() {
		return nil, domain.ErrZeroAmount
	}
	if !from.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPayer, from)
	}

	entries := settlementEntries(ref, amount.Abs(), from, at)
	if amount.IsNegative() {
		for i := range entries {
			entries[i].Debit, entries[i].Credit = entries[i].Credit, entries[i].Debit
		}
	}

	return e.append(entries...)
}

// PostReversal appends the mirror image of an existing entry. Reversal is
// the only correction mechanism; the original entry stays in place.
func (e *Engine) PostReversal(seq int64, at time.Time) ([]domain.LedgerEntry, error) {
	var original *domain.LedgerEntry
	for i := range e.entries {
		if e.entries[i].Seq == seq {
			original = &e.entries[i]
			break
		}
	}
	if original == nil {
		return nil, fmt.Errorf("no ledger entry with seq %d", seq)
	}

	return e.append(domain.LedgerEntry{
		Ref:     original.Ref,
		Debit:   original.Credit,
		Credit:  original.Debit,
		Amount:  original.Amount,
		Memo:    original.Memo,
		EntryAt: at,
	})
}

// VerifyInvariants recomputes the ledger from scratch and checks it against
// the incremental state. A violation is a programming defect; the caller
// must abort the run and leave the ledger intact for inspection.
func (e *Engine) VerifyInvariants() error {
	var totalDebits, totalCredits decimal.Decimal
	recomputed := map[domain.Account]decimal.Decimal{
		domain.AccountPartyA:   decimal.Zero,
		domain.AccountPartyB:   decimal.Zero,
		domain.AccountClearing: decimal.Zero,
	}

	for _, entry := range e.entries {
		if !entry.Amount.IsPositive() {
			return &domain.InvariantViolation{
				Check:  "positive_amounts",
				Detail: fmt.Sprintf("entry seq %d has non-positive amount %s", entry.Seq, entry.Amount),
			}
		}

		totalDebits = totalDebits.Add(entry.Amount)
		totalCredits = totalCredits.Add(entry.Amount)
		recomputed[entry.Debit] = recomputed[entry.Debit].Sub(entry.Amount)
		recomputed[entry.Credit] = recomputed[entry.Credit].Add(entry.Amount)
	}

	if !totalDebits.Equal(totalCredits) {
		return &domain.InvariantViolation{
			Check:  "debits_equal_credits",
			Detail: fmt.Sprintf("debits %s != credits %s", totalDebits, totalCredits),
		}
	}

	if !recomputed[domain.AccountClearing].IsZero() {
		return &domain.InvariantViolation{
			Check:  "clearing_nets_zero",
			Detail: fmt.Sprintf("clearing account position is %s", recomputed[domain.AccountClearing]),
		}
	}

	if !recomputed[domain.AccountPartyA].Equal(e.balance) {
		return &domain.InvariantViolation{
			Check:  "balance_matches_ledger",
			Detail: fmt.Sprintf("recomputed balance %s != running balance %s",
				recomputed[domain.AccountPartyA], e.balance),
		}
	}

	for acc, pos := range recomputed {
		if !pos.Equal(e.positions[acc]) {
			return &domain.InvariantViolation{
				Check:  "positions_match_ledger",
				Detail: fmt.Sprintf("account %s recomputed %s != tracked %s", acc, pos, e.positions[acc]),
			}
		}
	}

	return nil
}

// append validates and commits a batch of entries atomically, then runs the
// full invariant check.
func (e *Engine) append(entries ...domain.LedgerEntry) ([]domain.LedgerEntry, error) {
	committed := make([]domain.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Amount.IsZero() {
			// Shares can legitimately round to zero on sub-cent
			// amounts; a zero entry carries no information.
			continue
		}
		if entry.Amount.IsNegative() {
			return nil, &domain.InvariantViolation{
				Check:  "positive_amounts",
				Detail: fmt.Sprintf("attempted to append entry with amount %s", entry.Amount),
			}
		}
		entry.Seq = e.nextSeq
		e.nextSeq++
		committed = append(committed, entry)
	}

	for _, entry := range committed {
		e.entries = append(e.entries, entry)
		e.positions[entry.Debit] = e.positions[entry.Debit].Sub(entry.Amount)
		e.positions[entry.Credit] = e.positions[entry.Credit].Add(entry.Amount)
	}
	e.balance = e.positions[domain.AccountPartyA]

	if err := e.VerifyInvariants(); err != nil {
		return nil, err
	}

	return committed, nil
}

// settlementEntries builds the single entry for a direct payment: the payer
// paid the counterparty, which moves the balance in the payer's favor.
func settlementEntries(ref string, abs decimal.Decimal, payer domain.Party, at time.Time) []domain.LedgerEntry {
	return []domain.LedgerEntry{{
		Ref:     ref,
		Debit:   domain.AccountFor(payer.Other()),
		Credit:  domain.AccountFor(payer),
		Amount:  abs,
		Memo:    domain.MemoSettlement,
		EntryAt: at,
	}}
}

// expenseEntries builds the entries for a shared expense paid in full by
// the payer.
//
// The default even split posts one net entry for the counterparty's half;
// full reimbursement posts one net entry for the whole amount. Fixed
// percentage splits post gross through the clearing account so both
// parties' shares appear explicitly and sum exactly to the gross amount.
func expenseEntries(ref string, abs decimal.Decimal, payer domain.Party, split domain.SplitDirective, at time.Time) []domain.LedgerEntry {
	payerAcc := domain.AccountFor(payer)
	otherAcc := domain.AccountFor(payer.Other())

	switch split.Mode {
	case domain.SplitExcluded:
		return nil

	case domain.SplitFullReimbursement:
		return []domain.LedgerEntry{{
			Ref:     ref,
			Debit:   otherAcc,
			Credit:  payerAcc,
			Amount:  abs,
			Memo:    domain.MemoShare,
			EntryAt: at,
		}}

	case domain.SplitFixed:
		otherPct := split.Ratio.Percent(payer.Other())
		floor, micro := shareParts(abs, otherPct)
		payerShare := abs.Sub(floor).Sub(micro)

		entries := []domain.LedgerEntry{
			{Ref: ref, Debit: domain.AccountClearing, Credit: payerAcc, Amount: abs, Memo: domain.MemoGross, EntryAt: at},
			{Ref: ref, Debit: payerAcc, Credit: domain.AccountClearing, Amount: payerShare, Memo: domain.MemoShare, EntryAt: at},
			{Ref: ref, Debit: otherAcc, Credit: domain.AccountClearing, Amount: floor, Memo: domain.MemoShare, EntryAt: at},
		}
		if micro.IsPositive() {
			entries = append(entries, domain.LedgerEntry{
				Ref: ref, Debit: otherAcc, Credit: domain.AccountClearing, Amount: micro, Memo: domain.MemoRounding, EntryAt: at,
			})
		}
		return entries

	default: // SplitEven
		half := abs.Div(decimal.NewFromInt(2))
		// Sub-cent halves round up: toward the payer's favor.
		share := half.RoundCeil(2)
		return []domain.LedgerEntry{{
			Ref:     ref,
			Debit:   otherAcc,
			Credit:  payerAcc,
			Amount:  share,
			Memo:    domain.MemoShare,
			EntryAt: at,
		}}
	}
}

// shareParts computes the counterparty's share of abs at pct percent, split
// into a cent-exact floor and an optional one-cent rounding micro-entry.
// Rounding always goes toward the payer's favor: a sub-cent remainder costs
// the counterparty one extra cent, recorded separately so debit and credit
// totals stay exact to the cent.
func shareParts(abs, pct decimal.Decimal) (floor, micro decimal.Decimal) {
	exact := abs.Mul(pct).Div(decimal.NewFromInt(100))
	floor = exact.RoundFloor(2)
	if exact.Equal(floor) {
		return floor, decimal.Zero
	}
	return floor, cent
}
