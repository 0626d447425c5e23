package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/domain"
)

var testDate = time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)

func amt(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func evenExpense(ref, amount string, payer domain.Party) (domain.NormalizedTransaction, domain.Classification) {
	tx := domain.NormalizedTransaction{
		Ref:    ref,
		Source: "chase",
		Date:   testDate,
		Amount: amt(amount),
		Payer:  payer,
	}
	cls := domain.Classification{
		Kind:       domain.KindExpense,
		Split:      domain.SplitDirective{Mode: domain.SplitEven},
		Confidence: domain.ConfidenceHigh,
	}
	return tx, cls
}

func TestPostEvenSplit(t *testing.T) {
	e := New()

	tx, cls := evenExpense("t1", "100", domain.PartyA)
	entries, err := e.Post(tx, cls)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("even split must post one net entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Debit != domain.AccountPartyB || got.Credit != domain.AccountPartyA {
		t.Errorf("entry direction = %s->%s, want party_b->party_a", got.Debit, got.Credit)
	}
	if !got.Amount.Equal(dec("50")) {
		t.Errorf("share = %s, want 50", got.Amount)
	}
	if !e.Balance().Equal(dec("50")) {
		t.Errorf("balance = %s, want 50", e.Balance())
	}
}

func TestPostEvenSplitSubCentRoundsTowardPayer(t *testing.T) {
	e := New()

	tx, cls := evenExpense("t1", "0.01", domain.PartyA)
	entries, err := e.Post(tx, cls)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(entries) != 1 || !entries[0].Amount.Equal(dec("0.01")) {
		t.Fatalf("half a cent owed must round up to the payer's favor, got %v", entries)
	}
}

func TestPostFullReimbursement(t *testing.T) {
	e := New()

	tx, cls := evenExpense("t1", "80", domain.PartyB)
	cls.Split.Mode = domain.SplitFullReimbursement

	entries, err := e.Post(tx, cls)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(entries) != 1 || !entries[0].Amount.Equal(dec("80")) {
		t.Fatalf("full reimbursement must post the whole amount, got %v", entries)
	}
	if !e.Balance().Equal(dec("-80")) {
		t.Errorf("balance = %s, want -80 (party_a owes party_b)", e.Balance())
	}
}

func TestPostFixedSplitExact(t *testing.T) {
	e := New()

	tx := domain.NormalizedTransaction{Ref: "rent-1", Date: testDate, Amount: amt("1000.00"), Payer: domain.PartyA}
	cls := domain.Classification{
		Kind: domain.KindRent,
		Split: domain.SplitDirective{
			Mode: domain.SplitFixed,
			Ratio: domain.SplitRatio{
				PartyAPercent: dec("43"),
				PartyBPercent: dec("57"),
			},
		},
		Confidence: domain.ConfidenceHigh,
	}

	entries, err := e.Post(tx, cls)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	// Gross through clearing plus both shares; no rounding entry needed.
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3: %v", len(entries), entries)
	}

	shareSum := decimal.Zero
	for _, entry := range entries {
		if entry.Memo == domain.MemoShare || entry.Memo == domain.MemoRounding {
			shareSum = shareSum.Add(entry.Amount)
		}
	}
	if !shareSum.Equal(dec("1000.00")) {
		t.Errorf("shares sum to %s, want exactly 1000.00", shareSum)
	}

	if !e.Balance().Equal(dec("570")) {
		t.Errorf("balance = %s, want 570", e.Balance())
	}
	if err := e.VerifyInvariants(); err != nil {
		t.Errorf("invariants after fixed split: %v", err)
	}
}

func TestPostFixedSplitRoundsWithMicroEntry(t *testing.T) {
	e := New()

	tx := domain.NormalizedTransaction{Ref: "rent-2", Date: testDate, Amount: amt("100.01"), Payer: domain.PartyA}
	cls := domain.Classification{
		Kind: domain.KindRent,
		Split: domain.SplitDirective{
			Mode: domain.SplitFixed,
			Ratio: domain.SplitRatio{
				PartyAPercent: dec("43"),
				PartyBPercent: dec("57"),
			},
		},
	}

	entries, err := e.Post(tx, cls)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	var micro *domain.LedgerEntry
	shareSum := decimal.Zero
	for i, entry := range entries {
		if entry.Memo == domain.MemoRounding {
			micro = &entries[i]
		}
		if entry.Memo == domain.MemoShare || entry.Memo == domain.MemoRounding {
			shareSum = shareSum.Add(entry.Amount)
		}
	}

	if micro == nil {
		t.Fatal("expected a rounding micro-entry for 57% of 100.01")
	}
	if !micro.Amount.Equal(dec("0.01")) {
		t.Errorf("micro-entry amount = %s, want 0.01", micro.Amount)
	}
	if !shareSum.Equal(dec("100.01")) {
		t.Errorf("shares sum to %s, want exactly 100.01 (no leakage)", shareSum)
	}

	// 57.0057 rounds to 57.01: toward the payer.
	if !e.Balance().Equal(dec("57.01")) {
		t.Errorf("balance = %s, want 57.01", e.Balance())
	}
}

func TestPostSettlement(t *testing.T) {
	e := New()

	// PartyA owes PartyB 120 after an expense paid by B.
	tx, cls := evenExpense("t1", "240", domain.PartyB)
	if _, err := e.Post(tx, cls); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if !e.Balance().Equal(dec("-120")) {
		t.Fatalf("balance = %s, want -120", e.Balance())
	}

	// A pays B 120 directly; balance settles to zero.
	entries, err := e.PostSettlement("s1", dec("120"), domain.PartyA, testDate)
	if err != nil {
		t.Fatalf("PostSettlement: %v", err)
	}
	if len(entries) != 1 || entries[0].Memo != domain.MemoSettlement {
		t.Fatalf("expected one settlement entry, got %v", entries)
	}
	if !e.Balance().IsZero() {
		t.Errorf("balance after settlement = %s, want 0", e.Balance())
	}
}

func TestPostNegativeAmountReversesDirection(t *testing.T) {
	e := New()

	tx, cls := evenExpense("t1", "-100", domain.PartyA)
	entries, err := e.Post(tx, cls)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if entries[0].Debit != domain.AccountPartyA || entries[0].Credit != domain.AccountPartyB {
		t.Errorf("refund must reverse direction, got %s->%s", entries[0].Debit, entries[0].Credit)
	}
	if !e.Balance().Equal(dec("-50")) {
		t.Errorf("balance = %s, want -50", e.Balance())
	}
}

func TestPostPersonalProducesNoEntries(t *testing.T) {
	e := New()

	tx, cls := evenExpense("t1", "200", domain.PartyA)
	cls.Kind = domain.KindPersonal
	cls.Split.Mode = domain.SplitExcluded

	entries, err := e.Post(tx, cls)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("personal transactions carry zero shared liability, got %v", entries)
	}
	if !e.Balance().IsZero() {
		t.Errorf("balance = %s, want 0", e.Balance())
	}
}

func TestPostPersonalZeroAmount(t *testing.T) {
	e := New()

	tx, cls := evenExpense("t1", "0", domain.PartyA)
	cls.Kind = domain.KindPersonal
	cls.Split.Mode = domain.SplitExcluded

	entries, err := e.Post(tx, cls)
	if err != nil {
		t.Fatalf("a zero-amount personal transaction must not error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("personal transactions carry zero shared liability, got %v", entries)
	}
	if !e.Balance().IsZero() {
		t.Errorf("balance = %s, want 0", e.Balance())
	}
}

func TestPostValidation(t *testing.T) {
	e := New()

	tx, cls := evenExpense("t1", "10", domain.PartyA)
	tx.Amount = nil
	if _, err := e.Post(tx, cls); !errors.Is(err, domain.ErrMissingAmount) {
		t.Errorf("missing amount: got %v", err)
	}

	tx, cls = evenExpense("t2", "0", domain.PartyA)
	if _, err := e.Post(tx, cls); !errors.Is(err, domain.ErrZeroAmount) {
		t.Errorf("zero amount: got %v", err)
	}

	tx, cls = evenExpense("t3", "10", domain.Party("landlord"))
	if _, err := e.Post(tx, cls); !errors.Is(err, domain.ErrUnknownPayer) {
		t.Errorf("unknown payer: got %v", err)
	}

	tx, cls = evenExpense("t4", "10", domain.PartyA)
	cls.Kind = domain.KindUnrecognized
	if _, err := e.Post(tx, cls); !errors.Is(err, domain.ErrNotPostable) {
		t.Errorf("unrecognized: got %v", err)
	}
}

func TestPostBaseline(t *testing.T) {
	tests := []struct {
		name      string
		direction domain.Direction
		amount    string
		want      string
		entries   int
	}{
		{"party b owes party a", domain.DirectionBOwesA, "1577.08", "1577.08", 1},
		{"party a owes party b", domain.DirectionAOwesB, "200", "-200", 1},
		{"zero baseline posts nothing", domain.DirectionBOwesA, "0", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			entries, err := e.PostBaseline(domain.Baseline{
				Date:      testDate,
				Amount:    dec(tt.amount),
				Direction: tt.direction,
			})
			if err != nil {
				t.Fatalf("PostBaseline: %v", err)
			}
			if len(entries) != tt.entries {
				t.Fatalf("got %d entries, want %d", len(entries), tt.entries)
			}
			if !e.Balance().Equal(dec(tt.want)) {
				t.Errorf("balance = %s, want %s", e.Balance(), tt.want)
			}
		})
	}
}

func TestPostReversal(t *testing.T) {
	e := New()

	tx, cls := evenExpense("t1", "100", domain.PartyA)
	entries, err := e.Post(tx, cls)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if _, err := e.PostReversal(entries[0].Seq, testDate); err != nil {
		t.Fatalf("PostReversal: %v", err)
	}
	if !e.Balance().IsZero() {
		t.Errorf("balance after reversal = %s, want 0", e.Balance())
	}
	if len(e.Entries()) != 2 {
		t.Errorf("reversal must append, not delete: %d entries", len(e.Entries()))
	}

	if _, err := e.PostReversal(999, testDate); err == nil {
		t.Error("reversing an unknown seq must fail")
	}
}

func TestEntriesAreSequencedAndImmutable(t *testing.T) {
	e := New()

	for i, amount := range []string{"10", "20", "30"} {
		tx, cls := evenExpense("t", amount, domain.PartyA)
		tx.Ref = string(rune('a' + i))
		if _, err := e.Post(tx, cls); err != nil {
			t.Fatalf("Post: %v", err)
		}
	}

	entries := e.Entries()
	for i, entry := range entries {
		if entry.Seq != int64(i+1) {
			t.Errorf("entry %d seq = %d, want %d", i, entry.Seq, i+1)
		}
	}

	// Mutating the returned slice must not touch the ledger.
	entries[0].Amount = dec("999")
	if e.Entries()[0].Amount.Equal(dec("999")) {
		t.Error("Entries() must return a copy")
	}
}

func TestVerifyInvariantsDetectsCorruption(t *testing.T) {
	e := New()

	tx, cls := evenExpense("t1", "100", domain.PartyA)
	if _, err := e.Post(tx, cls); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if err := e.VerifyInvariants(); err != nil {
		t.Fatalf("clean ledger must verify: %v", err)
	}

	e.balance = e.balance.Add(dec("0.01"))
	err := e.VerifyInvariants()
	if err == nil {
		t.Fatal("corrupted running balance must be detected")
	}
	if !domain.IsInvariantViolation(err) {
		t.Errorf("expected InvariantViolation, got %T", err)
	}
}

func TestDeterministicPosting(t *testing.T) {
	build := func() *Engine {
		e := New()
		for _, tc := range []struct {
			ref, amount string
			payer       domain.Party
		}{
			{"a", "123.45", domain.PartyA},
			{"b", "67.89", domain.PartyB},
			{"c", "1000.01", domain.PartyA},
		} {
			tx, cls := evenExpense(tc.ref, tc.amount, tc.payer)
			if _, err := e.Post(tx, cls); err != nil {
				t.Fatalf("Post: %v", err)
			}
		}
		return e
	}

	first := build()
	second := build()

	a, b := first.Entries(), second.Entries()
	if len(a) != len(b) {
		t.Fatalf("entry counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Seq != b[i].Seq || a[i].Ref != b[i].Ref || !a[i].Amount.Equal(b[i].Amount) ||
			a[i].Debit != b[i].Debit || a[i].Credit != b[i].Credit {
			t.Errorf("entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if !first.Balance().Equal(second.Balance()) {
		t.Errorf("balances differ: %s vs %s", first.Balance(), second.Balance())
	}
}
