package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"8595.87", "$8,595.87"},
		{"-8595.87", "$8,595.87"},
		{"1577.08", "$1,577.08"},
		{"1234567.5", "$1,234,567.50"},
		{"999", "$999.00"},
		{"1000", "$1,000.00"},
	}

	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		if got := FormatUSD(d); got != tt.want {
			t.Errorf("FormatUSD(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBalanceStatement(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		want    string
	}{
		{"party b owes party a", "1577.08", "PartyB owes PartyA $1,577.08"},
		{"party a owes party b", "-8595.87", "PartyA owes PartyB $8,595.87"},
		{"settled", "0", "PartyA and PartyB are settled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BalanceStatement(decimal.RequireFromString(tt.balance), "PartyA", "PartyB")
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBaselineSigned(t *testing.T) {
	b := Baseline{
		Date:      time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("1577.08"),
		Direction: DirectionBOwesA,
	}
	if !b.Signed().Equal(decimal.RequireFromString("1577.08")) {
		t.Errorf("b-owes-a baseline should be positive, got %s", b.Signed())
	}

	b.Direction = DirectionAOwesB
	if !b.Signed().Equal(decimal.RequireFromString("-1577.08")) {
		t.Errorf("a-owes-b baseline should be negative, got %s", b.Signed())
	}
}

func TestSplitRatioValid(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"even", "50", "50", true},
		{"rent split", "43", "57", true},
		{"does not sum", "43", "56", false},
		{"negative", "-10", "110", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := SplitRatio{
				PartyAPercent: decimal.RequireFromString(tt.a),
				PartyBPercent: decimal.RequireFromString(tt.b),
			}
			if got := r.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunConfigValidate(t *testing.T) {
	cfg := DefaultRunConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg.Mode = FromBaseline
	if err := cfg.Validate(); !errors.Is(err, ErrMissingBaseline) {
		t.Errorf("from-baseline without baseline: got %v, want ErrMissingBaseline", err)
	}

	cfg = DefaultRunConfig()
	cfg.RentSplit = SplitRatio{
		PartyAPercent: decimal.NewFromInt(43),
		PartyBPercent: decimal.NewFromInt(56),
	}
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidRunConfig) {
		t.Errorf("bad rent split: got %v, want ErrInvalidRunConfig", err)
	}
}

func TestLedgerEntryEffect(t *testing.T) {
	e := LedgerEntry{
		Debit:  AccountPartyB,
		Credit: AccountPartyA,
		Amount: decimal.NewFromInt(50),
	}

	if !e.Effect(AccountPartyA).Equal(decimal.NewFromInt(50)) {
		t.Errorf("credit side effect = %s, want 50", e.Effect(AccountPartyA))
	}
	if !e.Effect(AccountPartyB).Equal(decimal.NewFromInt(-50)) {
		t.Errorf("debit side effect = %s, want -50", e.Effect(AccountPartyB))
	}
	if !e.Effect(AccountClearing).IsZero() {
		t.Errorf("uninvolved account effect = %s, want 0", e.Effect(AccountClearing))
	}
}
