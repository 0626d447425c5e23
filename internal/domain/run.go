package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RunMode selects how a reconciliation run is seeded.
type RunMode string

const (
	// FromScratch starts at a zero balance and replays the full history.
	FromScratch RunMode = "from_scratch"
	// FromBaseline starts at an externally agreed balance as of a given
	// date and processes only transactions strictly after that date.
	FromBaseline RunMode = "from_baseline"
)

// Direction states who owes whom.
type Direction string

const (
	DirectionAOwesB Direction = "a_owes_b"
	DirectionBOwesA Direction = "b_owes_a"
)

// Baseline is a previously reconciled balance used to seed FromBaseline
// runs. Amount is non-negative; Direction carries the sign.
type Baseline struct {
	Date      time.Time
	Amount    decimal.Decimal
	Direction Direction
}

// Signed returns the baseline as a signed balance, positive when PartyB
// owes PartyA.
func (b Baseline) Signed() decimal.Decimal {
	if b.Direction == DirectionAOwesB {
		return b.Amount.Neg()
	}
	return b.Amount
}

// RunConfig carries the policy knobs for one reconciliation run. The rent
// split ratio and payer of record are deliberately configuration, not
// constants: the business documentation disagrees on both.
type RunConfig struct {
	Mode         RunMode
	Baseline     *Baseline
	CoverageFrom time.Time
	CoverageTo   time.Time

	RentSplit SplitRatio
	RentPayer Party

	SuspiciousThreshold decimal.Decimal
	LossySources        []string

	PartyAName string
	PartyBName string
}

// DefaultRunConfig returns a config with the documented defaults: 50/50
// rent, $10,000 suspicious threshold, generic party names.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Mode:                FromScratch,
		RentSplit:           EvenSplit(),
		RentPayer:           PartyA,
		SuspiciousThreshold: decimal.NewFromInt(10000),
		PartyAName:          "PartyA",
		PartyBName:          "PartyB",
	}
}

// Validate checks the config for fatal problems before a run starts.
func (c RunConfig) Validate() error {
	if c.Mode == FromBaseline && c.Baseline == nil {
		return ErrMissingBaseline
	}
	if c.Baseline != nil && c.Baseline.Amount.IsNegative() {
		return fmt.Errorf("%w: baseline amount must not be negative", ErrInvalidRunConfig)
	}
	if !c.RentSplit.Valid() {
		return fmt.Errorf("%w: rent split percentages must sum to 100", ErrInvalidRunConfig)
	}
	if !c.RentPayer.Valid() {
		return fmt.Errorf("%w: unknown rent payer %q", ErrInvalidRunConfig, c.RentPayer)
	}
	if c.SuspiciousThreshold.IsNegative() {
		return fmt.Errorf("%w: suspicious threshold must not be negative", ErrInvalidRunConfig)
	}
	return nil
}

// LossySource reports whether the given source is known to suffer encoding
// loss during export.
func (c RunConfig) LossySource(source string) bool {
	for _, s := range c.LossySources {
		if s == source {
			return true
		}
	}
	return false
}

// RunResult is everything one reconciliation run produces. It is assembled
// once, after the final invariant check, and never mutated afterwards.
type RunResult struct {
	RunID      string
	Mode       RunMode
	StartedAt  time.Time
	FinishedAt time.Time

	Entries     []LedgerEntry
	Audit       []AuditTrailEntry
	Issues      []DataQualityIssue
	ReviewQueue []ManualReviewItem

	FinalBalance decimal.Decimal
	Statement    string

	Processed      int
	Posted         int
	Flagged        int
	SkippedByRange int
}

// BalanceStatement renders a signed balance as a human-readable direction,
// e.g. "PartyA owes PartyB $8,595.87". Positive balances mean PartyB owes
// PartyA.
func BalanceStatement(balance decimal.Decimal, partyAName, partyBName string) string {
	switch {
	case balance.IsZero():
		return fmt.Sprintf("%s and %s are settled", partyAName, partyBName)
	case balance.IsPositive():
		return fmt.Sprintf("%s owes %s %s", partyBName, partyAName, FormatUSD(balance))
	default:
		return fmt.Sprintf("%s owes %s %s", partyAName, partyBName, FormatUSD(balance.Neg()))
	}
}

// FormatUSD renders a non-negative decimal as a dollar string with
// thousands separators, e.g. "$8,595.87".
func FormatUSD(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return "$" + b.String() + "." + fracPart
}
