package quality

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/domain"
)

func amt(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testInspector() *Inspector {
	return New(Options{
		SuspiciousThreshold: decimal.NewFromInt(10000),
		LossySources:        []string{"relaypay"},
		WindowFrom:          time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		WindowTo:            time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
	})
}

func TestInspect(t *testing.T) {
	inWindow := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		tx        domain.NormalizedTransaction
		wantKinds []domain.IssueKind
	}{
		{
			name:      "clean transaction",
			tx:        domain.NormalizedTransaction{Ref: "t1", Source: "chase", Date: inWindow, Amount: amt("42.50")},
			wantKinds: nil,
		},
		{
			name:      "missing amount",
			tx:        domain.NormalizedTransaction{Ref: "t2", Source: "relaypay", Date: inWindow},
			wantKinds: []domain.IssueKind{domain.IssueMissingAmount},
		},
		{
			name:      "missing amount from clean source still flagged",
			tx:        domain.NormalizedTransaction{Ref: "t3", Source: "chase", Date: inWindow},
			wantKinds: []domain.IssueKind{domain.IssueMissingAmount},
		},
		{
			name:      "suspicious amount",
			tx:        domain.NormalizedTransaction{Ref: "t4", Source: "chase", Date: inWindow, Amount: amt("12000")},
			wantKinds: []domain.IssueKind{domain.IssueSuspiciousAmount},
		},
		{
			name:      "suspicious negative amount",
			tx:        domain.NormalizedTransaction{Ref: "t5", Source: "chase", Date: inWindow, Amount: amt("-10000.01")},
			wantKinds: []domain.IssueKind{domain.IssueSuspiciousAmount},
		},
		{
			name:      "threshold is exclusive",
			tx:        domain.NormalizedTransaction{Ref: "t6", Source: "chase", Date: inWindow, Amount: amt("10000")},
			wantKinds: nil,
		},
		{
			name:      "date before window",
			tx:        domain.NormalizedTransaction{Ref: "t7", Source: "chase", Date: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), Amount: amt("10")},
			wantKinds: []domain.IssueKind{domain.IssueDateAnomaly},
		},
		{
			name:      "date after window",
			tx:        domain.NormalizedTransaction{Ref: "t8", Source: "chase", Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), Amount: amt("10")},
			wantKinds: []domain.IssueKind{domain.IssueDateAnomaly},
		},
		{
			name:      "zero date",
			tx:        domain.NormalizedTransaction{Ref: "t9", Source: "chase", Amount: amt("10")},
			wantKinds: []domain.IssueKind{domain.IssueDateAnomaly},
		},
		{
			name:      "missing amount and bad date stack",
			tx:        domain.NormalizedTransaction{Ref: "t10", Source: "relaypay"},
			wantKinds: []domain.IssueKind{domain.IssueMissingAmount, domain.IssueDateAnomaly},
		},
	}

	insp := testInspector()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := insp.Inspect(tt.tx)

			if len(issues) != len(tt.wantKinds) {
				t.Fatalf("got %d issues %v, want %d", len(issues), issues, len(tt.wantKinds))
			}
			for i, want := range tt.wantKinds {
				if issues[i].Kind != want {
					t.Errorf("issue %d kind = %s, want %s", i, issues[i].Kind, want)
				}
				if issues[i].Ref != tt.tx.Ref {
					t.Errorf("issue %d ref = %s, want %s", i, issues[i].Ref, tt.tx.Ref)
				}
			}
		})
	}
}

func TestInspectZeroAmountIsNotMissing(t *testing.T) {
	insp := testInspector()

	issues := insp.Inspect(domain.NormalizedTransaction{
		Ref:    "t11",
		Source: "chase",
		Date:   time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC),
		Amount: amt("0"),
	})
	if len(issues) != 0 {
		t.Fatalf("zero is a real value, not an anomaly; got %v", issues)
	}
}

func TestInspectDefaultThreshold(t *testing.T) {
	insp := New(Options{})

	issues := insp.Inspect(domain.NormalizedTransaction{
		Ref:    "t12",
		Source: "chase",
		Date:   time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC),
		Amount: amt("10000.01"),
	})
	if len(issues) != 1 || issues[0].Kind != domain.IssueSuspiciousAmount {
		t.Fatalf("default threshold should flag 10000.01, got %v", issues)
	}
}
