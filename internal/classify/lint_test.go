package classify

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/splitledger/splitledger/internal/domain"
)

func TestLintDefaultRules(t *testing.T) {
	if err := Lint(DefaultRules()); err != nil {
		t.Fatalf("built-in rule table must be exclusive: %v", err)
	}
}

func TestLintRejectsOverlap(t *testing.T) {
	rules := []Rule{
		{
			Name:      "rent",
			Kind:      domain.KindRent,
			Split:     domain.SplitFixed,
			Keywords:  []string{"rent"},
			Canonical: []string{"October rent payment"},
		},
		{
			Name:      "payments",
			Kind:      domain.KindSettlement,
			Split:     domain.SplitExcluded,
			Keywords:  []string{"payment"},
			Canonical: []string{"Payment received"},
		},
	}

	err := Lint(rules)
	if !errors.Is(err, domain.ErrRuleOverlap) {
		t.Fatalf("expected ErrRuleOverlap, got %v", err)
	}
}

func TestLintRejectsDuplicateNames(t *testing.T) {
	rules := []Rule{
		{Name: "a", Kind: domain.KindExpense, Split: domain.SplitEven, Keywords: []string{"one"}, Canonical: []string{"one"}},
		{Name: "a", Kind: domain.KindExpense, Split: domain.SplitEven, Keywords: []string{"two"}, Canonical: []string{"two"}},
	}

	if err := Lint(rules); !errors.Is(err, domain.ErrRuleOverlap) {
		t.Fatalf("expected ErrRuleOverlap for duplicate names, got %v", err)
	}
}

func TestLintRejectsRuleMissingOwnCanonical(t *testing.T) {
	rules := []Rule{
		{
			Name:      "rent",
			Kind:      domain.KindRent,
			Split:     domain.SplitFixed,
			Keywords:  []string{"rent"},
			Canonical: []string{"Monthly housing"},
		},
	}

	if err := Lint(rules); !errors.Is(err, domain.ErrRuleOverlap) {
		t.Fatalf("expected ErrRuleOverlap for unmatched canonical, got %v", err)
	}
}

func TestNewRejectsOverlappingTable(t *testing.T) {
	rules := []Rule{
		{Name: "x", Kind: domain.KindExpense, Split: domain.SplitEven, Keywords: []string{"shared"}, Canonical: []string{"shared word"}},
		{Name: "y", Kind: domain.KindIncome, Split: domain.SplitEven, Keywords: []string{"shared"}, Canonical: []string{"shared term"}},
	}

	if _, err := New(Options{Rules: rules}); !errors.Is(err, domain.ErrRuleOverlap) {
		t.Fatalf("expected construction failure, got %v", err)
	}
}

func TestLoadRules(t *testing.T) {
	content := `rules:
  - name: settlement
    kind: settlement
    split: excluded
    keywords: ["venmo", "zelle"]
    canonical: ["Venmo from roommate"]
  - name: rent
    kind: rent
    split: fixed
    keywords: ["rent"]
    canonical: ["October rent"]
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if rules[0].Name != "settlement" || rules[0].Kind != domain.KindSettlement {
		t.Errorf("first rule = %+v, want settlement", rules[0])
	}
	if rules[1].Split != domain.SplitFixed {
		t.Errorf("rent split mode = %s, want fixed", rules[1].Split)
	}
}

func TestLoadRulesRejectsBadKind(t *testing.T) {
	content := `rules:
  - name: weird
    kind: mystery
    split: even
    keywords: ["x"]
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
