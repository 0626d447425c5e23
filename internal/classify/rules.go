package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/splitledger/splitledger/internal/domain"
)

// Rule is one row of the ordered classification table. Rules are evaluated
// top to bottom and the first full match wins. Keywords match on word
// boundaries after normalization. Canonical holds example descriptions used
// by the exclusivity lint: no other rule may match another rule's canonical
// strings.
type Rule struct {
	Name      string          `yaml:"name"`
	Kind      domain.Kind     `yaml:"kind"`
	Split     domain.SplitMode `yaml:"split"`
	Keywords  []string        `yaml:"keywords"`
	Canonical []string        `yaml:"canonical"`
}

// DefaultRules returns the built-in rule table in precedence order:
// settlement markers, then category keywords, then the multiplier marker,
// then gift markers. The 50/50 expense fallback is not a table row; it
// applies when nothing matches.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "settlement",
			Kind:     domain.KindSettlement,
			Split:    domain.SplitExcluded,
			Keywords: []string{"venmo", "zelle", "e-transfer", "etransfer", "interac", "paid back"},
			Canonical: []string{
				"Venmo from roommate",
				"Interac e-transfer received",
			},
		},
		{
			Name:     "rent",
			Kind:     domain.KindRent,
			Split:    domain.SplitFixed,
			Keywords: []string{"rent", "lease"},
			Canonical: []string{
				"October rent",
				"Monthly lease installment",
			},
		},
		{
			Name:     "utilities",
			Kind:     domain.KindExpense,
			Split:    domain.SplitEven,
			Keywords: []string{"hydro", "electric", "utilities", "utility", "internet", "water"},
			Canonical: []string{
				"Hydro bill",
				"Internet service monthly",
			},
		},
		{
			Name:     "income",
			Kind:     domain.KindIncome,
			Split:    domain.SplitEven,
			Keywords: []string{"payroll", "salary", "deposit", "refund"},
			Canonical: []string{
				"Payroll deposit",
				"Salary",
			},
		},
		{
			// A literal "2x" in a description is a categorical marker
			// meaning the counterparty owes the full amount. It never
			// doubles the amount arithmetically.
			Name:     "multiplier",
			Kind:     domain.KindExpense,
			Split:    domain.SplitFullReimbursement,
			Keywords: []string{"2x"},
			Canonical: []string{
				"Groceries 2x",
			},
		},
		{
			Name:     "gift",
			Kind:     domain.KindPersonal,
			Split:    domain.SplitExcluded,
			Keywords: []string{"gift", "birthday", "bday"},
			Canonical: []string{
				"Birthday gift for mom",
			},
		},
	}
}

// rulesFile is the on-disk YAML shape for rule overrides.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a full replacement rule table from a YAML file. The file
// replaces the built-in table wholesale; precedence is file order.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}

	for i, r := range f.Rules {
		if err := validateRule(r); err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Name, err)
		}
	}

	return f.Rules, nil
}

func validateRule(r Rule) error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("rule has no keywords")
	}

	switch r.Kind {
	case domain.KindExpense, domain.KindIncome, domain.KindPersonal,
		domain.KindRent, domain.KindSettlement:
	default:
		return fmt.Errorf("unknown kind %q", r.Kind)
	}

	switch r.Split {
	case domain.SplitEven, domain.SplitFixed, domain.SplitFullReimbursement, domain.SplitExcluded:
	default:
		return fmt.Errorf("unknown split mode %q", r.Split)
	}

	return nil
}
