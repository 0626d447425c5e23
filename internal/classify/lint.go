package classify

import (
	"fmt"

	"github.com/splitledger/splitledger/internal/domain"
)

// lintRules enforces mutual exclusivity by construction: no rule may fully
// match another rule's canonical example strings. The check runs at
// construction time so an overlapping table can never classify anything.
func lintRules(rules []Rule) error {
	seen := make(map[string]int, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return fmt.Errorf("%w: rule %d has no name", domain.ErrRuleOverlap, i)
		}
		if prev, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: rules %d and %d share the name %q", domain.ErrRuleOverlap, prev, i, r.Name)
		}
		seen[r.Name] = i
	}

	for i, owner := range rules {
		for _, canonical := range owner.Canonical {
			desc := normalize(canonical)

			if full, _ := owner.match(desc); !full {
				return fmt.Errorf("%w: rule %q does not match its own canonical string %q",
					domain.ErrRuleOverlap, owner.Name, canonical)
			}

			for j := range rules {
				if j == i {
					continue
				}
				if full, _ := rules[j].match(desc); full {
					return fmt.Errorf("%w: rule %q also matches rule %q canonical string %q",
						domain.ErrRuleOverlap, rules[j].Name, owner.Name, canonical)
				}
			}
		}
	}

	return nil
}

// Lint exposes the exclusivity check for external callers (CLI lint
// command, rule file validation).
func Lint(rules []Rule) error {
	return lintRules(rules)
}
