package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/splitledger/splitledger/internal/domain"
)

// Classifier maps a transaction's free-text description to a classification
// and split directive by evaluating an ordered rule table. It is stateless
// after construction and safe for concurrent use.
type Classifier struct {
	rules     []Rule
	rentSplit domain.SplitRatio
}

// Options configures a Classifier.
type Options struct {
	// Rules overrides the built-in table. Nil means DefaultRules.
	Rules []Rule
	// RentSplit is the ratio applied to fixed-split rules. The business
	// documentation disagrees on the rent ratio, so it is injected per
	// run rather than hardcoded.
	RentSplit domain.SplitRatio
}

// New builds a Classifier and lint-checks the rule table for overlapping
// matches. An overlap is a construction defect, not a data problem.
func New(opts Options) (*Classifier, error) {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	rentSplit := opts.RentSplit
	if rentSplit.PartyAPercent.IsZero() && rentSplit.PartyBPercent.IsZero() {
		rentSplit = domain.EvenSplit()
	}

	if err := lintRules(rules); err != nil {
		return nil, err
	}

	return &Classifier{rules: rules, rentSplit: rentSplit}, nil
}

// Classify is total: it always returns a classification, falling back to
// Unrecognized with low confidence rather than failing. The amount's sign
// never changes the classification; it only affects ledger direction.
func (c *Classifier) Classify(tx domain.NormalizedTransaction) domain.Classification {
	desc := normalize(tx.Description)

	if garbled(tx.Description) {
		return domain.Classification{
			Kind:       domain.KindUnrecognized,
			Split:      domain.SplitDirective{Mode: domain.SplitExcluded},
			Confidence: domain.ConfidenceLow,
			Rule:       "garbled",
		}
	}

	var (
		winner   *Rule
		matched  []string
		fullHits int
	)

	for i := range c.rules {
		r := &c.rules[i]
		full, partial := r.match(desc)

		if full {
			if winner == nil {
				winner = r
			}
			fullHits++
		}
		if full || partial {
			matched = append(matched, r.Name)
		}
	}

	if winner == nil {
		// Default 50/50 expense. A lone partial match elsewhere in the
		// table does not beat the fallback but two or more mark the
		// description ambiguous.
		cls := domain.Classification{
			Kind:         domain.KindExpense,
			Split:        domain.SplitDirective{Mode: domain.SplitEven},
			Confidence:   domain.ConfidenceHigh,
			Rule:         "default",
			MatchedRules: matched,
		}
		if len(matched) > 1 {
			cls.Confidence = domain.ConfidenceLow
		}
		return cls
	}

	cls := domain.Classification{
		Kind:         winner.Kind,
		Split:        domain.SplitDirective{Mode: winner.Split},
		Confidence:   domain.ConfidenceHigh,
		Rule:         winner.Name,
		MatchedRules: matched,
	}

	if winner.Split == domain.SplitFixed {
		cls.Split.Ratio = c.rentSplit
	}

	// Only a second full match makes a winning rule ambiguous. A keyword
	// fragment buried inside a longer word ("rent" in "parent") does not
	// demote an unambiguous whole-word match.
	if fullHits > 1 {
		cls.Confidence = domain.ConfidenceLow
	}

	return cls
}

// match reports whether the rule matches desc fully (a keyword appears as
// whole words) or partially (a keyword appears only inside a larger word).
// desc must already be normalized.
func (r *Rule) match(desc string) (full, partial bool) {
	padded := " " + desc + " "
	for _, kw := range r.Keywords {
		k := normalize(kw)
		if k == "" {
			continue
		}
		if strings.Contains(padded, " "+k+" ") {
			full = true
			continue
		}
		if strings.Contains(desc, k) {
			partial = true
		}
	}
	return full, partial
}

// normalize lowercases and collapses every non-alphanumeric rune to a
// single space so keyword matching is punctuation-insensitive.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// garbled reports descriptions the decoder cannot trust: empty strings,
// encoding artifacts, or text with no letters at all.
func garbled(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}
	if strings.ContainsRune(s, utf8.RuneError) {
		return true
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
