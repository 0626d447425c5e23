// Package quality evaluates normalized transactions for data anomalies
// independent of classification. Issues are advisory: they are always
// recorded in the audit trail, and only some of them additionally force a
// transaction into manual review.
package quality

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/domain"
)

// Inspector checks each transaction against the run's quality policy.
type Inspector struct {
	threshold    decimal.Decimal
	lossySources map[string]bool
	windowFrom   time.Time
	windowTo     time.Time
}

// Options configures an Inspector.
type Options struct {
	// SuspiciousThreshold marks any |amount| above it as suspicious.
	// Zero falls back to the documented default of 10,000.
	SuspiciousThreshold decimal.Decimal
	// LossySources are source identifiers known to suffer encoding loss;
	// absent amounts from them are expected rather than surprising.
	LossySources []string
	// WindowFrom and WindowTo bound the run's declared coverage window.
	WindowFrom time.Time
	WindowTo   time.Time
}

// New builds an Inspector.
func New(opts Options) *Inspector {
	threshold := opts.SuspiciousThreshold
	if threshold.IsZero() {
		threshold = decimal.NewFromInt(10000)
	}

	lossy := make(map[string]bool, len(opts.LossySources))
	for _, s := range opts.LossySources {
		lossy[s] = true
	}

	return &Inspector{
		threshold:    threshold,
		lossySources: lossy,
		windowFrom:   opts.WindowFrom,
		windowTo:     opts.WindowTo,
	}
}

// Inspect returns zero or more issues for one transaction. It never fails
// and never mutates the transaction.
func (i *Inspector) Inspect(tx domain.NormalizedTransaction) []domain.DataQualityIssue {
	var issues []domain.DataQualityIssue

	if !tx.HasAmount() {
		detail := "amount absent"
		if i.lossySources[tx.Source] {
			detail = fmt.Sprintf("amount absent (source %q is known to lose fields)", tx.Source)
		}
		issues = append(issues, domain.DataQualityIssue{
			Ref:      tx.Ref,
			Kind:     domain.IssueMissingAmount,
			Severity: domain.SeverityError,
			Detail:   detail,
		})
	}

	if tx.HasAmount() && tx.Amount.Abs().GreaterThan(i.threshold) {
		issues = append(issues, domain.DataQualityIssue{
			Ref:      tx.Ref,
			Kind:     domain.IssueSuspiciousAmount,
			Severity: domain.SeverityWarning,
			Detail:   fmt.Sprintf("absolute amount %s exceeds threshold %s", tx.Amount.Abs(), i.threshold),
		})
	}

	if issue, anomalous := i.dateIssue(tx); anomalous {
		issues = append(issues, issue)
	}

	return issues
}

func (i *Inspector) dateIssue(tx domain.NormalizedTransaction) (domain.DataQualityIssue, bool) {
	if tx.Date.IsZero() {
		return domain.DataQualityIssue{
			Ref:      tx.Ref,
			Kind:     domain.IssueDateAnomaly,
			Severity: domain.SeverityError,
			Detail:   "transaction date is missing or unparseable",
		}, true
	}

	outside := (!i.windowFrom.IsZero() && tx.Date.Before(i.windowFrom)) ||
		(!i.windowTo.IsZero() && tx.Date.After(i.windowTo))
	if outside {
		return domain.DataQualityIssue{
			Ref:      tx.Ref,
			Kind:     domain.IssueDateAnomaly,
			Severity: domain.SeverityWarning,
			Detail: fmt.Sprintf("date %s falls outside coverage window %s..%s",
				tx.Date.Format("2006-01-02"), i.windowFrom.Format("2006-01-02"), i.windowTo.Format("2006-01-02")),
		}, true
	}

	return domain.DataQualityIssue{}, false
}
