package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditAction records what the reconciler did with a transaction.
type AuditAction string

const (
	AuditPosted   AuditAction = "posted"
	AuditFlagged  AuditAction = "flagged"
	AuditExcluded AuditAction = "excluded"
	AuditBaseline AuditAction = "baseline"
)

// AuditTrailEntry is one append-only record per transaction processed. The
// trail carries the classification decision, the sequence numbers of any
// ledger entries produced, the issues raised, and the signed balance delta,
// so the final balance can be reconstructed from the trail alone.
type AuditTrailEntry struct {
	Seq          int64
	Ref          string
	Date         time.Time
	Description  string
	Amount       *decimal.Decimal
	Payer        Party
	Source       string
	Action       AuditAction
	Kind         Kind
	Confidence   Confidence
	Rule         string
	EntrySeqs    []int64
	Issues       []IssueKind
	Reasons      []ReviewReason
	Delta        decimal.Decimal
	BalanceAfter decimal.Decimal
}
