package domain

// IssueKind names a data-quality anomaly.
type IssueKind string

const (
	IssueMissingAmount    IssueKind = "missing_amount"
	IssueSuspiciousAmount IssueKind = "suspicious_amount"
	IssueDateAnomaly      IssueKind = "date_anomaly"
)

// IssueSeverity grades an issue. Issues are advisory; severity never blocks
// posting by itself.
type IssueSeverity string

const (
	SeverityWarning IssueSeverity = "warning"
	SeverityError   IssueSeverity = "error"
)

// DataQualityIssue is an anomaly detected on a single transaction,
// independent of classification. Issues are always recorded in the audit
// trail; some additionally force the transaction into manual review.
type DataQualityIssue struct {
	Ref      string
	Kind     IssueKind
	Severity IssueSeverity
	Detail   string
}
