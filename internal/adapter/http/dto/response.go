package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/domain"
)

// EntryResponse represents one ledger entry in API responses.
type EntryResponse struct {
	Seq     int64           `json:"seq"`
	Ref     string          `json:"ref"`
	Debit   string          `json:"debit_account"`
	Credit  string          `json:"credit_account"`
	Amount  decimal.Decimal `json:"amount"`
	Memo    string          `json:"memo"`
	EntryAt time.Time       `json:"entry_at"`
}

// IssueResponse represents a data quality issue.
type IssueResponse struct {
	Ref      string `json:"ref"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Detail   string `json:"detail,omitempty"`
}

// ReviewItemResponse represents one manual review item.
type ReviewItemResponse struct {
	Ref         string     `json:"ref"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description"`
	Amount      *string    `json:"amount,omitempty"`
	Payer       string     `json:"payer"`
	Source      string     `json:"source"`
	Reasons     []string   `json:"reasons"`
}

// RunResponse represents a full reconciliation run.
type RunResponse struct {
	RunID      string    `json:"run_id"`
	Mode       string    `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	FinalBalance decimal.Decimal `json:"final_balance"`
	Statement    string          `json:"statement"`

	Processed      int `json:"processed"`
	Posted         int `json:"posted"`
	Flagged        int `json:"flagged"`
	SkippedByRange int `json:"skipped_by_range"`

	Entries     []EntryResponse      `json:"entries,omitempty"`
	Issues      []IssueResponse      `json:"issues,omitempty"`
	ReviewQueue []ReviewItemResponse `json:"review_queue,omitempty"`
}

// RunSummaryResponse is the list form of a run, without entries or queue.
type RunSummaryResponse struct {
	RunID          string          `json:"run_id"`
	Mode           string          `json:"mode"`
	StartedAt      time.Time       `json:"started_at"`
	FinishedAt     time.Time       `json:"finished_at"`
	FinalBalance   decimal.Decimal `json:"final_balance"`
	Statement      string          `json:"statement"`
	Processed      int             `json:"processed"`
	Posted         int             `json:"posted"`
	Flagged        int             `json:"flagged"`
	SkippedByRange int             `json:"skipped_by_range"`
}

// ExportResponse reports a review queue export.
type ExportResponse struct {
	RunID    string `json:"run_id"`
	Exported int    `json:"exported"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RunFromDomain converts a domain run result to a response.
func RunFromDomain(r *domain.RunResult) *RunResponse {
	resp := &RunResponse{
		RunID:          r.RunID,
		Mode:           string(r.Mode),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		FinalBalance:   r.FinalBalance,
		Statement:      r.Statement,
		Processed:      r.Processed,
		Posted:         r.Posted,
		Flagged:        r.Flagged,
		SkippedByRange: r.SkippedByRange,
	}
	for _, e := range r.Entries {
		resp.Entries = append(resp.Entries, EntryResponse{
			Seq:     e.Seq,
			Ref:     e.Ref,
			Debit:   string(e.Debit),
			Credit:  string(e.Credit),
			Amount:  e.Amount,
			Memo:    string(e.Memo),
			EntryAt: e.EntryAt,
		})
	}
	for _, issue := range r.Issues {
		resp.Issues = append(resp.Issues, IssueResponse{
			Ref:      issue.Ref,
			Kind:     string(issue.Kind),
			Severity: string(issue.Severity),
			Detail:   issue.Detail,
		})
	}
	for _, item := range r.ReviewQueue {
		resp.ReviewQueue = append(resp.ReviewQueue, reviewItemFromDomain(item))
	}
	return resp
}

func reviewItemFromDomain(item domain.ManualReviewItem) ReviewItemResponse {
	out := ReviewItemResponse{
		Ref:         item.Ref,
		Description: item.Description,
		Payer:       string(item.Payer),
		Source:      item.Source,
	}
	if !item.Date.IsZero() {
		d := item.Date
		out.Date = &d
	}
	if item.Amount != nil {
		a := item.Amount.String()
		out.Amount = &a
	}
	for _, r := range item.Reasons {
		out.Reasons = append(out.Reasons, string(r))
	}
	return out
}

// RunSummariesFromDomain converts archived runs to list responses.
func RunSummariesFromDomain(runs []*domain.RunResult) []*RunSummaryResponse {
	result := make([]*RunSummaryResponse, len(runs))
	for i, r := range runs {
		result[i] = &RunSummaryResponse{
			RunID:          r.RunID,
			Mode:           string(r.Mode),
			StartedAt:      r.StartedAt,
			FinishedAt:     r.FinishedAt,
			FinalBalance:   r.FinalBalance,
			Statement:      r.Statement,
			Processed:      r.Processed,
			Posted:         r.Posted,
			Flagged:        r.Flagged,
			SkippedByRange: r.SkippedByRange,
		}
	}
	return result
}
