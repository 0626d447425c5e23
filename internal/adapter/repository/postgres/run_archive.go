package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splitledger/splitledger/internal/domain"
)

// RunArchive implements usecase.RunArchive. A run is stored as one row in
// runs plus its ledger entries and audit trail in child tables; the three
// writes share a transaction so a partially archived run can never be read
// back.
type RunArchive struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewRunArchive creates a new RunArchive.
func NewRunArchive(pool *pgxpool.Pool, retrier *Retrier) *RunArchive {
	return &RunArchive{pool: pool, retrier: retrier}
}

// SaveRun archives a completed run.
func (r *RunArchive) SaveRun(ctx context.Context, result *domain.RunResult) error {
	return r.retrier.Retry(ctx, func() error {
		return r.saveRun(ctx, result)
	})
}

func (r *RunArchive) saveRun(ctx context.Context, result *domain.RunResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback(ctx)

	issues, err := json.Marshal(result.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}
	reviewQueue, err := json.Marshal(result.ReviewQueue)
	if err != nil {
		return fmt.Errorf("marshal review queue: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (
			id, mode, started_at, finished_at,
			final_balance, statement,
			processed, posted, flagged, skipped_by_range,
			issues, review_queue
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		result.RunID,
		string(result.Mode),
		result.StartedAt,
		result.FinishedAt,
		result.FinalBalance,
		result.Statement,
		result.Processed,
		result.Posted,
		result.Flagged,
		result.SkippedByRange,
		issues,
		reviewQueue,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}

	for _, entry := range result.Entries {
		_, err = tx.Exec(ctx, `
			INSERT INTO ledger_entries (
				run_id, seq, ref, debit_account, credit_account,
				amount, memo, entry_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			result.RunID,
			entry.Seq,
			entry.Ref,
			string(entry.Debit),
			string(entry.Credit),
			entry.Amount,
			string(entry.Memo),
			entry.EntryAt,
		)
		if err != nil {
			return fmt.Errorf("insert entry %d: %w", entry.Seq, err)
		}
	}

	for _, a := range result.Audit {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("marshal audit seq %d: %w", a.Seq, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO audit_trail (run_id, seq, ref, action, detail)
			VALUES ($1, $2, $3, $4, $5)
		`,
			result.RunID,
			a.Seq,
			a.Ref,
			string(a.Action),
			payload,
		)
		if err != nil {
			return fmt.Errorf("insert audit seq %d: %w", a.Seq, err)
		}
	}

	return tx.Commit(ctx)
}

// GetRun loads one archived run with its entries and audit trail.
func (r *RunArchive) GetRun(ctx context.Context, id string) (*domain.RunResult, error) {
	result := &domain.RunResult{}
	var mode string
	var issues, reviewQueue []byte

	err := r.pool.QueryRow(ctx, `
		SELECT id, mode, started_at, finished_at,
		       final_balance, statement,
		       processed, posted, flagged, skipped_by_range,
		       issues, review_queue
		FROM runs WHERE id = $1
	`, id).Scan(
		&result.RunID,
		&mode,
		&result.StartedAt,
		&result.FinishedAt,
		&result.FinalBalance,
		&result.Statement,
		&result.Processed,
		&result.Posted,
		&result.Flagged,
		&result.SkippedByRange,
		&issues,
		&reviewQueue,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	result.Mode = domain.RunMode(mode)

	if issues != nil {
		if err := json.Unmarshal(issues, &result.Issues); err != nil {
			return nil, fmt.Errorf("decode issues for run %s: %w", id, err)
		}
	}
	if reviewQueue != nil {
		if err := json.Unmarshal(reviewQueue, &result.ReviewQueue); err != nil {
			return nil, fmt.Errorf("decode review queue for run %s: %w", id, err)
		}
	}

	if result.Entries, err = r.loadEntries(ctx, id); err != nil {
		return nil, err
	}
	if result.Audit, err = r.loadAudit(ctx, id); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *RunArchive) loadEntries(ctx context.Context, runID string) ([]domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT seq, ref, debit_account, credit_account, amount, memo, entry_at
		FROM ledger_entries WHERE run_id = $1 ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load entries for run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var debit, credit, memo string
		if err := rows.Scan(&e.Seq, &e.Ref, &debit, &credit, &e.Amount, &memo, &e.EntryAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Debit = domain.Account(debit)
		e.Credit = domain.Account(credit)
		e.Memo = domain.EntryMemo(memo)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *RunArchive) loadAudit(ctx context.Context, runID string) ([]domain.AuditTrailEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT detail FROM audit_trail WHERE run_id = $1 ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load audit trail for run %s: %w", runID, err)
	}
	defer rows.Close()

	var audit []domain.AuditTrailEntry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		var a domain.AuditTrailEntry
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		audit = append(audit, a)
	}
	return audit, rows.Err()
}

// ListRuns returns run summaries, newest first. Entries and audit trails
// are not loaded; fetch a single run for the full record.
func (r *RunArchive) ListRuns(ctx context.Context, limit, offset int) ([]*domain.RunResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, mode, started_at, finished_at,
		       final_balance, statement,
		       processed, posted, flagged, skipped_by_range
		FROM runs ORDER BY started_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var results []*domain.RunResult
	for rows.Next() {
		result := &domain.RunResult{}
		var mode string
		if err := rows.Scan(
			&result.RunID,
			&mode,
			&result.StartedAt,
			&result.FinishedAt,
			&result.FinalBalance,
			&result.Statement,
			&result.Processed,
			&result.Posted,
			&result.Flagged,
			&result.SkippedByRange,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result.Mode = domain.RunMode(mode)
		results = append(results, result)
	}
	return results, rows.Err()
}
