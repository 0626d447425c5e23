package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/classify"
	"github.com/splitledger/splitledger/internal/domain"
	"github.com/splitledger/splitledger/internal/infrastructure/metrics"
	"github.com/splitledger/splitledger/internal/ledger"
	"github.com/splitledger/splitledger/internal/quality"
)

// ReconcileUseCase runs the reconciliation pipeline: it orders the
// transaction set, classifies and inspects each transaction, drives the
// accounting engine, and assembles the audit trail, review queue and final
// balance for one run.
type ReconcileUseCase struct {
	idGen   IDGenerator
	archive RunArchive
	rules   []classify.Rule
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewReconcileUseCase creates a new ReconcileUseCase. archive and metrics
// may be nil when not configured; rules may be nil to use the built-in
// table.
func NewReconcileUseCase(idGen IDGenerator, archive RunArchive, rules []classify.Rule, log zerolog.Logger, m *metrics.Metrics) *ReconcileUseCase {
	return &ReconcileUseCase{
		idGen:   idGen,
		archive: archive,
		rules:   rules,
		log:     log,
		metrics: m,
	}
}

// RunInput is the full input snapshot for one reconciliation run. The
// transaction set and decisions are treated as immutable.
type RunInput struct {
	Config       domain.RunConfig
	Transactions []domain.NormalizedTransaction
	Decisions    []domain.ReviewDecision
}

// Run executes one reconciliation over the input snapshot. Recoverable
// problems surface inside the result (issues, review queue, audit trail);
// only fatal conditions return an error: invalid config, a missing
// baseline, an invariant violation, or an archive failure.
func (uc *ReconcileUseCase) Run(ctx context.Context, input RunInput) (*domain.RunResult, error) {
	cfg := input.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	classifier, err := classify.New(classify.Options{
		Rules:     uc.rules,
		RentSplit: cfg.RentSplit,
	})
	if err != nil {
		return nil, err
	}

	inspector := quality.New(quality.Options{
		SuspiciousThreshold: cfg.SuspiciousThreshold,
		LossySources:        cfg.LossySources,
		WindowFrom:          cfg.CoverageFrom,
		WindowTo:            cfg.CoverageTo,
	})

	engine := ledger.New()

	decisions := make(map[string]domain.ReviewDecision, len(input.Decisions))
	for _, d := range input.Decisions {
		decisions[d.Ref] = d
	}

	// Deterministic processing order regardless of original file order:
	// date, then source identifier, then reference.
	txs := make([]domain.NormalizedTransaction, len(input.Transactions))
	copy(txs, input.Transactions)
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		if txs[i].Source != txs[j].Source {
			return txs[i].Source < txs[j].Source
		}
		return txs[i].Ref < txs[j].Ref
	})

	result := &domain.RunResult{
		RunID:     uc.idGen.Generate(),
		Mode:      cfg.Mode,
		StartedAt: time.Now().UTC(),
	}

	if uc.metrics != nil {
		uc.metrics.RunsStarted.WithLabelValues(string(cfg.Mode)).Inc()
	}

	var auditSeq int64

	if cfg.Mode == domain.FromBaseline {
		entries, err := engine.PostBaseline(*cfg.Baseline)
		if err != nil {
			return nil, err
		}

		auditSeq++
		result.Audit = append(result.Audit, domain.AuditTrailEntry{
			Seq:          auditSeq,
			Ref:          "baseline",
			Date:         cfg.Baseline.Date,
			Action:       domain.AuditBaseline,
			Kind:         domain.KindSettlement,
			Confidence:   domain.ConfidenceHigh,
			EntrySeqs:    entrySeqs(entries),
			Delta:        cfg.Baseline.Signed(),
			BalanceAfter: engine.Balance(),
		})
	}

	for _, tx := range txs {
		// FromBaseline processes only transactions strictly after the
		// baseline date. Transactions with a malformed (zero) date are
		// never range-filtered; they must surface in review instead of
		// vanishing.
		if cfg.Mode == domain.FromBaseline && !tx.Date.IsZero() && !tx.Date.After(cfg.Baseline.Date) {
			result.SkippedByRange++
			continue
		}

		auditSeq++
		audit, fatal := uc.processOne(engine, inspector, classifier, decisions, tx, auditSeq, result)
		if fatal != nil {
			return nil, fatal
		}
		result.Audit = append(result.Audit, audit)
		result.Processed++
	}

	if err := engine.VerifyInvariants(); err != nil {
		return nil, err
	}

	result.Entries = engine.Entries()
	result.FinalBalance = engine.Balance()
	result.Statement = domain.BalanceStatement(result.FinalBalance, cfg.PartyAName, cfg.PartyBName)
	result.FinishedAt = time.Now().UTC()

	uc.recordRunMetrics(result)

	uc.log.Info().
		Str("run_id", result.RunID).
		Str("mode", string(result.Mode)).
		Int("processed", result.Processed).
		Int("posted", result.Posted).
		Int("flagged", result.Flagged).
		Int("issues", len(result.Issues)).
		Str("balance", result.FinalBalance.String()).
		Msg("reconciliation run complete")

	if uc.archive != nil {
		if err := uc.archive.SaveRun(ctx, result); err != nil {
			return nil, fmt.Errorf("archive run %s: %w", result.RunID, err)
		}
	}

	return result, nil
}

func (uc *ReconcileUseCase) recordRunMetrics(result *domain.RunResult) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.RunsCompleted.WithLabelValues(string(result.Mode), "success").Inc()
	uc.metrics.RunDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	balance, _ := result.FinalBalance.Float64()
	uc.metrics.FinalBalance.Set(balance)

	uc.metrics.TransactionsProcessed.Add(float64(result.Processed))
	uc.metrics.TransactionsPosted.Add(float64(result.Posted))
	uc.metrics.EntriesPosted.Add(float64(len(result.Entries)))

	for _, item := range result.ReviewQueue {
		for _, reason := range item.Reasons {
			uc.metrics.TransactionsFlagged.WithLabelValues(string(reason)).Inc()
		}
	}
	for _, issue := range result.Issues {
		uc.metrics.QualityIssues.WithLabelValues(string(issue.Kind)).Inc()
	}
}

// processOne handles a single transaction: inspect, classify (or apply a
// resolved decision), then post or flag. It returns the audit entry and, on
// an invariant violation, a fatal error that aborts the whole run.
func (uc *ReconcileUseCase) processOne(
	engine *ledger.Engine,
	inspector *quality.Inspector,
	classifier *classify.Classifier,
	decisions map[string]domain.ReviewDecision,
	tx domain.NormalizedTransaction,
	auditSeq int64,
	result *domain.RunResult,
) (domain.AuditTrailEntry, error) {
	issues := inspector.Inspect(tx)
	result.Issues = append(result.Issues, issues...)

	effective := tx
	var cls domain.Classification

	decision, resolved := decisions[tx.Ref]
	if resolved {
		cls = domain.Classification{
			Kind:       decision.Kind,
			Split:      decision.Split,
			Confidence: domain.ConfidenceHigh,
			Rule:       "review_decision",
		}
		if decision.Amount != nil {
			effective.Amount = decision.Amount
		}
		if uc.metrics != nil {
			uc.metrics.DecisionsApplied.Inc()
		}
	} else {
		cls = classifier.Classify(tx)
	}

	reasons, blocking := reviewReasons(effective, cls, issues)

	if len(reasons) > 0 {
		result.ReviewQueue = append(result.ReviewQueue, domain.ManualReviewItem{
			Ref:         tx.Ref,
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      effective.Amount,
			Payer:       tx.Payer,
			Source:      tx.Source,
			Reasons:     reasons,
		})
	}

	audit := domain.AuditTrailEntry{
		Seq:         auditSeq,
		Ref:         tx.Ref,
		Date:        tx.Date,
		Description: tx.Description,
		Amount:      effective.Amount,
		Payer:       tx.Payer,
		Source:      tx.Source,
		Kind:        cls.Kind,
		Confidence:  cls.Confidence,
		Rule:        cls.Rule,
		Issues:      issueKinds(issues),
		Reasons:     reasons,
		Delta:       decimal.Zero,
	}

	if blocking {
		// Pending until resolved: contributes zero to the balance.
		audit.Action = domain.AuditFlagged
		audit.BalanceAfter = engine.Balance()
		result.Flagged++
		return audit, nil
	}

	before := engine.Balance()
	entries, err := engine.Post(effective, cls)
	if err != nil {
		// Any posting failure past the screening above is an internal
		// defect, not a data problem; the run aborts.
		return domain.AuditTrailEntry{}, fmt.Errorf("posting %s: %w", tx.Ref, err)
	}

	audit.EntrySeqs = entrySeqs(entries)
	audit.Delta = engine.Balance().Sub(before)
	audit.BalanceAfter = engine.Balance()

	if len(entries) == 0 {
		audit.Action = domain.AuditExcluded
	} else {
		audit.Action = domain.AuditPosted
	}
	result.Posted++

	return audit, nil
}

// reviewReasons derives why a transaction needs a human, and whether those
// reasons block posting. A suspicious amount is reviewed but still posted;
// everything else holds the transaction pending.
func reviewReasons(tx domain.NormalizedTransaction, cls domain.Classification, issues []domain.DataQualityIssue) ([]domain.ReviewReason, bool) {
	var reasons []domain.ReviewReason
	blocking := false

	if !tx.HasAmount() {
		reasons = append(reasons, domain.ReasonMissingAmount)
		blocking = true
	} else if tx.Amount.IsZero() && cls.Kind != domain.KindPersonal {
		reasons = append(reasons, domain.ReasonZeroAmount)
		blocking = true
	}

	if tx.Date.IsZero() {
		reasons = append(reasons, domain.ReasonMalformedDate)
		blocking = true
	}

	if cls.Kind == domain.KindUnrecognized {
		reasons = append(reasons, domain.ReasonUnrecognized)
		blocking = true
	} else if cls.Confidence == domain.ConfidenceLow {
		reasons = append(reasons, domain.ReasonLowConfidence)
		blocking = true
	}

	for _, issue := range issues {
		if issue.Kind == domain.IssueSuspiciousAmount {
			reasons = append(reasons, domain.ReasonSuspiciousAmount)
		}
	}

	return reasons, blocking
}

func issueKinds(issues []domain.DataQualityIssue) []domain.IssueKind {
	if len(issues) == 0 {
		return nil
	}
	kinds := make([]domain.IssueKind, len(issues))
	for i, issue := range issues {
		kinds[i] = issue.Kind
	}
	return kinds
}

func entrySeqs(entries []domain.LedgerEntry) []int64 {
	if len(entries) == 0 {
		return nil
	}
	seqs := make([]int64, len(entries))
	for i, entry := range entries {
		seqs[i] = entry.Seq
	}
	return seqs
}

// GetRun loads an archived run.
func (uc *ReconcileUseCase) GetRun(ctx context.Context, id string) (*domain.RunResult, error) {
	if uc.archive == nil {
		return nil, domain.ErrRunNotFound
	}
	return uc.archive.GetRun(ctx, id)
}

// ListRuns lists archived run summaries.
func (uc *ReconcileUseCase) ListRuns(ctx context.Context, limit, offset int) ([]*domain.RunResult, error) {
	if uc.archive == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return uc.archive.ListRuns(ctx, limit, offset)
}
