package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/splitledger/splitledger/internal/domain"
	"github.com/splitledger/splitledger/internal/infrastructure/metrics"
)

// ExportUseCase pushes a run's manual-review queue to the external review
// store. Every flagged item must land in the store; a partial export is an
// error.
type ExportUseCase struct {
	store   ReviewStore
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewExportUseCase(store ReviewStore, log zerolog.Logger, m *metrics.Metrics) *ExportUseCase {
	return &ExportUseCase{store: store, log: log, metrics: m}
}

// ExportReviewQueue writes every review item from the run to the store and
// returns the number exported. Each item is retried independently with
// exponential backoff; the first item that still fails after retries aborts
// the export so the caller knows the queue is incomplete.
func (uc *ExportUseCase) ExportReviewQueue(ctx context.Context, result *domain.RunResult) (int, error) {
	exported := 0

	for _, item := range result.ReviewQueue {
		op := func() error {
			return uc.store.Put(ctx, result.RunID, item)
		}

		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 50 * time.Millisecond
		b.MaxInterval = time.Second
		b.MaxElapsedTime = 10 * time.Second

		if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, 4), ctx)); err != nil {
			if uc.metrics != nil {
				uc.metrics.ReviewExportFailures.Inc()
			}
			return exported, fmt.Errorf("export review item %s: %w", item.Ref, err)
		}
		exported++
	}

	if uc.metrics != nil {
		uc.metrics.ReviewItemsExported.Add(float64(exported))
	}

	if exported != len(result.ReviewQueue) {
		return exported, fmt.Errorf("exported %d of %d review items", exported, len(result.ReviewQueue))
	}

	uc.log.Info().
		Str("run_id", result.RunID).
		Int("exported", exported).
		Msg("review queue exported")

	return exported, nil
}

// LoadDecisions fetches all resolved review decisions for the next run.
func (uc *ExportUseCase) LoadDecisions(ctx context.Context) ([]domain.ReviewDecision, error) {
	decisions, err := uc.store.ListDecisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list review decisions: %w", err)
	}
	return decisions, nil
}
