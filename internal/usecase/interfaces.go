package usecase

import (
	"context"
	"time"

	"github.com/splitledger/splitledger/internal/domain"
)

// ReviewStore is the persistent manual-review store behind a simple
// key-value protocol. The engine exports flagged items to it and re-ingests
// human decisions from it on later runs.
type ReviewStore interface {
	// Put stores one review item. Implementations must accept every
	// item, including zero and absent amounts.
	Put(ctx context.Context, runID string, item domain.ManualReviewItem) error
	// ListDecisions returns all resolved review decisions.
	ListDecisions(ctx context.Context) ([]domain.ReviewDecision, error)
}

// RunArchive persists completed reconciliation runs for later inspection.
type RunArchive interface {
	SaveRun(ctx context.Context, result *domain.RunResult) error
	GetRun(ctx context.Context, id string) (*domain.RunResult, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*domain.RunResult, error)
}

// IDGenerator generates unique run identifiers.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore deduplicates mutating API requests by client-supplied key.
type IdempotencyStore interface {
	// CheckAndSet returns the cached response when the key was seen
	// before, or locks the key for this request.
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update stores the final response under the key.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
