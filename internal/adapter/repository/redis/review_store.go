package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/domain"
)

const (
	itemPrefix     = "review:item:"
	decisionPrefix = "review:decision:"
)

// ReviewStore implements usecase.ReviewStore on Redis. Items are keyed by
// transaction reference so re-running an export overwrites rather than
// duplicates; decisions live under their own prefix and are written by the
// review tooling.
type ReviewStore struct {
	client *redis.Client
}

func NewReviewStore(client *redis.Client) *ReviewStore {
	return &ReviewStore{client: client}
}

type reviewItemRecord struct {
	RunID       string     `json:"run_id"`
	Ref         string     `json:"ref"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description"`
	Amount      *string    `json:"amount,omitempty"`
	Payer       string     `json:"payer"`
	Source      string     `json:"source"`
	Reasons     []string   `json:"reasons"`
	ExportedAt  time.Time  `json:"exported_at"`
}

type reviewDecisionRecord struct {
	Ref        string    `json:"ref"`
	Kind       string    `json:"kind"`
	SplitMode  string    `json:"split_mode"`
	SplitA     string    `json:"split_a_percent"`
	SplitB     string    `json:"split_b_percent"`
	Amount     *string   `json:"amount,omitempty"`
	ResolvedBy string    `json:"resolved_by"`
	Note       string    `json:"note,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Put stores one review item under its transaction reference.
func (s *ReviewStore) Put(ctx context.Context, runID string, item domain.ManualReviewItem) error {
	rec := reviewItemRecord{
		RunID:       runID,
		Ref:         item.Ref,
		Description: item.Description,
		Payer:       string(item.Payer),
		Source:      item.Source,
		ExportedAt:  time.Now().UTC(),
	}
	if !item.Date.IsZero() {
		d := item.Date
		rec.Date = &d
	}
	if item.Amount != nil {
		a := item.Amount.String()
		rec.Amount = &a
	}
	for _, r := range item.Reasons {
		rec.Reasons = append(rec.Reasons, string(r))
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal review item %s: %w", item.Ref, err)
	}
	if err := s.client.Set(ctx, itemPrefix+item.Ref, payload, 0).Err(); err != nil {
		return fmt.Errorf("store review item %s: %w", item.Ref, err)
	}
	return nil
}

// PutDecision records a human resolution for a flagged transaction.
func (s *ReviewStore) PutDecision(ctx context.Context, d domain.ReviewDecision) error {
	if d.Ref == "" || !d.Kind.Valid() {
		return domain.ErrDecisionInvalid
	}

	rec := reviewDecisionRecord{
		Ref:        d.Ref,
		Kind:       string(d.Kind),
		SplitMode:  string(d.Split.Mode),
		SplitA:     d.Split.Ratio.PartyAPercent.String(),
		SplitB:     d.Split.Ratio.PartyBPercent.String(),
		ResolvedBy: d.ResolvedBy,
		Note:       d.Note,
		ResolvedAt: d.ResolvedAt,
	}
	if d.Amount != nil {
		a := d.Amount.String()
		rec.Amount = &a
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal decision %s: %w", d.Ref, err)
	}
	if err := s.client.Set(ctx, decisionPrefix+d.Ref, payload, 0).Err(); err != nil {
		return fmt.Errorf("store decision %s: %w", d.Ref, err)
	}
	return nil
}

// ListDecisions walks every stored decision.
func (s *ReviewStore) ListDecisions(ctx context.Context) ([]domain.ReviewDecision, error) {
	var decisions []domain.ReviewDecision

	iter := s.client.Scan(ctx, 0, decisionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load decision %s: %w", iter.Val(), err)
		}

		var rec reviewDecisionRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode decision %s: %w", iter.Val(), err)
		}

		ratio, err := parseRatio(rec.SplitA, rec.SplitB)
		if err != nil {
			return nil, fmt.Errorf("decode decision %s ratio: %w", rec.Ref, err)
		}

		d := domain.ReviewDecision{
			Ref:  rec.Ref,
			Kind: domain.Kind(rec.Kind),
			Split: domain.SplitDirective{
				Mode:  domain.SplitMode(rec.SplitMode),
				Ratio: ratio,
			},
			ResolvedBy: rec.ResolvedBy,
			Note:       rec.Note,
			ResolvedAt: rec.ResolvedAt,
		}
		if rec.Amount != nil {
			amount, err := decimal.NewFromString(*rec.Amount)
			if err != nil {
				return nil, fmt.Errorf("decode decision %s amount: %w", rec.Ref, err)
			}
			d.Amount = &amount
		}
		decisions = append(decisions, d)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan decisions: %w", err)
	}

	return decisions, nil
}

func parseRatio(a, b string) (domain.SplitRatio, error) {
	if a == "" && b == "" {
		return domain.SplitRatio{}, nil
	}
	pa, err := decimal.NewFromString(a)
	if err != nil {
		return domain.SplitRatio{}, err
	}
	pb, err := decimal.NewFromString(b)
	if err != nil {
		return domain.SplitRatio{}, err
	}
	return domain.SplitRatio{PartyAPercent: pa, PartyBPercent: pb}, nil
}
