package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/domain"
	"github.com/splitledger/splitledger/internal/usecase"
)

// TransactionRequest is one normalized transaction in a run submission.
// Amount is a string so an absent amount survives the trip; a lossy export
// really does produce rows without one.
type TransactionRequest struct {
	Ref         string  `json:"ref"`
	Source      string  `json:"source"`
	Date        string  `json:"date,omitempty"`
	Description string  `json:"description"`
	Amount      *string `json:"amount,omitempty"`
	Payer       string  `json:"payer"`
}

// BaselineRequest seeds a from_baseline run.
type BaselineRequest struct {
	Date      string `json:"date"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

// SplitRequest is a fixed percentage pair.
type SplitRequest struct {
	PartyAPercent string `json:"party_a_percent"`
	PartyBPercent string `json:"party_b_percent"`
}

// CreateRunRequest submits a reconciliation run.
type CreateRunRequest struct {
	Mode                string               `json:"mode"`
	Baseline            *BaselineRequest     `json:"baseline,omitempty"`
	CoverageFrom        string               `json:"coverage_from,omitempty"`
	CoverageTo          string               `json:"coverage_to,omitempty"`
	RentSplit           *SplitRequest        `json:"rent_split,omitempty"`
	RentPayer           string               `json:"rent_payer,omitempty"`
	SuspiciousThreshold string               `json:"suspicious_threshold,omitempty"`
	LossySources        []string             `json:"lossy_sources,omitempty"`
	PartyAName          string               `json:"party_a_name,omitempty"`
	PartyBName          string               `json:"party_b_name,omitempty"`
	Transactions        []TransactionRequest `json:"transactions"`
}

const dateLayout = "2006-01-02"

// ToRunInput converts the request into a usecase run input. Fields absent
// from the request keep the values from base, which the server derives from
// its environment.
func (r *CreateRunRequest) ToRunInput(base domain.RunConfig) (usecase.RunInput, error) {
	cfg := base

	if r.Mode != "" {
		cfg.Mode = domain.RunMode(r.Mode)
		if cfg.Mode != domain.FromScratch && cfg.Mode != domain.FromBaseline {
			return usecase.RunInput{}, fmt.Errorf("unknown mode %q", r.Mode)
		}
	}

	if r.Baseline != nil {
		date, err := time.Parse(dateLayout, r.Baseline.Date)
		if err != nil {
			return usecase.RunInput{}, fmt.Errorf("baseline date: %w", err)
		}
		amount, err := decimal.NewFromString(r.Baseline.Amount)
		if err != nil {
			return usecase.RunInput{}, fmt.Errorf("baseline amount: %w", err)
		}
		direction := domain.Direction(r.Baseline.Direction)
		if direction != domain.DirectionAOwesB && direction != domain.DirectionBOwesA {
			return usecase.RunInput{}, fmt.Errorf("unknown baseline direction %q", r.Baseline.Direction)
		}
		cfg.Baseline = &domain.Baseline{Date: date.UTC(), Amount: amount, Direction: direction}
	}

	if r.CoverageFrom != "" {
		from, err := time.Parse(dateLayout, r.CoverageFrom)
		if err != nil {
			return usecase.RunInput{}, fmt.Errorf("coverage_from: %w", err)
		}
		cfg.CoverageFrom = from.UTC()
	}
	if r.CoverageTo != "" {
		to, err := time.Parse(dateLayout, r.CoverageTo)
		if err != nil {
			return usecase.RunInput{}, fmt.Errorf("coverage_to: %w", err)
		}
		cfg.CoverageTo = to.UTC()
	}

	if r.RentSplit != nil {
		a, err := decimal.NewFromString(r.RentSplit.PartyAPercent)
		if err != nil {
			return usecase.RunInput{}, fmt.Errorf("rent split: %w", err)
		}
		b, err := decimal.NewFromString(r.RentSplit.PartyBPercent)
		if err != nil {
			return usecase.RunInput{}, fmt.Errorf("rent split: %w", err)
		}
		cfg.RentSplit = domain.SplitRatio{PartyAPercent: a, PartyBPercent: b}
	}
	if r.RentPayer != "" {
		cfg.RentPayer = domain.Party(r.RentPayer)
	}
	if r.SuspiciousThreshold != "" {
		threshold, err := decimal.NewFromString(r.SuspiciousThreshold)
		if err != nil {
			return usecase.RunInput{}, fmt.Errorf("suspicious_threshold: %w", err)
		}
		cfg.SuspiciousThreshold = threshold
	}
	if r.LossySources != nil {
		cfg.LossySources = r.LossySources
	}
	if r.PartyAName != "" {
		cfg.PartyAName = r.PartyAName
	}
	if r.PartyBName != "" {
		cfg.PartyBName = r.PartyBName
	}

	txs := make([]domain.NormalizedTransaction, 0, len(r.Transactions))
	for i, tr := range r.Transactions {
		tx, err := tr.toDomain()
		if err != nil {
			return usecase.RunInput{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, tx)
	}

	return usecase.RunInput{Config: cfg, Transactions: txs}, nil
}

func (tr TransactionRequest) toDomain() (domain.NormalizedTransaction, error) {
	tx := domain.NormalizedTransaction{
		Ref:         tr.Ref,
		Source:      tr.Source,
		Description: tr.Description,
		Payer:       domain.Party(tr.Payer),
	}
	if tx.Ref == "" {
		return domain.NormalizedTransaction{}, fmt.Errorf("empty ref")
	}
	if !tx.Payer.Valid() {
		return domain.NormalizedTransaction{}, fmt.Errorf("unknown payer %q", tr.Payer)
	}

	// A date that fails to parse is kept as a zero date: the pipeline
	// flags it rather than the API dropping the row.
	if tr.Date != "" {
		if date, err := time.Parse(dateLayout, tr.Date); err == nil {
			tx.Date = date.UTC()
		}
	}
	if tr.Amount != nil {
		amount, err := decimal.NewFromString(*tr.Amount)
		if err != nil {
			return domain.NormalizedTransaction{}, fmt.Errorf("amount %q: %w", *tr.Amount, err)
		}
		tx.Amount = &amount
	}
	return tx, nil
}
