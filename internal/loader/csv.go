// Package loader ingests normalized transaction exports. The loader is
// deliberately forgiving about values and strict about structure: a row with
// a lost amount or a broken date still flows through so the pipeline can
// flag it, but a row without an identity or a recognizable payer is a fatal
// input error.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/splitledger/splitledger/internal/domain"
)

// Column layout of a normalized export: ref,source,date,description,amount,payer.
const (
	colRef = iota
	colSource
	colDate
	colDescription
	colAmount
	colPayer
	colCount
)

const dateLayout = "2006-01-02"

// CSVLoader reads normalized transaction CSVs.
type CSVLoader struct {
	log zerolog.Logger
}

func NewCSVLoader(log zerolog.Logger) *CSVLoader {
	return &CSVLoader{log: log}
}

// LoadFile reads every transaction from the file at path.
func (l *CSVLoader) LoadFile(path string) ([]domain.NormalizedTransaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transactions file: %w", err)
	}
	defer f.Close()

	txs, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return txs, nil
}

// Load parses a normalized export. Rows with a missing or unparseable
// amount produce a transaction with no amount; unparseable dates produce a
// zero date. Both surface downstream as review items instead of being
// dropped here.
func (l *CSVLoader) Load(r io.Reader) ([]domain.NormalizedTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv is empty")
	}

	start := 0
	if strings.EqualFold(strings.TrimSpace(records[0][colRef]), "ref") {
		start = 1
	}

	txs := make([]domain.NormalizedTransaction, 0, len(records)-start)
	for i := start; i < len(records); i++ {
		rec := records[i]
		line := i + 1
		if len(rec) < colCount {
			return nil, fmt.Errorf("line %d: got %d columns, want %d", line, len(rec), colCount)
		}

		tx := domain.NormalizedTransaction{
			Ref:         strings.TrimSpace(rec[colRef]),
			Source:      strings.TrimSpace(rec[colSource]),
			Description: strings.TrimSpace(rec[colDescription]),
			Payer:       domain.Party(strings.TrimSpace(rec[colPayer])),
		}

		if tx.Ref == "" {
			return nil, fmt.Errorf("line %d: empty ref", line)
		}
		if !tx.Payer.Valid() {
			return nil, fmt.Errorf("line %d: unknown payer %q", line, rec[colPayer])
		}

		if raw := strings.TrimSpace(rec[colDate]); raw != "" {
			date, err := time.Parse(dateLayout, raw)
			if err != nil {
				l.log.Debug().Int("line", line).Str("date", raw).Msg("unparseable date, keeping row")
			} else {
				tx.Date = date.UTC()
			}
		}

		if raw := strings.TrimSpace(rec[colAmount]); raw != "" {
			amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
			if err != nil {
				l.log.Debug().Int("line", line).Str("amount", raw).Msg("unparseable amount, keeping row")
			} else {
				tx.Amount = &amount
			}
		}

		txs = append(txs, tx)
	}

	l.log.Info().Int("transactions", len(txs)).Msg("transactions loaded")
	return txs, nil
}
