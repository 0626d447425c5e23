// Package mocks provides hand-rolled test doubles for the usecase
// interfaces. Each mock keeps simple in-memory state and exposes Func
// fields to override individual methods per test.
package mocks

import (
	"context"
	"sync"

	"github.com/splitledger/splitledger/internal/domain"
)

// MockReviewStore is an in-memory usecase.ReviewStore.
type MockReviewStore struct {
	mu        sync.Mutex
	Items     []domain.ManualReviewItem
	Decisions []domain.ReviewDecision

	PutFunc           func(ctx context.Context, runID string, item domain.ManualReviewItem) error
	ListDecisionsFunc func(ctx context.Context) ([]domain.ReviewDecision, error)
}

func NewMockReviewStore() *MockReviewStore {
	return &MockReviewStore{}
}

func (m *MockReviewStore) Put(ctx context.Context, runID string, item domain.ManualReviewItem) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, runID, item)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Items = append(m.Items, item)
	return nil
}

func (m *MockReviewStore) ListDecisions(ctx context.Context) ([]domain.ReviewDecision, error) {
	if m.ListDecisionsFunc != nil {
		return m.ListDecisionsFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ReviewDecision, len(m.Decisions))
	copy(out, m.Decisions)
	return out, nil
}

// StoredItems returns a copy of everything stored so far.
func (m *MockReviewStore) StoredItems() []domain.ManualReviewItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ManualReviewItem, len(m.Items))
	copy(out, m.Items)
	return out
}

// MockRunArchive is an in-memory usecase.RunArchive.
type MockRunArchive struct {
	mu   sync.Mutex
	Runs map[string]*domain.RunResult

	SaveRunFunc  func(ctx context.Context, result *domain.RunResult) error
	GetRunFunc   func(ctx context.Context, id string) (*domain.RunResult, error)
	ListRunsFunc func(ctx context.Context, limit, offset int) ([]*domain.RunResult, error)
}

func NewMockRunArchive() *MockRunArchive {
	return &MockRunArchive{Runs: make(map[string]*domain.RunResult)}
}

func (m *MockRunArchive) SaveRun(ctx context.Context, result *domain.RunResult) error {
	if m.SaveRunFunc != nil {
		return m.SaveRunFunc(ctx, result)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Runs[result.RunID] = result
	return nil
}

func (m *MockRunArchive) GetRun(ctx context.Context, id string) (*domain.RunResult, error) {
	if m.GetRunFunc != nil {
		return m.GetRunFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.Runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

func (m *MockRunArchive) ListRuns(ctx context.Context, limit, offset int) ([]*domain.RunResult, error) {
	if m.ListRunsFunc != nil {
		return m.ListRunsFunc(ctx, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.RunResult, 0, len(m.Runs))
	for _, run := range m.Runs {
		out = append(out, run)
	}
	return out, nil
}

// MockIDGenerator returns a fixed identifier sequence.
type MockIDGenerator struct {
	mu  sync.Mutex
	n   int
	IDs []string

	GenerateFunc func() string
}

func NewMockIDGenerator(ids ...string) *MockIDGenerator {
	return &MockIDGenerator{IDs: ids}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.IDs) == 0 {
		return "run-test"
	}
	id := m.IDs[m.n%len(m.IDs)]
	m.n++
	return id
}
