package service

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/sleepwatch/internal/domain"
	"github.com/phrazzld/sleepwatch/internal/store"
	"github.com/phrazzld/sleepwatch/internal/task"
)

// MockReportStore keeps reports in memory.
type MockReportStore struct {
	mu      sync.Mutex
	reports map[uuid.UUID]domain.SleepReport
	SaveErr error
	saves   int
}

func NewMockReportStore() *MockReportStore {
	return &MockReportStore{reports: make(map[uuid.UUID]domain.SleepReport)}
}

var _ store.ReportStore = (*MockReportStore)(nil)

func (m *MockReportStore) Save(ctx context.Context, report *domain.SleepReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.saves++
	m.reports[report.ID] = *report
	return nil
}

func (m *MockReportStore) GetByID(_ context.Context, id uuid.UUID) (*domain.SleepReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, store.ErrReportNotFound
	}
	return &r, nil
}

func (m *MockReportStore) Latest(ctx context.Context) (*domain.SleepReport, error) {
	list, _ := m.List(ctx, 1, 0)
	if len(list) == 0 {
		return nil, store.ErrReportNotFound
	}
	return list[0], nil
}

func (m *MockReportStore) List(_ context.Context, limit, offset int) ([]*domain.SleepReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*domain.SleepReport, 0, len(m.reports))
	for _, r := range m.reports {
		r := r
		all = append(all, &r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EndedAt.After(all[j].EndedAt) })
	if offset >= len(all) {
		return []*domain.SleepReport{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MockReportStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// MockAnalyzer returns canned scores.
type MockAnalyzer struct {
	mu      sync.Mutex
	Scores  domain.QualityScoreMap
	Disable bool
	calls   int
}

func (m *MockAnalyzer) Analyze(_ context.Context, obs []domain.SensorObservation) domain.QualityScoreMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(obs) == 0 || m.Disable {
		return nil
	}
	return m.Scores
}

func (m *MockAnalyzer) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.Disable
}

func (m *MockAnalyzer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockTaskRunner collects submitted tasks; RunAll executes them in order.
type MockTaskRunner struct {
	mu        sync.Mutex
	tasks     []task.Task
	SubmitErr error
}

func (m *MockTaskRunner) Submit(_ context.Context, t task.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubmitErr != nil {
		return m.SubmitErr
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *MockTaskRunner) RunAll(ctx context.Context) []error {
	m.mu.Lock()
	tasks := m.tasks
	m.tasks = nil
	m.mu.Unlock()

	errs := make([]error, 0, len(tasks))
	for _, t := range tasks {
		errs = append(errs, t.Execute(ctx))
	}
	return errs
}

func (m *MockTaskRunner) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}
