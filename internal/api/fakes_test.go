package api

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/sleepwatch/internal/domain"
	"github.com/phrazzld/sleepwatch/internal/service"
	"github.com/phrazzld/sleepwatch/internal/tracking"
)

// MockTrackingController is a configurable TrackingController.
type MockTrackingController struct {
	mu sync.Mutex

	StatusValue  tracking.Status
	SetWindowErr error
	SetEnableErr error
	StartErr     error
	StopErr      error

	Window   [2]string
	Enabled  *bool
	Started  int
	Stopped  int
	Charging *bool
	InUse    *bool
}

var _ TrackingController = (*MockTrackingController)(nil)

func (m *MockTrackingController) Status(ctx context.Context) (tracking.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.StatusValue, nil
}

func (m *MockTrackingController) SetWindow(ctx context.Context, bedTime, wakeTime string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetWindowErr != nil {
		return m.SetWindowErr
	}
	m.Window = [2]string{bedTime, wakeTime}
	m.StatusValue.BedTime = bedTime
	m.StatusValue.WakeTime = wakeTime
	return nil
}

func (m *MockTrackingController) SetEnabled(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetEnableErr != nil {
		return m.SetEnableErr
	}
	m.Enabled = &enabled
	m.StatusValue.Enabled = enabled
	return nil
}

func (m *MockTrackingController) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	m.Started++
	m.StatusValue.State = tracking.StateTracking
	return nil
}

func (m *MockTrackingController) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StopErr != nil {
		return m.StopErr
	}
	m.Stopped++
	m.StatusValue.State = tracking.StateIdle
	return nil
}

func (m *MockTrackingController) SetCharging(charging bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Charging = &charging
}

func (m *MockTrackingController) SetInUse(inUse bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InUse = &inUse
}

// MockReportService serves reports from a map.
type MockReportService struct {
	Reports     map[uuid.UUID]*domain.SleepReport
	Ordered     []*domain.SleepReport
	ListErr     error
	ScheduleErr error

	Scheduled  []uuid.UUID
	LastLimit  int
	LastOffset int
}

var _ service.ReportService = (*MockReportService)(nil)

func (m *MockReportService) Submit(ctx context.Context, session domain.Session) error {
	return nil
}

func (m *MockReportService) RecordSession(ctx context.Context, session domain.Session) (*domain.SleepReport, error) {
	return nil, nil
}

func (m *MockReportService) GetReport(ctx context.Context, id uuid.UUID) (*domain.SleepReport, error) {
	report, ok := m.Reports[id]
	if !ok {
		return nil, service.ErrReportNotFound
	}
	return report, nil
}

func (m *MockReportService) LatestReport(ctx context.Context) (*domain.SleepReport, error) {
	if len(m.Ordered) == 0 {
		return nil, service.ErrReportNotFound
	}
	return m.Ordered[0], nil
}

func (m *MockReportService) ListReports(ctx context.Context, limit, offset int) ([]*domain.SleepReport, error) {
	m.LastLimit, m.LastOffset = limit, offset
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	if offset >= len(m.Ordered) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.Ordered) {
		end = len(m.Ordered)
	}
	return m.Ordered[offset:end], nil
}

func (m *MockReportService) ScheduleReanalysis(ctx context.Context, id uuid.UUID) error {
	if m.ScheduleErr != nil {
		return m.ScheduleErr
	}
	if _, ok := m.Reports[id]; !ok {
		return service.ErrReportNotFound
	}
	m.Scheduled = append(m.Scheduled, id)
	return nil
}

func (m *MockReportService) Reanalyze(ctx context.Context, id uuid.UUID) (*domain.SleepReport, error) {
	return m.GetReport(ctx, id)
}

func newMockReportService(reports ...*domain.SleepReport) *MockReportService {
	m := &MockReportService{Reports: make(map[uuid.UUID]*domain.SleepReport)}
	for _, r := range reports {
		m.Reports[r.ID] = r
		m.Ordered = append(m.Ordered, r)
	}
	return m
}
