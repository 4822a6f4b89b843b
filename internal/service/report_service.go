package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/sleepwatch/internal/domain"
	"github.com/phrazzld/sleepwatch/internal/events"
	"github.com/phrazzld/sleepwatch/internal/store"
	"github.com/phrazzld/sleepwatch/internal/task"
)

// abortedSaveTimeout bounds the save of a session whose analysis context
// was cancelled, typically by a shutdown deadline.
const abortedSaveTimeout = 5 * time.Second

// SessionAnalyzer scores a session's observations. A nil map means the
// session could not be scored.
type SessionAnalyzer interface {
	Analyze(ctx context.Context, observations []domain.SensorObservation) domain.QualityScoreMap
	Enabled() bool
}

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(ctx context.Context, task task.Task) error
}

// ReportService provides sleep report operations
type ReportService interface {
	// Submit queues a finished session for analysis and returns immediately.
	Submit(ctx context.Context, session domain.Session) error

	// RecordSession analyzes a session, persists the report and emits
	// analysis.completed.
	RecordSession(ctx context.Context, session domain.Session) (*domain.SleepReport, error)

	// GetReport retrieves a report by its ID
	GetReport(ctx context.Context, id uuid.UUID) (*domain.SleepReport, error)

	// LatestReport returns the report of the most recently ended session.
	LatestReport(ctx context.Context) (*domain.SleepReport, error)

	// ListReports returns reports newest first.
	ListReports(ctx context.Context, limit, offset int) ([]*domain.SleepReport, error)

	// ScheduleReanalysis validates that a report can be scored again and
	// queues the work.
	ScheduleReanalysis(ctx context.Context, id uuid.UUID) error

	// Reanalyze scores a failed report's retained session again.
	Reanalyze(ctx context.Context, id uuid.UUID) (*domain.SleepReport, error)
}

// ReportServiceConfig holds report service options.
type ReportServiceConfig struct {
	// RetainFailedSessions keeps the observations of failed reports so they
	// can be re-analyzed.
	RetainFailedSessions bool
}

// reportServiceImpl implements the ReportService interface
type reportServiceImpl struct {
	reports      store.ReportStore
	analyzer     SessionAnalyzer
	taskRunner   TaskRunner
	eventEmitter events.EventEmitter
	cfg          ReportServiceConfig
	logger       *slog.Logger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

var _ ReportService = (*reportServiceImpl)(nil)

// NewReportService creates a new ReportService
// It returns an error if any of the required dependencies are nil.
func NewReportService(
	reports store.ReportStore,
	analyzer SessionAnalyzer,
	taskRunner TaskRunner,
	eventEmitter events.EventEmitter,
	cfg ReportServiceConfig,
	logger *slog.Logger,
) (ReportService, error) {
	switch {
	case reports == nil:
		return nil, &ReportServiceError{Operation: "create_service", Message: "reports cannot be nil"}
	case analyzer == nil:
		return nil, &ReportServiceError{Operation: "create_service", Message: "analyzer cannot be nil"}
	case taskRunner == nil:
		return nil, &ReportServiceError{Operation: "create_service", Message: "taskRunner cannot be nil"}
	case eventEmitter == nil:
		return nil, &ReportServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	case logger == nil:
		return nil, &ReportServiceError{Operation: "create_service", Message: "logger cannot be nil"}
	}

	return &reportServiceImpl{
		reports:      reports,
		analyzer:     analyzer,
		taskRunner:   taskRunner,
		eventEmitter: eventEmitter,
		cfg:          cfg,
		logger:       logger.With("component", "report_service"),
		inFlight:     make(map[uuid.UUID]struct{}),
	}, nil
}

// Submit queues the session for analysis. When the runner refuses the task
// the session is stored unanalyzed so it is not lost.
func (s *reportServiceImpl) Submit(ctx context.Context, session domain.Session) error {
	t, err := task.NewFuncTask(task.TaskTypeSessionAnalysis, func(taskCtx context.Context) error {
		_, err := s.RecordSession(taskCtx, session)
		return err
	})
	if err != nil {
		return NewReportServiceError("submit_session", "failed to create analysis task", err)
	}

	if err := s.taskRunner.Submit(ctx, t); err != nil {
		s.logger.ErrorContext(ctx, "failed to queue session analysis, storing it unanalyzed",
			"error", err,
			"observation_count", len(session.Observations))
		if _, saveErr := s.persist(ctx, session, nil); saveErr != nil {
			s.logger.ErrorContext(ctx, "failed to store unanalyzed session", "error", saveErr)
		}
		return NewReportServiceError("submit_session", "failed to queue analysis", err)
	}

	s.logger.DebugContext(ctx, "session queued for analysis",
		"task_id", t.ID(),
		"observation_count", len(session.Observations))
	return nil
}

// RecordSession runs the analysis synchronously. If ctx is cancelled the
// session is still stored, unscored, so it can be re-analyzed later.
func (s *reportServiceImpl) RecordSession(ctx context.Context, session domain.Session) (*domain.SleepReport, error) {
	var scores domain.QualityScoreMap
	if ctx.Err() == nil {
		scores = s.analyzer.Analyze(ctx, session.Observations)
	}

	saveCtx, cancel := s.saveContext(ctx)
	defer cancel()
	report, err := s.persist(saveCtx, session, scores)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "sleep report recorded",
		"report_id", report.ID,
		"status", report.Status,
		"observation_count", report.ObservationCount,
		"slot_count", len(report.Scores))
	s.emitCompleted(ctx, report)
	return report, nil
}

// saveContext returns ctx unless it is already done, in which case it
// returns a detached context bounded by abortedSaveTimeout.
func (s *reportServiceImpl) saveContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx.Err() == nil {
		return ctx, func() {}
	}
	s.logger.WarnContext(ctx, "analysis cancelled, storing session unscored", "cause", context.Cause(ctx))
	return context.WithTimeout(context.WithoutCancel(ctx), abortedSaveTimeout)
}

func (s *reportServiceImpl) persist(ctx context.Context, session domain.Session, scores domain.QualityScoreMap) (*domain.SleepReport, error) {
	report, err := domain.NewSleepReport(session, scores, s.cfg.RetainFailedSessions)
	if err != nil {
		return nil, NewReportServiceError("record_session", "invalid report", err)
	}
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, NewReportServiceError("record_session", "failed to save report", err)
	}
	return report, nil
}

// GetReport retrieves a report by its ID
func (s *reportServiceImpl) GetReport(ctx context.Context, id uuid.UUID) (*domain.SleepReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, NewReportServiceError("get_report", "failed to retrieve report", err)
	}
	return report, nil
}

// LatestReport returns the report of the most recently ended session.
func (s *reportServiceImpl) LatestReport(ctx context.Context) (*domain.SleepReport, error) {
	report, err := s.reports.Latest(ctx)
	if err != nil {
		return nil, NewReportServiceError("latest_report", "failed to retrieve latest report", err)
	}
	return report, nil
}

// ListReports returns reports newest first.
func (s *reportServiceImpl) ListReports(ctx context.Context, limit, offset int) ([]*domain.SleepReport, error) {
	reports, err := s.reports.List(ctx, limit, offset)
	if err != nil {
		return nil, NewReportServiceError("list_reports", "failed to list reports", err)
	}
	return reports, nil
}

// ScheduleReanalysis checks the report up front so the caller gets an
// immediate answer, then leaves the scoring to the task runner.
func (s *reportServiceImpl) ScheduleReanalysis(ctx context.Context, id uuid.UUID) error {
	if err := s.checkReanalyzable(ctx, id); err != nil {
		return err
	}
	if !s.claim(id) {
		return ErrReanalysisInProgress
	}

	t, err := task.NewFuncTask(task.TaskTypeReanalysis, func(taskCtx context.Context) error {
		defer s.release(id)
		_, err := s.reanalyze(taskCtx, id)
		return err
	})
	if err != nil {
		s.release(id)
		return NewReportServiceError("schedule_reanalysis", "failed to create task", err)
	}
	if err := s.taskRunner.Submit(ctx, t); err != nil {
		s.release(id)
		return NewReportServiceError("schedule_reanalysis", "failed to queue task", err)
	}

	s.logger.InfoContext(ctx, "re-analysis queued", "report_id", id, "task_id", t.ID())
	return nil
}

// Reanalyze scores a failed report's retained session again.
func (s *reportServiceImpl) Reanalyze(ctx context.Context, id uuid.UUID) (*domain.SleepReport, error) {
	if !s.claim(id) {
		return nil, ErrReanalysisInProgress
	}
	defer s.release(id)
	return s.reanalyze(ctx, id)
}

func (s *reportServiceImpl) reanalyze(ctx context.Context, id uuid.UUID) (*domain.SleepReport, error) {
	if !s.analyzer.Enabled() {
		return nil, ErrAnalysisUnavailable
	}

	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, NewReportServiceError("reanalyze", "failed to retrieve report", err)
	}
	if !report.Reanalyzable() {
		return nil, ErrNothingToReanalyze
	}

	scores := s.analyzer.Analyze(ctx, report.Observations)
	if scores == nil {
		s.logger.WarnContext(ctx, "re-analysis produced no scores", "report_id", id)
		return report, ErrAnalysisFailed
	}

	if err := report.Complete(scores); err != nil {
		return nil, NewReportServiceError("reanalyze", "invalid scores", err)
	}
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, NewReportServiceError("reanalyze", "failed to save report", err)
	}

	s.logger.InfoContext(ctx, "report re-analyzed",
		"report_id", id,
		"slot_count", len(report.Scores))
	s.emitCompleted(ctx, report)
	return report, nil
}

func (s *reportServiceImpl) checkReanalyzable(ctx context.Context, id uuid.UUID) error {
	if !s.analyzer.Enabled() {
		return ErrAnalysisUnavailable
	}
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return NewReportServiceError("schedule_reanalysis", "failed to retrieve report", err)
	}
	if !report.Reanalyzable() {
		return ErrNothingToReanalyze
	}
	return nil
}

func (s *reportServiceImpl) claim(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return false
	}
	s.inFlight[id] = struct{}{}
	return true
}

func (s *reportServiceImpl) release(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// emitCompleted publishes analysis.completed. Emission failures are logged
// only; the report is already stored.
func (s *reportServiceImpl) emitCompleted(ctx context.Context, report *domain.SleepReport) {
	if err := events.Emit(ctx, s.eventEmitter, events.TypeAnalysisCompleted, report); err != nil {
		s.logger.WarnContext(ctx, "failed to emit analysis event",
			"report_id", report.ID,
			"error", err)
	}
}
