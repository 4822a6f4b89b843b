package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/sleepwatch/internal/domain"
	"github.com/phrazzld/sleepwatch/internal/platform/logger"
	"github.com/phrazzld/sleepwatch/internal/store"
)

// MaxListLimit caps a single List page.
const MaxListLimit = 100

// ReportStore implements the store.ReportStore interface on SQLite.
type ReportStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewReportStore creates a ReportStore on an opened and migrated database.
// If logger is nil, a default logger will be used.
func NewReportStore(db *sql.DB, logger *slog.Logger) *ReportStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportStore{
		db:     db,
		logger: logger.With(slog.String("component", "report_store")),
	}
}

// Ensure ReportStore implements store.ReportStore interface
var _ store.ReportStore = (*ReportStore)(nil)

const reportColumns = `id, started_at, ended_at, observation_count, status, observations, created_at, updated_at`

// Save implements store.ReportStore.Save
func (s *ReportStore) Save(ctx context.Context, report *domain.SleepReport) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := report.Validate(); err != nil {
		log.Warn("report validation failed during save",
			slog.String("error", err.Error()),
			slog.String("report_id", report.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var observations sql.NullString
	if len(report.Observations) > 0 {
		raw, err := json.Marshal(report.Observations)
		if err != nil {
			return store.NewStoreError("report", "save", "failed to encode observations", err)
		}
		observations = sql.NullString{String: string(raw), Valid: true}
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sleep_reports (`+reportColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				started_at = excluded.started_at,
				ended_at = excluded.ended_at,
				observation_count = excluded.observation_count,
				status = excluded.status,
				observations = excluded.observations,
				updated_at = excluded.updated_at
		`,
			report.ID.String(),
			report.StartedAt.UnixMilli(),
			report.EndedAt.UnixMilli(),
			report.ObservationCount,
			string(report.Status),
			observations,
			report.CreatedAt.UnixMilli(),
			report.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return store.NewStoreError("report", "save", "failed to upsert report", err)
		}
		return replaceScores(ctx, tx, report.ID, report.Scores)
	})
	if err != nil {
		log.Error("failed to save report",
			slog.String("error", err.Error()),
			slog.String("report_id", report.ID.String()))
		return err
	}

	log.Info("report saved",
		slog.String("report_id", report.ID.String()),
		slog.String("status", string(report.Status)),
		slog.Int("slot_count", len(report.Scores)))
	return nil
}

func replaceScores(ctx context.Context, q store.DBTX, id uuid.UUID, scores domain.QualityScoreMap) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM report_scores WHERE report_id = ?`, id.String()); err != nil {
		return store.NewStoreError("report", "save", "failed to clear scores", err)
	}
	if len(scores) == 0 {
		return nil
	}

	stmt, err := q.PrepareContext(ctx, `INSERT INTO report_scores (report_id, slot, score) VALUES (?, ?, ?)`)
	if err != nil {
		return store.NewStoreError("report", "save", "failed to prepare score insert", err)
	}
	defer func() { _ = stmt.Close() }()

	for slot, score := range scores {
		if _, err := stmt.ExecContext(ctx, id.String(), slot, score); err != nil {
			return store.NewStoreError("report", "save", "failed to insert score for "+slot, err)
		}
	}
	return nil
}

// GetByID implements store.ReportStore.GetByID
func (s *ReportStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SleepReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("retrieving report by ID", slog.String("report_id", id.String()))

	row := s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM sleep_reports WHERE id = ?`, id.String())
	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReportNotFound
		}
		log.Error("failed to get report by ID",
			slog.String("error", err.Error()),
			slog.String("report_id", id.String()))
		return nil, store.NewStoreError("report", "get", "failed to read report", err)
	}

	if err := s.loadScores(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Latest implements store.ReportStore.Latest
func (s *ReportStore) Latest(ctx context.Context) (*domain.SleepReport, error) {
	reports, err := s.List(ctx, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, store.ErrReportNotFound
	}
	return reports[0], nil
}

// List implements store.ReportStore.List
func (s *ReportStore) List(ctx context.Context, limit, offset int) ([]*domain.SleepReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM sleep_reports
		ORDER BY ended_at DESC, created_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		log.Error("failed to list reports", slog.String("error", err.Error()))
		return nil, store.NewStoreError("report", "list", "failed to query reports", err)
	}

	reports := make([]*domain.SleepReport, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			_ = rows.Close()
			return nil, store.NewStoreError("report", "list", "failed to scan report", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, store.NewStoreError("report", "list", "failed to iterate reports", err)
	}
	// Scores are loaded after the cursor is released; the pool holds one connection.
	_ = rows.Close()

	for _, report := range reports {
		if err := s.loadScores(ctx, report); err != nil {
			return nil, err
		}
	}

	log.Debug("reports listed", slog.Int("count", len(reports)))
	return reports, nil
}

func (s *ReportStore) loadScores(ctx context.Context, report *domain.SleepReport) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slot, score FROM report_scores WHERE report_id = ?`, report.ID.String())
	if err != nil {
		return store.NewStoreError("report", "get", "failed to query scores", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var slot string
		var score int
		if err := rows.Scan(&slot, &score); err != nil {
			return store.NewStoreError("report", "get", "failed to scan score", err)
		}
		if report.Scores == nil {
			report.Scores = domain.QualityScoreMap{}
		}
		report.Scores[slot] = score
	}
	if err := rows.Err(); err != nil {
		return store.NewStoreError("report", "get", "failed to iterate scores", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*domain.SleepReport, error) {
	var (
		id                                       string
		status                                   string
		observations                             sql.NullString
		startedAt, endedAt, createdAt, updatedAt int64
		report                                   domain.SleepReport
	)

	if err := row.Scan(&id, &startedAt, &endedAt, &report.ObservationCount,
		&status, &observations, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: stored report ID %q: %v", domain.ErrInvalidID, id, err)
	}

	report.ID = parsed
	report.Status = domain.ReportStatus(status)
	report.StartedAt = fromMillis(startedAt)
	report.EndedAt = fromMillis(endedAt)
	report.CreatedAt = fromMillis(createdAt)
	report.UpdatedAt = fromMillis(updatedAt)

	if observations.Valid && observations.String != "" {
		if err := json.Unmarshal([]byte(observations.String), &report.Observations); err != nil {
			return nil, fmt.Errorf("failed to decode observations: %w", err)
		}
	}
	return &report, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
