package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-publicworks-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Metric source tiers, best first.
const (
	sourceProjectHistory = "project_history"
	sourceAssignments    = "assignments"
	sourceStoredRating   = "stored_rating"
)

type evaluationRepo struct {
	db    *pgxpool.Pool
	probe *SchemaProbe
}

// NewEvaluationRepository creates the scoring engine's persistence backend.
func NewEvaluationRepository(db *pgxpool.Pool, probe *SchemaProbe) domain.EvaluationRepository {
	return &evaluationRepo{db: db, probe: probe}
}

// AggregateMetrics computes fresh inputs for one scoring run. It prefers the
// detailed project-history table, falls back to the assignment/status join,
// and finally to the stored rating alone, depending on which tables the
// deployment has.
func (r *evaluationRepo) AggregateMetrics(ctx context.Context, contractorID int64) (*domain.EvaluationMetrics, error) {
	caps, err := r.probe.Snapshot(ctx, []string{
		"contractors", "contractor_projects", "project_assignments", "projects", "contractor_violations",
	})
	if err != nil {
		return nil, err
	}
	if !caps.Has("contractors") {
		return nil, domain.ErrTableMissing
	}

	// The contractor row anchors every tier; its stored rating is also the
	// last-resort metric source.
	var storedRating *float64
	err = r.db.QueryRow(ctx, `SELECT rating FROM contractors WHERE id = $1`, contractorID).Scan(&storedRating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if !caps.HasColumn("contractors", "rating") {
			// Older schema without a rating column; re-check existence only.
			var exists bool
			if err2 := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contractors WHERE id = $1)`, contractorID).Scan(&exists); err2 != nil {
				return nil, err2
			}
			if !exists {
				return nil, domain.ErrNotFound
			}
		} else {
			return nil, err
		}
	}

	m := &domain.EvaluationMetrics{}

	switch {
	case caps.Has("contractor_projects"):
		err = r.db.QueryRow(ctx, `
			SELECT COUNT(*),
			       COUNT(*) FILTER (WHERE status = 'completed'),
			       COUNT(*) FILTER (WHERE is_delayed),
			       COALESCE(AVG(rating), 0)
			FROM contractor_projects WHERE contractor_id = $1`,
			contractorID,
		).Scan(&m.TotalProjects, &m.CompletedProjects, &m.DelayedProjects, &m.AverageRating)
		if err != nil {
			return nil, err
		}
		m.Source = sourceProjectHistory

	case caps.Has("project_assignments") && caps.Has("projects"):
		err = r.db.QueryRow(ctx, `
			SELECT COUNT(*),
			       COUNT(*) FILTER (WHERE p.status = 'completed'),
			       COUNT(*) FILTER (WHERE p.completed_at IS NOT NULL AND p.target_date IS NOT NULL AND p.completed_at > p.target_date),
			       COALESCE(AVG(p.rating), 0)
			FROM project_assignments pa
			JOIN projects p ON p.id = pa.project_id
			WHERE pa.contractor_id = $1`,
			contractorID,
		).Scan(&m.TotalProjects, &m.CompletedProjects, &m.DelayedProjects, &m.AverageRating)
		if err != nil {
			return nil, err
		}
		m.Source = sourceAssignments

	default:
		if storedRating != nil {
			m.AverageRating = *storedRating
		}
		m.Source = sourceStoredRating
	}

	if caps.Has("contractor_violations") {
		err = r.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM contractor_violations WHERE contractor_id = $1 AND resolved_at IS NULL`,
			contractorID,
		).Scan(&m.OpenViolations)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// evaluationBreakdown is the immutable JSON snapshot stored with each log
// entry, preserving exactly what a past score was computed from.
type evaluationBreakdown struct {
	Metrics domain.EvaluationMetrics `json:"metrics"`
	Scores  domain.EvaluationScores  `json:"scores"`
}

// PersistEvaluation writes the scores onto the contractor profile (best
// effort, column-gated) and appends one immutable evaluation log entry.
// Prior entries are never touched; evaluation history accumulates.
func (r *evaluationRepo) PersistEvaluation(ctx context.Context, contractorID int64, m domain.EvaluationMetrics, s domain.EvaluationScores, actorID *int64) error {
	caps, err := r.probe.Snapshot(ctx, []string{"contractors", "contractor_evaluation_logs"})
	if err != nil {
		return err
	}
	if !caps.Has("contractor_evaluation_logs") {
		return domain.ErrTableMissing
	}

	now := time.Now()
	if caps.Has("contractors") {
		fields := map[string]any{
			"performance_score": s.PerformanceScore,
			"reliability_score": s.ReliabilityScore,
			"risk_score":        s.RiskScore,
			"risk_level":        s.RiskLevel,
			"compliance_status": s.ComplianceStatus,
			"last_evaluated_at": now,
			"updated_at":        now,
		}
		query, args := buildUpdate("contractors", fields, caps, contractorID)
		if query != "" {
			if _, err := r.db.Exec(ctx, query, args...); err != nil {
				return err
			}
		}
	}

	breakdown, err := json.Marshal(evaluationBreakdown{Metrics: m, Scores: s})
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO contractor_evaluation_logs
			(contractor_id, reference, risk_score, risk_level, compliance_status, recommendation, breakdown, evaluated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		contractorID, uuid.NewString(), s.RiskScore, s.RiskLevel, s.ComplianceStatus, s.Recommendation, breakdown, actorID, now,
	)
	return err
}

// History lists prior evaluation runs, newest first.
func (r *evaluationRepo) History(ctx context.Context, contractorID int64) ([]domain.EvaluationLogEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, contractor_id, reference, risk_score, risk_level, compliance_status, recommendation, breakdown, evaluated_by, created_at
		FROM contractor_evaluation_logs
		WHERE contractor_id = $1
		ORDER BY created_at DESC`,
		contractorID,
	)
	if err != nil {
		return nil, mapTableError(err)
	}
	defer rows.Close()

	entries := []domain.EvaluationLogEntry{}
	for rows.Next() {
		var entry domain.EvaluationLogEntry
		if err := rows.Scan(
			&entry.ID, &entry.ContractorID, &entry.Reference, &entry.RiskScore, &entry.RiskLevel,
			&entry.ComplianceStatus, &entry.Recommendation, &entry.Breakdown, &entry.EvaluatedBy, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	// Simple protocol defers an undefined_table error to Err().
	if err := rows.Err(); err != nil {
		return nil, mapTableError(err)
	}
	return entries, nil
}
