package domain

import (
	"context"
	"time"
)

// Risk level constants, ordered from best to worst
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Compliance status constants
const (
	ComplianceCompliant    = "Compliant"
	ComplianceNeedsReview  = "Needs Review"
	ComplianceNonCompliant = "Non-compliant"
)

// EvaluationMetrics are the raw project-history inputs for one scoring run.
// Computed fresh per run, never stored directly.
type EvaluationMetrics struct {
	TotalProjects     int     `json:"total_projects"`
	CompletedProjects int     `json:"completed_projects"`
	DelayedProjects   int     `json:"delayed_projects"`
	AverageRating     float64 `json:"average_rating"` // 0-5 scale
	OpenViolations    int     `json:"open_violations"`
	// Source records which aggregation tier produced the numbers:
	// project_history, assignments, or stored_rating.
	Source string `json:"source"`
}

// EvaluationScores is the deterministic output of one scoring run.
type EvaluationScores struct {
	CompletionRate   float64 `json:"completion_rate"`
	DelayRate        float64 `json:"delay_rate"`
	PerformanceScore float64 `json:"performance_score"`
	ReliabilityScore float64 `json:"reliability_score"`
	RiskScore        float64 `json:"risk_score"` // 0-100
	RiskLevel        string  `json:"risk_level"`
	ComplianceStatus string  `json:"compliance_status"`
	Recommendation   string  `json:"recommendation"`
}

// EvaluationLogEntry is one immutable row of evaluation history. The
// breakdown captures the full metrics and scores used, so past decisions
// stay auditable after the contractor's profile is overwritten.
type EvaluationLogEntry struct {
	ID               int64     `json:"id"`
	ContractorID     int64     `json:"contractor_id"`
	Reference        string    `json:"reference"` // uuid tying the log row to reports
	RiskScore        float64   `json:"risk_score"`
	RiskLevel        string    `json:"risk_level"`
	ComplianceStatus string    `json:"compliance_status"`
	Recommendation   string    `json:"recommendation"`
	Breakdown        string    `json:"breakdown"` // JSON of metrics + scores
	EvaluatedBy      *int64    `json:"evaluated_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// EvaluationRepository aggregates history metrics and persists results.
type EvaluationRepository interface {
	// AggregateMetrics prefers the detailed project-history table, falls
	// back to the assignment/status join, then to the stored rating alone.
	AggregateMetrics(ctx context.Context, contractorID int64) (*EvaluationMetrics, error)
	// PersistEvaluation updates the contractor profile's evaluation columns
	// (best effort) and appends one evaluation log entry.
	PersistEvaluation(ctx context.Context, contractorID int64, m EvaluationMetrics, s EvaluationScores, actorID *int64) error
	History(ctx context.Context, contractorID int64) ([]EvaluationLogEntry, error)
}

// EvaluationUsecase runs the scoring engine.
type EvaluationUsecase interface {
	// Evaluate is a pure function of the metrics.
	Evaluate(m EvaluationMetrics) EvaluationScores
	Run(ctx context.Context, contractorID int64, actorID *int64) (*EvaluationScores, *EvaluationMetrics, error)
	History(ctx context.Context, contractorID int64) ([]EvaluationLogEntry, error)
}
