package usecase

import (
	"context"
	"errors"

	"go-publicworks-backend/internal/domain"
	"go-publicworks-backend/pkg/apperror"
)

// Score weights and thresholds. The formulas are deterministic: the same
// metrics always yield the same scores.
const (
	riskHighThreshold   = 70.0
	riskMediumThreshold = 40.0
)

type evaluationUsecase struct {
	evaluationRepo domain.EvaluationRepository
}

// NewEvaluationUsecase creates the contractor scoring engine.
func NewEvaluationUsecase(repo domain.EvaluationRepository) domain.EvaluationUsecase {
	return &evaluationUsecase{evaluationRepo: repo}
}

// Evaluate converts raw project-history metrics into performance,
// reliability and risk classifications. Pure: no I/O, no clock, no state.
func (uc *evaluationUsecase) Evaluate(m domain.EvaluationMetrics) domain.EvaluationScores {
	total := float64(maxInt(m.TotalProjects, 0))
	completed := clamp(float64(m.CompletedProjects), 0, total)
	delayed := clamp(float64(m.DelayedProjects), 0, total)
	violations := maxInt(m.OpenViolations, 0)

	var completionRate, delayRate float64
	if total > 0 {
		completionRate = completed / total * 100
		delayRate = delayed / total * 100
	}
	ratingScore := clamp(m.AverageRating, 0, 5) / 5 * 100
	violationPenalty := minFloat(100, float64(violations)*10)

	performance := 0.45*completionRate + 0.35*ratingScore + 0.20*(100-delayRate)
	reliability := 0.60*completionRate + 0.25*(100-delayRate) + 0.15*(100-violationPenalty)
	risk := clamp(100-0.5*(performance+reliability)+minFloat(35, float64(violations)*7), 0, 100)

	scores := domain.EvaluationScores{
		CompletionRate:   completionRate,
		DelayRate:        delayRate,
		PerformanceScore: performance,
		ReliabilityScore: reliability,
		RiskScore:        risk,
		RiskLevel:        riskLevelFor(risk),
	}
	scores.ComplianceStatus = complianceFor(violations)
	scores.Recommendation = recommendationFor(scores.RiskLevel)
	return scores
}

// Run aggregates fresh metrics, scores them, and persists the result with
// an appended evaluation log entry. The read and the write are not one
// transaction; scoring is best-effort, not linearizable.
func (uc *evaluationUsecase) Run(ctx context.Context, contractorID int64, actorID *int64) (*domain.EvaluationScores, *domain.EvaluationMetrics, error) {
	metrics, err := uc.evaluationRepo.AggregateMetrics(ctx, contractorID)
	if err != nil {
		return nil, nil, mapEvaluationError(err)
	}

	scores := uc.Evaluate(*metrics)

	if err := uc.evaluationRepo.PersistEvaluation(ctx, contractorID, *metrics, scores, actorID); err != nil {
		return nil, nil, mapEvaluationError(err)
	}
	return &scores, metrics, nil
}

// History returns prior evaluation runs, newest first.
func (uc *evaluationUsecase) History(ctx context.Context, contractorID int64) ([]domain.EvaluationLogEntry, error) {
	entries, err := uc.evaluationRepo.History(ctx, contractorID)
	if err != nil {
		return nil, mapEvaluationError(err)
	}
	return entries, nil
}

// riskLevelFor is monotonic in the risk score: a higher score never maps to
// a lower level.
func riskLevelFor(riskScore float64) string {
	switch {
	case riskScore >= riskHighThreshold:
		return domain.RiskHigh
	case riskScore >= riskMediumThreshold:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func complianceFor(openViolations int) string {
	switch {
	case openViolations == 0:
		return domain.ComplianceCompliant
	case openViolations < 3:
		return domain.ComplianceNeedsReview
	default:
		return domain.ComplianceNonCompliant
	}
}

func recommendationFor(riskLevel string) string {
	switch riskLevel {
	case domain.RiskLow:
		return "Recommended for assignment"
	case domain.RiskMedium:
		return "Assign with monitoring"
	default:
		return "Do not prioritize for critical projects"
	}
}

func mapEvaluationError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperror.NotFound("Contractor not found")
	case errors.Is(err, domain.ErrTableMissing):
		return apperror.Configuration(migrationAdvice, err)
	default:
		return apperror.Internal(err)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
