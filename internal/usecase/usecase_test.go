package usecase_test

import (
	"context"
	"sort"
	"testing"

	"go-publicworks-backend/internal/domain"
	"go-publicworks-backend/internal/usecase"
	"go-publicworks-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Mock Repositories
type MockApplicationRepo struct {
	mock.Mock
}

func (m *MockApplicationRepo) FindByID(ctx context.Context, kind domain.ApplicationKind, id int64) (*domain.Application, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationRepo) List(ctx context.Context, kind domain.ApplicationKind, filter domain.ApplicationFilter) ([]domain.Application, error) {
	args := m.Called(ctx, kind, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *MockApplicationRepo) SummaryCounts(ctx context.Context, kind domain.ApplicationKind) (map[string]int64, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockApplicationRepo) DocumentsFor(ctx context.Context, kind domain.ApplicationKind, id int64) ([]domain.ApplicationDocument, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ApplicationDocument), args.Error(1)
}

func (m *MockApplicationRepo) TransitionLogsFor(ctx context.Context, kind domain.ApplicationKind, id int64) ([]domain.TransitionLogEntry, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TransitionLogEntry), args.Error(1)
}

func (m *MockApplicationRepo) ListByStatus(ctx context.Context, kind domain.ApplicationKind, status string) ([]domain.Application, error) {
	args := m.Called(ctx, kind, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *MockApplicationRepo) UpdateFields(ctx context.Context, kind domain.ApplicationKind, id int64, fields map[string]any) error {
	return m.Called(ctx, kind, id, fields).Error(0)
}

type MockTransitionRepo struct {
	mock.Mock
}

func (m *MockTransitionRepo) ApplyTransition(ctx context.Context, app *domain.Application, input domain.StatusUpdateInput) (*domain.TransitionResult, error) {
	args := m.Called(ctx, app, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransitionResult), args.Error(1)
}

type MockEvaluationRepo struct {
	mock.Mock
}

func (m *MockEvaluationRepo) AggregateMetrics(ctx context.Context, contractorID int64) (*domain.EvaluationMetrics, error) {
	args := m.Called(ctx, contractorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EvaluationMetrics), args.Error(1)
}

func (m *MockEvaluationRepo) PersistEvaluation(ctx context.Context, contractorID int64, metrics domain.EvaluationMetrics, scores domain.EvaluationScores, actorID *int64) error {
	return m.Called(ctx, contractorID, metrics, scores, actorID).Error(0)
}

func (m *MockEvaluationRepo) History(ctx context.Context, contractorID int64) ([]domain.EvaluationLogEntry, error) {
	args := m.Called(ctx, contractorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.EvaluationLogEntry), args.Error(1)
}

func appErrCode(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := err.(*apperror.AppError)
	if !ok {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	return appErr.Code
}

func TestUpdateStatusValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("Should reject a status outside the kind's set before any repository call", func(t *testing.T) {
		appRepo := new(MockApplicationRepo)
		transRepo := new(MockTransitionRepo)
		uc := usecase.NewTransitionUsecase(appRepo, transRepo)

		_, err := uc.UpdateStatus(ctx, domain.KindEngineer, 1, domain.StatusUpdateInput{NewStatus: "archived"})
		assert.Error(t, err)
		assert.Equal(t, 422, appErrCode(t, err))
		appRepo.AssertNotCalled(t, "FindByID")
		transRepo.AssertNotCalled(t, "ApplyTransition")
	})

	t.Run("Should reject blacklisting an engineer", func(t *testing.T) {
		appRepo := new(MockApplicationRepo)
		transRepo := new(MockTransitionRepo)
		uc := usecase.NewTransitionUsecase(appRepo, transRepo)

		_, err := uc.UpdateStatus(ctx, domain.KindEngineer, 1, domain.StatusUpdateInput{
			NewStatus: domain.StatusBlacklisted,
			Reason:    "fraud",
		})
		assert.Error(t, err)
		assert.Equal(t, 422, appErrCode(t, err))
	})

	t.Run("Should allow blacklisting a contractor", func(t *testing.T) {
		appRepo := new(MockApplicationRepo)
		transRepo := new(MockTransitionRepo)
		uc := usecase.NewTransitionUsecase(appRepo, transRepo)

		app := &domain.Application{ID: 1, Kind: domain.KindContractor, Status: domain.StatusVerified}
		appRepo.On("FindByID", ctx, domain.KindContractor, int64(1)).Return(app, nil)
		transRepo.On("ApplyTransition", ctx, app, mock.AnythingOfType("domain.StatusUpdateInput")).
			Return(&domain.TransitionResult{OldStatus: domain.StatusVerified, NewStatus: domain.StatusBlacklisted}, nil)

		result, err := uc.UpdateStatus(ctx, domain.KindContractor, 1, domain.StatusUpdateInput{
			NewStatus: domain.StatusBlacklisted,
			Reason:    "ghost projects",
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.StatusBlacklisted, result.NewStatus)
	})

	t.Run("Should reject a negative outcome with empty reason before touching the database", func(t *testing.T) {
		appRepo := new(MockApplicationRepo)
		transRepo := new(MockTransitionRepo)
		uc := usecase.NewTransitionUsecase(appRepo, transRepo)

		for _, status := range []string{domain.StatusRejected, domain.StatusSuspended} {
			_, err := uc.UpdateStatus(ctx, domain.KindEngineer, 1, domain.StatusUpdateInput{
				NewStatus: status,
				Reason:    "   ",
			})
			assert.Error(t, err)
			assert.Equal(t, 422, appErrCode(t, err))
			assert.Contains(t, err.Error(), "reason is required")
		}
		appRepo.AssertNotCalled(t, "FindByID")
		transRepo.AssertNotCalled(t, "ApplyTransition")
	})

	t.Run("Should return 404 for a missing application", func(t *testing.T) {
		appRepo := new(MockApplicationRepo)
		transRepo := new(MockTransitionRepo)
		uc := usecase.NewTransitionUsecase(appRepo, transRepo)

		appRepo.On("FindByID", ctx, domain.KindEngineer, int64(99)).Return(nil, domain.ErrNotFound)

		_, err := uc.UpdateStatus(ctx, domain.KindEngineer, 99, domain.StatusUpdateInput{
			NewStatus: domain.StatusUnderReview,
		})
		assert.Error(t, err)
		assert.Equal(t, 404, appErrCode(t, err))
	})

	t.Run("Should surface the missing credential message on approval", func(t *testing.T) {
		appRepo := new(MockApplicationRepo)
		transRepo := new(MockTransitionRepo)
		uc := usecase.NewTransitionUsecase(appRepo, transRepo)

		app := &domain.Application{ID: 2, Kind: domain.KindEngineer, Status: domain.StatusVerified}
		appRepo.On("FindByID", ctx, domain.KindEngineer, int64(2)).Return(app, nil)
		transRepo.On("ApplyTransition", ctx, app, mock.AnythingOfType("domain.StatusUpdateInput")).
			Return(nil, domain.ErrMissingCredential)

		_, err := uc.UpdateStatus(ctx, domain.KindEngineer, 2, domain.StatusUpdateInput{
			NewStatus: domain.StatusApproved,
		})
		assert.Error(t, err)
		assert.Equal(t, 500, appErrCode(t, err))
		assert.Contains(t, err.Error(), "Missing applicant password hash")
	})

	t.Run("Should normalize status case and surrounding whitespace", func(t *testing.T) {
		appRepo := new(MockApplicationRepo)
		transRepo := new(MockTransitionRepo)
		uc := usecase.NewTransitionUsecase(appRepo, transRepo)

		app := &domain.Application{ID: 3, Kind: domain.KindEngineer, Status: domain.StatusPending}
		appRepo.On("FindByID", ctx, domain.KindEngineer, int64(3)).Return(app, nil)
		transRepo.On("ApplyTransition", ctx, app, mock.MatchedBy(func(in domain.StatusUpdateInput) bool {
			return in.NewStatus == domain.StatusUnderReview
		})).Return(&domain.TransitionResult{OldStatus: domain.StatusPending, NewStatus: domain.StatusUnderReview}, nil)

		_, err := uc.UpdateStatus(ctx, domain.KindEngineer, 3, domain.StatusUpdateInput{
			NewStatus: "  Under_Review ",
		})
		assert.NoError(t, err)
		transRepo.AssertExpectations(t)
	})
}

func TestEvaluateScenarios(t *testing.T) {
	uc := usecase.NewEvaluationUsecase(nil)

	t.Run("Healthy contractor scores low risk", func(t *testing.T) {
		scores := uc.Evaluate(domain.EvaluationMetrics{
			TotalProjects:     10,
			CompletedProjects: 8,
			DelayedProjects:   1,
			AverageRating:     4.0,
			OpenViolations:    0,
		})

		// 0.45*80 + 0.35*80 + 0.20*(100-10) = 82
		// 0.60*80 + 0.25*(100-10) + 0.15*100 = 85.5
		// 100 - 0.5*(82+85.5) + 0 = 16.25
		assert.InDelta(t, 80.0, scores.CompletionRate, 0.001)
		assert.InDelta(t, 10.0, scores.DelayRate, 0.001)
		assert.InDelta(t, 82.0, scores.PerformanceScore, 0.001)
		assert.InDelta(t, 85.5, scores.ReliabilityScore, 0.001)
		assert.InDelta(t, 16.25, scores.RiskScore, 0.001)
		assert.Equal(t, domain.RiskLow, scores.RiskLevel)
		assert.Equal(t, domain.ComplianceCompliant, scores.ComplianceStatus)
		assert.Equal(t, "Recommended for assignment", scores.Recommendation)
	})

	t.Run("Failing contractor scores high risk and non-compliance", func(t *testing.T) {
		scores := uc.Evaluate(domain.EvaluationMetrics{
			TotalProjects:     5,
			CompletedProjects: 1,
			DelayedProjects:   3,
			AverageRating:     1.0,
			OpenViolations:    4,
		})

		assert.Equal(t, domain.RiskHigh, scores.RiskLevel)
		assert.Equal(t, domain.ComplianceNonCompliant, scores.ComplianceStatus)
		assert.Equal(t, "Do not prioritize for critical projects", scores.Recommendation)
	})

	t.Run("No history yields zero rates, not NaN", func(t *testing.T) {
		scores := uc.Evaluate(domain.EvaluationMetrics{})
		assert.Equal(t, 0.0, scores.CompletionRate)
		assert.Equal(t, 0.0, scores.DelayRate)
		assert.False(t, scores.RiskScore < 0 || scores.RiskScore > 100)
	})

	t.Run("Out-of-range inputs are clamped before combination", func(t *testing.T) {
		scores := uc.Evaluate(domain.EvaluationMetrics{
			TotalProjects:     5,
			CompletedProjects: 50, // can't complete more than exist
			DelayedProjects:   -2,
			AverageRating:     9.9,
			OpenViolations:    -1,
		})
		assert.InDelta(t, 100.0, scores.CompletionRate, 0.001)
		assert.Equal(t, 0.0, scores.DelayRate)
		assert.GreaterOrEqual(t, scores.RiskScore, 0.0)
		assert.LessOrEqual(t, scores.RiskScore, 100.0)
	})
}

func TestRiskLevelMonotonic(t *testing.T) {
	uc := usecase.NewEvaluationUsecase(nil)

	rank := map[string]int{domain.RiskLow: 0, domain.RiskMedium: 1, domain.RiskHigh: 2}

	type sample struct {
		risk  float64
		level string
	}
	var samples []sample
	for total := 0; total <= 10; total += 5 {
		for completed := 0; completed <= total; completed += 5 {
			for delayed := 0; delayed <= total; delayed += 5 {
				for violations := 0; violations <= 12; violations += 3 {
					for _, rating := range []float64{0, 2.5, 5} {
						s := uc.Evaluate(domain.EvaluationMetrics{
							TotalProjects:     total,
							CompletedProjects: completed,
							DelayedProjects:   delayed,
							AverageRating:     rating,
							OpenViolations:    violations,
						})
						assert.GreaterOrEqual(t, s.RiskScore, 0.0)
						assert.LessOrEqual(t, s.RiskScore, 100.0)
						samples = append(samples, sample{risk: s.RiskScore, level: s.RiskLevel})
					}
				}
			}
		}
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].risk < samples[j].risk })
	prev := 0
	for _, s := range samples {
		assert.GreaterOrEqual(t, rank[s.level], prev, "risk level must not decrease as risk score increases")
		prev = rank[s.level]

		// Threshold mapping is exact
		switch {
		case s.risk >= 70:
			assert.Equal(t, domain.RiskHigh, s.level)
		case s.risk >= 40:
			assert.Equal(t, domain.RiskMedium, s.level)
		default:
			assert.Equal(t, domain.RiskLow, s.level)
		}
	}
}

func TestRunPersistsWhatItComputed(t *testing.T) {
	ctx := context.Background()
	repo := new(MockEvaluationRepo)
	uc := usecase.NewEvaluationUsecase(repo)

	metrics := &domain.EvaluationMetrics{
		TotalProjects:     10,
		CompletedProjects: 8,
		DelayedProjects:   1,
		AverageRating:     4.0,
		OpenViolations:    1,
		Source:            "project_history",
	}
	repo.On("AggregateMetrics", ctx, int64(42)).Return(metrics, nil)

	var persisted domain.EvaluationScores
	repo.On("PersistEvaluation", ctx, int64(42), *metrics, mock.AnythingOfType("domain.EvaluationScores"), (*int64)(nil)).
		Return(nil).
		Run(func(args mock.Arguments) {
			persisted = args.Get(3).(domain.EvaluationScores)
		})

	scores, gotMetrics, err := uc.Run(ctx, 42, nil)
	assert.NoError(t, err)
	assert.Equal(t, metrics, gotMetrics)

	// Round trip: what was persisted is exactly what was computed.
	assert.Equal(t, *scores, persisted)
	assert.Equal(t, scores.RiskLevel, persisted.RiskLevel)
	assert.Equal(t, scores.ComplianceStatus, persisted.ComplianceStatus)
	repo.AssertExpectations(t)
}

func TestApplicationReads(t *testing.T) {
	ctx := context.Background()

	t.Run("Detail bundles application and documents", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		uc := usecase.NewApplicationUsecase(repo)

		app := &domain.Application{ID: 5, Kind: domain.KindEngineer, Status: domain.StatusPending}
		docs := []domain.ApplicationDocument{{ID: 1, ApplicationID: 5, DocumentType: "prc_license"}}
		repo.On("FindByID", ctx, domain.KindEngineer, int64(5)).Return(app, nil)
		repo.On("DocumentsFor", ctx, domain.KindEngineer, int64(5)).Return(docs, nil)

		detail, err := uc.Detail(ctx, domain.KindEngineer, 5)
		assert.NoError(t, err)
		assert.Equal(t, app, detail.Application)
		assert.Len(t, detail.Documents, 1)
	})

	t.Run("Unknown id maps to 404", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		uc := usecase.NewApplicationUsecase(repo)

		repo.On("FindByID", ctx, domain.KindContractor, int64(7)).Return(nil, domain.ErrNotFound)

		_, err := uc.Detail(ctx, domain.KindContractor, 7)
		assert.Error(t, err)
		assert.Equal(t, 404, appErrCode(t, err))
	})

	t.Run("Missing table maps to a configuration failure", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		uc := usecase.NewApplicationUsecase(repo)

		repo.On("SummaryCounts", ctx, domain.KindEngineer).Return(nil, domain.ErrTableMissing)

		_, err := uc.Summary(ctx, domain.KindEngineer)
		assert.Error(t, err)
		assert.Equal(t, 500, appErrCode(t, err))
		assert.Contains(t, err.Error(), "migration")
	})

	t.Run("Status view validates the status against the kind", func(t *testing.T) {
		repo := new(MockApplicationRepo)
		uc := usecase.NewApplicationUsecase(repo)

		_, err := uc.UsersByStatus(ctx, domain.KindEngineer, domain.StatusBlacklisted)
		assert.Error(t, err)
		assert.Equal(t, 422, appErrCode(t, err))
		repo.AssertNotCalled(t, "ListByStatus")
	})
}
