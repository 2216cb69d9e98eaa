package usecase

import (
	"context"
	"errors"

	"go-publicworks-backend/internal/domain"
	"go-publicworks-backend/pkg/apperror"
)

// migrationAdvice is appended to configuration failures so operators know
// the fix is a pending migration, not a code defect.
const migrationAdvice = "Required table is missing. Run the pending schema migration."

type applicationUsecase struct {
	applicationRepo domain.ApplicationRepository
}

// NewApplicationUsecase creates the read-side usecase for the admin views
func NewApplicationUsecase(repo domain.ApplicationRepository) domain.ApplicationUsecase {
	return &applicationUsecase{applicationRepo: repo}
}

// Summary returns per-status counts for the dashboard
func (uc *applicationUsecase) Summary(ctx context.Context, kind domain.ApplicationKind) (map[string]int64, error) {
	counts, err := uc.applicationRepo.SummaryCounts(ctx, kind)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return counts, nil
}

// List returns filtered applications, newest first
func (uc *applicationUsecase) List(ctx context.Context, kind domain.ApplicationKind, filter domain.ApplicationFilter) ([]domain.Application, error) {
	if filter.Status != "" && !statusAllowed(kind, filter.Status) {
		return nil, apperror.Unprocessable("Invalid status filter: " + filter.Status)
	}
	apps, err := uc.applicationRepo.List(ctx, kind, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return apps, nil
}

// Detail returns one application with its documents
func (uc *applicationUsecase) Detail(ctx context.Context, kind domain.ApplicationKind, id int64) (*domain.ApplicationDetail, error) {
	app, err := uc.applicationRepo.FindByID(ctx, kind, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	documents, err := uc.applicationRepo.DocumentsFor(ctx, kind, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	return &domain.ApplicationDetail{
		Application: app,
		Documents:   documents,
	}, nil
}

// Logs returns the transition history for one application
func (uc *applicationUsecase) Logs(ctx context.Context, kind domain.ApplicationKind, id int64) ([]domain.TransitionLogEntry, error) {
	// Surface 404 for dangling ids instead of an empty history.
	if _, err := uc.applicationRepo.FindByID(ctx, kind, id); err != nil {
		return nil, mapRepoError(err)
	}

	entries, err := uc.applicationRepo.TransitionLogsFor(ctx, kind, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return entries, nil
}

// UsersByStatus backs the verified/rejected user list views
func (uc *applicationUsecase) UsersByStatus(ctx context.Context, kind domain.ApplicationKind, status string) ([]domain.Application, error) {
	if !statusAllowed(kind, status) {
		return nil, apperror.Unprocessable("Invalid status: " + status)
	}
	apps, err := uc.applicationRepo.ListByStatus(ctx, kind, status)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return apps, nil
}

func statusAllowed(kind domain.ApplicationKind, status string) bool {
	for _, allowed := range kind.AllowedStatuses() {
		if status == allowed {
			return true
		}
	}
	return false
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperror.NotFound("Application not found")
	case errors.Is(err, domain.ErrTableMissing):
		return apperror.Configuration(migrationAdvice, err)
	default:
		return apperror.Internal(err)
	}
}
