package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-publicworks-backend/internal/domain"
	"go-publicworks-backend/pkg/apperror"
)

type transitionUsecase struct {
	applicationRepo domain.ApplicationRepository
	transitionRepo  domain.TransitionRepository
}

// NewTransitionUsecase creates the status transition engine.
func NewTransitionUsecase(appRepo domain.ApplicationRepository, transRepo domain.TransitionRepository) domain.TransitionUsecase {
	return &transitionUsecase{
		applicationRepo: appRepo,
		transitionRepo:  transRepo,
	}
}

// UpdateStatus validates and applies one status transition. Validation
// failures reject the request before any repository write; the repository
// then applies the transition atomically.
func (uc *transitionUsecase) UpdateStatus(ctx context.Context, kind domain.ApplicationKind, id int64, input domain.StatusUpdateInput) (*domain.TransitionResult, error) {
	input.NewStatus = strings.ToLower(strings.TrimSpace(input.NewStatus))
	input.Reason = strings.TrimSpace(input.Reason)

	// 1. Status must belong to the kind's closed set. Blacklisting an
	// engineer is invalid, not merely forbidden.
	if !statusAllowed(kind, input.NewStatus) {
		return nil, apperror.Unprocessable("Invalid status: " + input.NewStatus)
	}

	// 2. Negative outcomes carry accountability; a reason is mandatory.
	if domain.IsNegativeStatus(input.NewStatus) && input.Reason == "" {
		return nil, apperror.Unprocessable("A reason is required when the new status is " + input.NewStatus)
	}

	// 3. Load the current row.
	app, err := uc.applicationRepo.FindByID(ctx, kind, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	// 4-6. One atomic transition: row update, identity provisioning and
	// profile sync on approval, log append. Rolls back as a unit.
	result, err := uc.transitionRepo.ApplyTransition(ctx, app, input)
	if err != nil {
		return nil, mapTransitionError(err)
	}
	return result, nil
}

func mapTransitionError(err error) error {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		// Surfaces mid-transaction, after the row passed input validation:
		// a transactional failure, not a client error.
		return apperror.New(http.StatusInternalServerError, "Missing applicant password hash. Re-apply is required for approval.", err)
	case errors.Is(err, domain.ErrNotFound):
		return apperror.NotFound("Application not found")
	case errors.Is(err, domain.ErrTableMissing):
		return apperror.Configuration(migrationAdvice, err)
	default:
		return apperror.Internal(err)
	}
}
