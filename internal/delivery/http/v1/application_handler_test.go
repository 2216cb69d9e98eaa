package v1

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-publicworks-backend/internal/delivery/http/middleware"
	"go-publicworks-backend/internal/domain"
	"go-publicworks-backend/pkg/logger"
	"go-publicworks-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init()
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.RegisterValidators(v)
	}
}

type stubApplicationUC struct{}

func (stubApplicationUC) Summary(ctx context.Context, kind domain.ApplicationKind) (map[string]int64, error) {
	return map[string]int64{"total": 0}, nil
}
func (stubApplicationUC) List(ctx context.Context, kind domain.ApplicationKind, filter domain.ApplicationFilter) ([]domain.Application, error) {
	return []domain.Application{}, nil
}
func (stubApplicationUC) Detail(ctx context.Context, kind domain.ApplicationKind, id int64) (*domain.ApplicationDetail, error) {
	return &domain.ApplicationDetail{}, nil
}
func (stubApplicationUC) Logs(ctx context.Context, kind domain.ApplicationKind, id int64) ([]domain.TransitionLogEntry, error) {
	return []domain.TransitionLogEntry{}, nil
}
func (stubApplicationUC) UsersByStatus(ctx context.Context, kind domain.ApplicationKind, status string) ([]domain.Application, error) {
	return []domain.Application{}, nil
}

type stubTransitionUC struct {
	called bool
}

func (s *stubTransitionUC) UpdateStatus(ctx context.Context, kind domain.ApplicationKind, id int64, input domain.StatusUpdateInput) (*domain.TransitionResult, error) {
	s.called = true
	return &domain.TransitionResult{OldStatus: domain.StatusPending, NewStatus: input.NewStatus}, nil
}

func newTestRouter(transUC *stubTransitionUC) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	passthrough := func(c *gin.Context) { c.Next() }
	NewApplicationHandler(r.Group("/v1"), stubApplicationUC{}, transUC, passthrough, passthrough)
	return r
}

func TestUpdateStatusRequest(t *testing.T) {
	t.Run("Malformed body is a validation failure, not a bad request", func(t *testing.T) {
		trans := &stubTransitionUC{}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/applications/engineer/1/status",
			strings.NewReader(`{"new_status": 123}`))
		req.Header.Set("Content-Type", "application/json")
		newTestRouter(trans).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.False(t, trans.called)
	})

	t.Run("Missing new_status is rejected the same way", func(t *testing.T) {
		trans := &stubTransitionUC{}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/applications/engineer/1/status",
			strings.NewReader(`{"admin_remarks": "looks fine"}`))
		req.Header.Set("Content-Type", "application/json")
		newTestRouter(trans).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.False(t, trans.called)
	})

	t.Run("Well-formed body reaches the transition engine", func(t *testing.T) {
		trans := &stubTransitionUC{}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/applications/engineer/1/status",
			strings.NewReader(`{"new_status": "under_review"}`))
		req.Header.Set("Content-Type", "application/json")
		newTestRouter(trans).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, trans.called)
	})

	t.Run("Unknown kind is an unknown route", func(t *testing.T) {
		trans := &stubTransitionUC{}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/applications/vendor/summary", nil)
		newTestRouter(trans).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
