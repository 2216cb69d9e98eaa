package v1

import (
	"net/http"
	"strconv"

	"go-publicworks-backend/internal/delivery/http/middleware"
	"go-publicworks-backend/internal/delivery/http/response"
	"go-publicworks-backend/internal/domain"
	"go-publicworks-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type EvaluationHandler struct {
	evaluationUC domain.EvaluationUsecase
}

func NewEvaluationHandler(protected *gin.RouterGroup, evaluationUC domain.EvaluationUsecase, adminOnly gin.HandlerFunc) {
	handler := &EvaluationHandler{evaluationUC: evaluationUC}

	contractors := protected.Group("/contractors/:id")
	{
		contractors.POST("/evaluations", adminOnly, handler.Run)
		contractors.GET("/evaluations", handler.History)
	}
}

type evaluationResult struct {
	Metrics *domain.EvaluationMetrics `json:"metrics"`
	Scores  *domain.EvaluationScores  `json:"scores"`
}

// Run godoc
// @Summary      Evaluate a contractor
// @Description  Aggregates project history, scores performance, reliability and risk, stamps the contractor row and appends an evaluation log entry
// @Tags         evaluations
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Contractor ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /contractors/{id}/evaluations [post]
func (h *EvaluationHandler) Run(c *gin.Context) {
	id, ok := contractorIDParam(c)
	if !ok {
		return
	}

	scores, metrics, err := h.evaluationUC.Run(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Evaluation complete", evaluationResult{
		Metrics: metrics,
		Scores:  scores,
	})
}

// History godoc
// @Summary      Evaluation history
// @Description  Returns prior evaluation runs for a contractor, newest first
// @Tags         evaluations
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Contractor ID"
// @Success      200  {object}  response.Response
// @Router       /contractors/{id}/evaluations [get]
func (h *EvaluationHandler) History(c *gin.Context) {
	id, ok := contractorIDParam(c)
	if !ok {
		return
	}

	entries, err := h.evaluationUC.History(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Evaluation history", entries)
}

func contractorIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Error(apperror.BadRequest("Invalid contractor ID"))
		return 0, false
	}
	return id, true
}
