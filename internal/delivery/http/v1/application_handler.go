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

type ApplicationHandler struct {
	applicationUC domain.ApplicationUsecase
	transitionUC  domain.TransitionUsecase
}

func NewApplicationHandler(protected *gin.RouterGroup, applicationUC domain.ApplicationUsecase, transitionUC domain.TransitionUsecase, adminOnly, statusLimiter gin.HandlerFunc) {
	handler := &ApplicationHandler{
		applicationUC: applicationUC,
		transitionUC:  transitionUC,
	}

	apps := protected.Group("/applications/:kind")
	{
		apps.GET("/summary", handler.Summary)
		apps.GET("", handler.List)
		apps.GET("/verified", handler.Verified)
		apps.GET("/rejected", handler.Rejected)
		apps.GET("/:id", handler.Detail)
		apps.GET("/:id/logs", handler.Logs)
		apps.POST("/:id/status", adminOnly, statusLimiter, handler.UpdateStatus)
	}
}

// kindParam resolves the :kind segment. Unknown kinds are treated as an
// unknown route, not a validation failure.
func kindParam(c *gin.Context) (domain.ApplicationKind, bool) {
	kind, err := domain.ParseKind(c.Param("kind"))
	if err != nil {
		c.Error(apperror.NotFound("Not found"))
		return "", false
	}
	return kind, true
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Error(apperror.BadRequest("Invalid application ID"))
		return 0, false
	}
	return id, true
}

// Summary godoc
// @Summary      Application counts by status
// @Description  Returns per-status totals for the dashboard cards
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path  string  true  "Application kind (engineer or contractor)"
// @Success      200  {object}  response.Response
// @Router       /applications/{kind}/summary [get]
func (h *ApplicationHandler) Summary(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	counts, err := h.applicationUC.Summary(c.Request.Context(), kind)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Application summary", counts)
}

// List godoc
// @Summary      List applications
// @Description  Returns applications filtered by search query, status, specialization, area and submission date
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        kind            path   string  true   "Application kind"
// @Param        query           query  string  false  "Matches name, email or license number"
// @Param        status          query  string  false  "Filter by status"
// @Param        specialization  query  string  false  "Filter by specialization"
// @Param        area            query  string  false  "Filter by area"
// @Param        date_submitted  query  string  false  "Filter by submission date (YYYY-MM-DD)"
// @Success      200  {object}  response.Response
// @Router       /applications/{kind} [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	filter := domain.ApplicationFilter{
		Query:          c.Query("query"),
		Status:         c.Query("status"),
		Specialization: c.Query("specialization"),
		Area:           c.Query("area"),
		DateSubmitted:  c.Query("date_submitted"),
	}

	apps, err := h.applicationUC.List(c.Request.Context(), kind, filter)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Applications list", apps)
}

// Detail godoc
// @Summary      Application detail
// @Description  Returns one application with its uploaded documents
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path  string  true  "Application kind"
// @Param        id    path  int     true  "Application ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /applications/{kind}/{id} [get]
func (h *ApplicationHandler) Detail(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	detail, err := h.applicationUC.Detail(c.Request.Context(), kind, id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Application detail", detail)
}

// Logs godoc
// @Summary      Transition history
// @Description  Returns the append-only status transition log for one application
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path  string  true  "Application kind"
// @Param        id    path  int     true  "Application ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /applications/{kind}/{id}/logs [get]
func (h *ApplicationHandler) Logs(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	logs, err := h.applicationUC.Logs(c.Request.Context(), kind, id)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Transition logs", logs)
}

// Verified godoc
// @Summary      Verified applicants
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path  string  true  "Application kind"
// @Success      200  {object}  response.Response
// @Router       /applications/{kind}/verified [get]
func (h *ApplicationHandler) Verified(c *gin.Context) {
	h.byStatus(c, domain.StatusVerified)
}

// Rejected godoc
// @Summary      Rejected applicants
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path  string  true  "Application kind"
// @Success      200  {object}  response.Response
// @Router       /applications/{kind}/rejected [get]
func (h *ApplicationHandler) Rejected(c *gin.Context) {
	h.byStatus(c, domain.StatusRejected)
}

func (h *ApplicationHandler) byStatus(c *gin.Context, status string) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	apps, err := h.applicationUC.UsersByStatus(c.Request.Context(), kind, status)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Applications by status", apps)
}

// UpdateStatus godoc
// @Summary      Transition an application's status
// @Description  Applies one status transition. Approval provisions the employee account and syncs the domain profile in the same transaction. Negative statuses require a reason.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        kind  path  string                     true  "Application kind"
// @Param        id    path  int                        true  "Application ID"
// @Param        body  body  domain.StatusUpdateInput   true  "Requested transition"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /applications/{kind}/{id}/status [post]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	kind, ok := kindParam(c)
	if !ok {
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input domain.StatusUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		// Malformed or missing new_status is a validation failure, same
		// class as an unknown status value.
		c.Error(apperror.Unprocessable("Invalid request body"))
		return
	}
	if actor := middleware.ActorID(c); actor != nil {
		input.ActorID = *actor
	}

	result, err := h.transitionUC.UpdateStatus(c.Request.Context(), kind, id, input)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Status updated", result)
}
