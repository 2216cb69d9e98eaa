package v1

import (
	"net/http"

	"go-publicworks-backend/config"
	"go-publicworks-backend/internal/delivery/http/middleware"
	"go-publicworks-backend/internal/delivery/http/response"
	"go-publicworks-backend/internal/domain"
	"go-publicworks-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ApplicationUC domain.ApplicationUsecase
	TransitionUC  domain.TransitionUsecase
	EvaluationUC  domain.EvaluationUsecase
	JWKSProvider  *auth.Provider
	Config        *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimitConfig(deps.Config)))
	r.Use(middleware.CSRFMiddleware())
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", nil)
	})

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Every portal route requires a staff token; status transitions and
	// evaluation runs additionally require the admin role.
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.JWKSProvider, deps.Config))
	protected.Use(middleware.RequireRole("admin", "staff"))
	{
		adminOnly := middleware.RequireRole("admin")
		statusLimiter := middleware.RateLimitMiddleware(middleware.StatusUpdateRateLimitConfig(deps.Config))
		NewApplicationHandler(protected, deps.ApplicationUC, deps.TransitionUC, adminOnly, statusLimiter)
		NewEvaluationHandler(protected, deps.EvaluationUC, adminOnly)
	}

	return r
}
