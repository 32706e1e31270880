package routes

import (
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/config"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/metrics"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/middleware"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/realtime"
	"github.com/AgusMolinaCode/CSE_Portfolio/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// Deps son los componentes compartidos que se conectan a los handlers.
type Deps struct {
	Config  *config.Config
	DB      *sqlx.DB
	Quotes  *services.QuoteService
	Updater *services.PriceUpdater
	Hub     *realtime.Hub
	Metrics *metrics.Registry
}

func RegisterRoutes(router *gin.Engine, deps Deps) {
	middleware.InitAuth(deps.DB, deps.Config.JWTSecret)
	middleware.InitClerk(deps.Config.ClerkSecretKey, deps.Config.ClerkWebhookSecret)
	middleware.InitAdmin(deps.Config.AdminSecretKey)
	middleware.InitPortfolios(deps.DB)
	middleware.InitQuotes(deps.Quotes, deps.Hub, deps.Metrics, deps.Config.RiskFreeRate)
	middleware.SetPriceUpdater(deps.Updater)

	router.GET("/health", middleware.Health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/", middleware.DashboardPage)
	router.POST("/dashboard", middleware.DashboardSubmit)
	router.GET("/ws/quotes", middleware.LiveQuotes)

	api := router.Group("/api")
	{
		api.GET("/stocks", middleware.GetStocks)
		api.GET("/quotes", middleware.GetQuotes)
		api.GET("/quotes/:symbol", middleware.GetQuote)
		api.POST("/portfolio/analyze", middleware.AnalyzePortfolio)
	}

	router.POST("/signup", middleware.Signup)
	router.POST("/login", middleware.Login)
	router.POST("/webhooks/clerk", middleware.ClerkWebhookHandler)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/me", middleware.GetProfile)
		protected.PUT("/users", middleware.UpdateUser)
		protected.DELETE("/users", middleware.DeleteUser)

		protected.POST("/portfolios", middleware.CreatePortfolio)
		protected.GET("/portfolios", middleware.GetPortfolios)
		protected.GET("/portfolios/:id", middleware.GetPortfolio)
		protected.PUT("/portfolios/:id", middleware.UpdatePortfolio)
		protected.DELETE("/portfolios/:id", middleware.DeletePortfolio)
		protected.GET("/portfolios/:id/analysis", middleware.GetPortfolioAnalysis)
		protected.GET("/portfolios/:id/history", middleware.GetPortfolioHistory)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuth())
	{
		admin.GET("/users", middleware.GetUsers)
		admin.DELETE("/users/:id", middleware.DeleteUserByAdmin)
		admin.POST("/quotes/refresh", middleware.RefreshQuotes)
	}
}
