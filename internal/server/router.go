// Package server assembles the HTTP router from services and middleware.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"budgeteer/internal/handlers"
	"budgeteer/internal/middleware"
	"budgeteer/internal/services"

	_ "budgeteer/internal/docs" // swagger spec
)

// Dependencies are the services the API serves.
type Dependencies struct {
	Users     services.UserServicer
	Incomes   services.IncomeServicer
	Expenses  services.ExpenseServicer
	Recurring services.RecurringServicer
	Groups    services.GroupServicer
	Splits    services.SplitServicer
	Balances  services.BalanceServicer
	Dashboard services.DashboardServicer
	Export    services.ExportServicer
	Audit     services.AuditServicer

	// Scheduler backs POST /internal/scheduler/run, guarded by SchedulerAPIKey.
	Scheduler       handlers.SchedulerRunner
	SchedulerAPIKey string
}

// NewRouter builds the Gin engine with every route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Audit)
	incomeHandler := handlers.NewIncomeHandler(deps.Incomes, deps.Audit)
	expenseHandler := handlers.NewExpenseHandler(deps.Expenses, deps.Audit)
	recurringHandler := handlers.NewRecurringHandler(deps.Recurring, deps.Audit)
	groupHandler := handlers.NewGroupHandler(deps.Groups, deps.Audit)
	sharedHandler := handlers.NewSharedExpenseHandler(deps.Splits, deps.Balances, deps.Audit)
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard, deps.Export, deps.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile", authHandler.UpdateProfile)
	protected.POST("/profile/theme/toggle", authHandler.ToggleTheme)

	incomes := protected.Group("/incomes")
	incomes.POST("", incomeHandler.CreateIncome)
	incomes.GET("", incomeHandler.GetIncomes)
	incomes.GET("/:id", incomeHandler.GetIncomeByID)
	incomes.PUT("/:id", incomeHandler.UpdateIncome)
	incomes.DELETE("/:id", incomeHandler.DeleteIncome)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.GetExpenses)
	expenses.GET("/:id", expenseHandler.GetExpenseByID)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	recurring := protected.Group("/recurring")
	recurring.POST("", recurringHandler.CreateRecurring)
	recurring.GET("", recurringHandler.GetRecurring)
	recurring.POST("/process", recurringHandler.ProcessDue)
	recurring.GET("/:id", recurringHandler.GetRecurringByID)
	recurring.PUT("/:id", recurringHandler.UpdateRecurring)
	recurring.DELETE("/:id", recurringHandler.DeleteRecurring)

	groups := protected.Group("/groups")
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.GetGroups)
	groups.GET("/:id", groupHandler.GetGroup)
	groups.DELETE("/:id", groupHandler.DeleteGroup)
	groups.POST("/:id/members", groupHandler.AddMember)
	groups.DELETE("/:id/members/:user_id", groupHandler.RemoveMember)
	groups.POST("/:id/expenses", sharedHandler.CreateSharedExpense)
	groups.GET("/:id/expenses", sharedHandler.GetSharedExpenses)
	groups.GET("/:id/expenses/:expense_id", sharedHandler.GetSharedExpense)
	groups.DELETE("/:id/expenses/:expense_id", sharedHandler.DeleteSharedExpense)
	groups.POST("/:id/settlements", sharedHandler.CreateSettlement)
	groups.GET("/:id/settlements", sharedHandler.GetSettlements)
	groups.GET("/:id/balances", sharedHandler.GetBalances)

	protected.GET("/dashboard", dashboardHandler.GetDashboard)
	protected.GET("/export", dashboardHandler.Export)

	// Internal routes
	if deps.Scheduler != nil {
		schedulerHandler := handlers.NewSchedulerHandler(deps.Scheduler)
		internal := v1.Group("/internal")
		internal.Use(middleware.APIKeyAuth(deps.SchedulerAPIKey))
		internal.POST("/scheduler/run", schedulerHandler.Run)
	}

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
