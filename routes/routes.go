package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/splitly/splitly-api/handlers"
	"github.com/splitly/splitly-api/services"
	"github.com/splitly/splitly-api/store"
)

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, st store.Store) {
	authHandler := &handlers.AuthHandler{Store: st}

	rg.POST("/auth/register", authHandler.Register)
	rg.POST("/auth/login", authHandler.Login)
}

// SetupExpenseRoutes sets up protected expense ledger routes.
func SetupExpenseRoutes(rg *gin.RouterGroup, st store.Store, ws *handlers.WSHandler) {
	h := &handlers.ExpenseHandler{
		Expenses: services.NewExpenseService(st),
		WS:       ws,
	}

	rg.GET("/expenses/all", h.List)
	rg.GET("/expenses/:expenseId", h.Get)
	rg.POST("/expenses", h.Create)
	rg.PUT("/expenses/:expenseId", h.Update)
	rg.PATCH("/expenses/share/:shareId/pay", h.Settle)
	rg.DELETE("/expenses/:expenseId", h.Delete)
}

// SetupUserRoutes sets up protected user directory and 2FA routes.
func SetupUserRoutes(rg *gin.RouterGroup, st store.Store) {
	userHandler := &handlers.UserHandler{
		Users: services.NewUserService(st),
		Store: st,
	}

	rg.GET("/users/:username", userHandler.GetByUsername)
	rg.GET("/users/search", userHandler.Search)
	rg.POST("/user/2fa/setup", userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", userHandler.DisableTOTP)
}
