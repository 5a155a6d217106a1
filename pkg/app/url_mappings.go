package app

import (
	"github.com/osvaldoandrade/soapgate/internal/controllers"
	"github.com/osvaldoandrade/soapgate/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := app.Engine.Group("/v1/soap")
	v1.GET("/health", controllers.NewHealthController(app.Calls).Handle)

	callers := v1.Group("", middleware.AuthMiddleware(app.Validator, app.Config))
	{
		callers.POST("/calls", middleware.RateLimitCallers(app.RateLimiter, app.Config), controllers.NewInvokeCallController(app.Calls).Handle)
		callers.GET("/calls/:id", controllers.NewGetCallController(app.Calls).Handle)
		callers.GET("/methods/:method/calls", controllers.NewListCallsController(app.Calls).Handle)

		admin := callers.Group("/admin", middleware.RequireAdmin())
		admin.POST("/purge", middleware.RateLimitAdmin(app.RateLimiter, app.Config), controllers.NewPurgeCallsController(app.Calls).Handle)
	}
}
