package server

import (
	"github.com/cyverse-de/echo-middleware/v2/redoc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	echolog "github.com/spirosoik/echo-logrus"
	"github.com/toolbench/quotagate/internal/controllers"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

func InitRouter() *echo.Echo {
	log := log.WithFields(logrus.Fields{"context": "router"})

	// Create the web server.
	e := echo.New()

	// Set a custom logger.
	echoLogger := echolog.NewLoggerMiddleware(log)
	e.Logger = echoLogger

	// Add middleware.
	e.Use(otelecho.Middleware("quotagate"))
	e.Use(echoLogger.Hook())
	e.Use(middleware.Recover())
	e.Use(redoc.Serve(redoc.Opts{Title: "QuotaGate Subscription Quota Service"}))

	return e
}

func registerPlanEndpoints(plans *echo.Group, s *controllers.Server) {
	// Returns a listing of all active plans.
	plans.GET("", s.GetAllPlans)

	// Adds a plan to the catalog.
	plans.POST("", s.AddPlan)

	// Gets the details of a plan by its UUID.
	plans.GET("/:plan_id", s.GetPlanByID)

	// Retires a plan so that it can no longer be subscribed to.
	plans.POST("/:plan_id/deactivate", s.DeactivatePlan)
}

func registerUserEndpoints(users *echo.Group, s *controllers.Server) {
	// Gets the user's profile, including the governing subscription and current usage.
	users.GET("/:username/profile", s.GetUserProfile)

	// Gets the subscription currently governing the user.
	users.GET("/:username/subscription", s.GetCurrentSubscription)

	// Cancels the user's active subscription.
	users.DELETE("/:username/subscription", s.CancelSubscription)

	// Lists the user's subscriptions, newest first.
	users.GET("/:username/subscriptions", s.GetSubscriptionHistory)

	// Gets the user's consumption for the current month.
	users.GET("/:username/usages", s.GetUserUsage)
}

func RegisterHandlers(s controllers.Server) {

	// The base URL acts as a health check endpoint.
	s.Router.GET("/", s.RootHandler)

	// API version 1 endpoints.
	v1 := s.Router.Group("/v1")
	v1.GET("", s.V1RootHandler)

	plans := v1.Group("/plans")
	registerPlanEndpoints(plans, &s)

	subscriptions := v1.Group("/subscriptions")
	subscriptions.POST("", s.Subscribe)
	subscriptions.POST("/", s.Subscribe)
	subscriptions.POST("/sweep", s.SweepExpiredSubscriptions)

	admissions := v1.Group("/admissions")
	admissions.POST("", s.Admit)
	admissions.POST("/", s.Admit)

	users := v1.Group("/users")
	registerUserEndpoints(users, &s)

}
