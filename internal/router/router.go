package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/expocenter/stand-reservation/internal/config"
	"github.com/expocenter/stand-reservation/internal/handler"
	"github.com/expocenter/stand-reservation/internal/middleware"
)

// RegisterRoutes registers the routes that require no authentication
// and no holder token: the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the availability surface: the cached
// catalog reads and the live event stream. The rate limiter and the
// response cache both come from Redis and silently disable themselves
// when rdb is nil, so a dev setup runs with none of it.
func RegisterPublic(e *echo.Echo, cat *handler.CatalogHandler, ev *handler.EventsHandler, rdb *redis.Client, rlCfg config.RateLimitConfig, cacheCfg config.CacheConfig) {
	limited := e.Group("/v1", middleware.ExtractHolder(), middleware.NewTokenBucket(rlCfg, rdb))

	// The SSE stream must not pass through the response cache.
	limited.GET("/stands/events", ev.Stream)

	cached := limited.Group("", middleware.NewCatalogCache(cacheCfg, rdb))
	cached.GET("/stands", cat.ListStands)
	cached.GET("/stands/:id", cat.GetStand)
}

// RegisterExhibitor registers the claim operations driven by the
// pre-registration form. Every route requires the opaque holder
// token; none requires a login.
func RegisterExhibitor(e *echo.Echo, r *handler.ReservationHandler, rdb *redis.Client, rlCfg config.RateLimitConfig) {
	g := e.Group("/v1/stands/:id",
		middleware.ExtractHolder(),
		middleware.RequireHolder(),
		middleware.NewTokenBucket(rlCfg, rdb),
	)
	g.POST("/hold", r.Acquire)
	g.DELETE("/hold", r.Release)
	g.PATCH("/hold", r.Touch)
	g.POST("/application", r.SubmitApplication)
}

// RegisterAdmin registers the organizer login and the JWT-protected
// back office: provisioning, the raw claim table, and the approval
// decisions.
func RegisterAdmin(e *echo.Echo, a *handler.AuthHandler, adm *handler.AdminHandler, jwtSecret string) {
	e.POST("/v1/auth/login", a.Login)

	g := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.POST("/stands", adm.ProvisionStands)
	g.GET("/claims", adm.ListClaims)
	g.POST("/stands/:id/approve", adm.Approve)
	g.POST("/stands/:id/reject", adm.Reject)
	g.POST("/stands/:id/force-release", adm.ForceRelease)
}
