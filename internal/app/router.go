package app

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/middleware"
	"venuebook/internal/modules/pricing"
	"venuebook/internal/modules/reservation"
	"venuebook/internal/pkg/response"
)

func (a *App) Router() *gin.Engine {
	if a.Config.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger(a.Log.Named("http")))

	r.GET("/healthz", a.health)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(a.Tokens))
	{
		reservation.NewHandler(a.Service).RegisterRoutes(v1, middleware.RequireRole("owner", "manager"))
		pricing.NewHandler().RegisterRoutes(v1)
	}
	return r
}

func (a *App) health(c *gin.Context) {
	sqlDB, err := a.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, "transient", "database unreachable")
		return
	}
	response.Success(c, http.StatusOK, "ok", gin.H{"db": a.DB.Dialector.Name()})
}
