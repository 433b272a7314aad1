package router

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"TripWatch/internal/handler"
	"TripWatch/internal/middleware"
)

// Register 注册全部路由。
// 用户身份来自 X-User-ID 请求头，鉴权在网关层完成，不在本服务范围内。
func Register(h *server.Hertz, trips *handler.TripHandler, users *handler.UserHandler) {

	h.Use(middleware.RecoverMiddleware())
	h.Use(middleware.CORSMiddleware())
	h.Use(middleware.RequestIDMiddleware())
	h.Use(middleware.OpenTelemetryMiddleware())

	h.GET("/health", handler.Health)

	v1 := h.Group("/v1")

	// 用户路由
	userGroup := v1.Group("/users")
	{
		userGroup.POST("", users.CreateUser)
		userGroup.GET("/me", users.GetMe)
	}

	// 监控行程路由
	tripGroup := v1.Group("/trips")
	{
		tripGroup.GET("", trips.ListTrips)
		tripGroup.POST("", trips.CreateTrip)
		tripGroup.GET("/:trip_id", trips.GetTrip)
		tripGroup.PATCH("/:trip_id", trips.UpdateTrip)
		tripGroup.DELETE("/:trip_id", trips.DeleteTrip)
	}
}
