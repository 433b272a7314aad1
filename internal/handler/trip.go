package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"TripWatch/internal/model"
	"TripWatch/internal/service"
	"TripWatch/pkg/errors"
	"TripWatch/pkg/response"
)

// TripHandler 行程 CRUD 接口
type TripHandler struct {
	trips *service.TripService
}

func NewTripHandler(trips *service.TripService) *TripHandler {
	return &TripHandler{trips: trips}
}

// requestUserID 从 X-User-ID 请求头解析用户 id
func requestUserID(c *app.RequestContext) (int64, error) {
	raw := string(c.GetHeader("X-User-ID"))
	if raw == "" {
		return 0, errors.InvalidUserID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidUserID
	}
	return id, nil
}

func pathTripID(c *app.RequestContext) (int64, error) {
	id, err := strconv.ParseInt(c.Param("trip_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.TripNotFound
	}
	return id, nil
}

// ListTrips 查询当前用户的全部行程
func (h *TripHandler) ListTrips(ctx context.Context, c *app.RequestContext) {
	userID, err := requestUserID(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	trips, err := h.trips.ListTrips(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	data := make([]model.TripData, 0, len(trips))
	for _, t := range trips {
		data = append(data, t.ToTripData())
	}
	response.Success(ctx, c, data)
}

// CreateTrip 创建监控行程
func (h *TripHandler) CreateTrip(ctx context.Context, c *app.RequestContext) {
	userID, err := requestUserID(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	var req model.CreateTripRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	trip, err := h.trips.CreateTrip(ctx, userID, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, trip.ToTripData())
}

// GetTrip 查询行程详情
func (h *TripHandler) GetTrip(ctx context.Context, c *app.RequestContext) {
	userID, err := requestUserID(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	tripID, err := pathTripID(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	trip, err := h.trips.GetTrip(ctx, userID, tripID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, trip.ToTripData())
}

// UpdateTrip 更新行程，后台检查持锁超时会返回 409
func (h *TripHandler) UpdateTrip(ctx context.Context, c *app.RequestContext) {
	userID, err := requestUserID(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	tripID, err := pathTripID(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	var req model.UpdateTripRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	trip, err := h.trips.UpdateTrip(ctx, userID, tripID, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, trip.ToTripData())
}

// DeleteTrip 删除行程
func (h *TripHandler) DeleteTrip(ctx context.Context, c *app.RequestContext) {
	userID, err := requestUserID(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	tripID, err := pathTripID(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if err := h.trips.DeleteTrip(ctx, userID, tripID); err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.NoContent(ctx, c)
}
