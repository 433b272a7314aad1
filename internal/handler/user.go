package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"TripWatch/internal/service"
	"TripWatch/pkg/response"
)

// UserHandler 用户接口
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// CreateUser 创建用户
func (h *UserHandler) CreateUser(ctx context.Context, c *app.RequestContext) {
	var req service.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		response.BindError(ctx, c, err)
		return
	}

	user, err := h.users.CreateUser(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, user)
}

// GetMe 查询当前用户
func (h *UserHandler) GetMe(ctx context.Context, c *app.RequestContext) {
	userID, err := requestUserID(c)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, user)
}
