package service

import (
	"context"
	"time"

	"TripWatch/internal/model"
	"TripWatch/internal/repository"
	"TripWatch/pkg/errors"
	"TripWatch/pkg/snowflake"
)

// UserService 用户管理
type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// CreateUserRequest 创建用户的请求体
type CreateUserRequest struct {
	Email               string                    `json:"email"`
	Phone               string                    `json:"phone"`
	Name                string                    `json:"name"`
	NotificationChannel model.NotificationChannel `json:"notification_channel"`
	Timezone            string                    `json:"timezone"`
}

// CreateUser 创建用户
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	channel := req.NotificationChannel
	if channel == "" {
		channel = model.ChannelEmail
	}
	if !model.ValidChannel(channel) {
		return nil, errors.NotifyChannelInvalid
	}

	// 时区无法解析时回退 UTC，和读取路径的行为一致
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		timezone = "UTC"
	}

	user := &model.User{
		Email:               req.Email,
		Phone:               req.Phone,
		Name:                req.Name,
		NotificationChannel: channel,
		Timezone:            timezone,
	}
	id, err := snowflake.NextID()
	if err != nil {
		return nil, err
	}
	user.ID = id

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser 查询用户
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.UserNotFound
	}
	return user, nil
}
