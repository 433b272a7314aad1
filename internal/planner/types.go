package planner

import "TripWatch/internal/model"

// PlanResponse OTP 风格 /plan 接口的响应体
type PlanResponse struct {
	Plan  *TripPlan  `json:"plan"`
	Error *PlanError `json:"error,omitempty"`
}

// TripPlan 候选方案集合
type TripPlan struct {
	Itineraries []model.Itinerary `json:"itineraries"`
}

// PlanError 规划服务返回的业务错误
type PlanError struct {
	ID      int    `json:"id"`
	Message string `json:"msg"`
}
