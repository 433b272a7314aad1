package service

import (
	"context"
	"net/url"
	"time"

	"TripWatch/internal/lock"
	"TripWatch/internal/model"
	"TripWatch/internal/repository"
	"TripWatch/pkg/errors"
	"TripWatch/pkg/snowflake"
)

// lockPollInterval 前台编辑等待行程锁的轮询间隔
const lockPollInterval = 250 * time.Millisecond

// TripService 行程的增删改查。
// 所有修改操作都先拿行程锁，和后台检查互斥，拿不到就向用户报忙。
type TripService struct {
	trips *repository.TripRepository
	users *repository.UserRepository
	locks *lock.Registry

	lockWait time.Duration
}

func NewTripService(trips *repository.TripRepository, users *repository.UserRepository,
	locks *lock.Registry, lockWait time.Duration) *TripService {

	return &TripService{
		trips:    trips,
		users:    users,
		locks:    locks,
		lockWait: lockWait,
	}
}

// CreateTrip 创建监控行程
func (s *TripService) CreateTrip(ctx context.Context, userID int64, req *model.CreateTripRequest) (*model.MonitoredTrip, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.UserNotFound
	}

	trip := &model.MonitoredTrip{
		UserID:   userID,
		TripName: req.TripName,
		TripTime: req.TripTime,
		ArriveBy: req.ArriveBy,
		Timezone: req.Timezone,

		Monday:    req.Monday,
		Tuesday:   req.Tuesday,
		Wednesday: req.Wednesday,
		Thursday:  req.Thursday,
		Friday:    req.Friday,
		Saturday:  req.Saturday,
		Sunday:    req.Sunday,

		LeadTimeMinutes:                   req.LeadTimeMinutes,
		DepartureVarianceMinutesThreshold: req.DepartureVarianceMinutesThreshold,
		ArrivalVarianceMinutesThreshold:   req.ArrivalVarianceMinutesThreshold,
		NotifyOnAlerts:                    req.NotifyOnAlerts,
		Active:                            true,

		QueryParams: req.QueryParams,
		Itinerary:   req.Itinerary,
	}
	if trip.Timezone == "" {
		trip.Timezone = user.Timezone
	}
	// 未显式给出提前量时取默认 30 分钟；阈值 0 合法，表示关闭该方向的延误通知
	if trip.LeadTimeMinutes == 0 {
		trip.LeadTimeMinutes = 30
	}

	if err := validateTrip(trip); err != nil {
		return nil, err
	}

	id, err := snowflake.NextID()
	if err != nil {
		return nil, err
	}
	trip.ID = id
	trip.JourneyState = model.JourneyState{TripStatus: model.TripUpcoming}
	trip.ItineraryExistence = initExistence(trip)

	if err := s.trips.CreateTrip(ctx, trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// GetTrip 查询单个行程，校验归属
func (s *TripService) GetTrip(ctx context.Context, userID, tripID int64) (*model.MonitoredTrip, error) {
	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, errors.TripNotFound
	}
	if trip.UserID != userID {
		return nil, errors.TripNotOwned
	}
	return trip, nil
}

// ListTrips 查询用户的全部行程
func (s *TripService) ListTrips(ctx context.Context, userID int64) ([]*model.MonitoredTrip, error) {
	return s.trips.ListByUser(ctx, userID)
}

// UpdateTrip 更新行程。后台检查正持有锁且有界等待超时时返回 TripLocked，
// 调用方应提示用户稍后重试，绝不在无锁状态下修改。
func (s *TripService) UpdateTrip(ctx context.Context, userID, tripID int64, req *model.UpdateTripRequest) (*model.MonitoredTrip, error) {
	if !s.locks.LockForUpdating(ctx, tripID, s.lockWait, lockPollInterval) {
		return nil, errors.TripLocked
	}
	defer s.locks.Unlock(tripID)

	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, errors.TripNotFound
	}
	if trip.UserID != userID {
		return nil, errors.TripNotOwned
	}

	resetState := applyTripPatch(trip, req)

	if err := validateTrip(trip); err != nil {
		return nil, err
	}

	if resetState {
		// 行程定义变了，监控记忆作废，下个周期从头建立
		trip.JourneyState = model.JourneyState{TripStatus: model.TripUpcoming}
		trip.ItineraryExistence = initExistence(trip)
	}

	ok, err := s.trips.ReplaceTrip(ctx, trip)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.TripNotFound
	}
	return trip, nil
}

// DeleteTrip 删除行程，同样走行程锁
func (s *TripService) DeleteTrip(ctx context.Context, userID, tripID int64) error {
	if !s.locks.LockForUpdating(ctx, tripID, s.lockWait, lockPollInterval) {
		return errors.TripLocked
	}
	defer s.locks.Unlock(tripID)

	trip, err := s.trips.GetTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if trip == nil {
		return errors.TripNotFound
	}
	if trip.UserID != userID {
		return errors.TripNotOwned
	}

	ok, err := s.trips.DeleteTrip(ctx, tripID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.TripNotFound
	}
	return nil
}

// applyTripPatch 应用部分更新，返回是否需要重置监控状态
func applyTripPatch(trip *model.MonitoredTrip, req *model.UpdateTripRequest) bool {
	reset := false

	if req.TripName != nil {
		trip.TripName = *req.TripName
	}
	if req.TripTime != nil && *req.TripTime != trip.TripTime {
		trip.TripTime = *req.TripTime
		reset = true
	}
	if req.ArriveBy != nil && *req.ArriveBy != trip.ArriveBy {
		trip.ArriveBy = *req.ArriveBy
		reset = true
	}
	if req.Timezone != nil && *req.Timezone != trip.Timezone {
		trip.Timezone = *req.Timezone
		reset = true
	}

	days := []struct {
		patch *bool
		field *bool
	}{
		{req.Monday, &trip.Monday},
		{req.Tuesday, &trip.Tuesday},
		{req.Wednesday, &trip.Wednesday},
		{req.Thursday, &trip.Thursday},
		{req.Friday, &trip.Friday},
		{req.Saturday, &trip.Saturday},
		{req.Sunday, &trip.Sunday},
	}
	for _, d := range days {
		if d.patch != nil && *d.patch != *d.field {
			*d.field = *d.patch
			reset = true
		}
	}

	if req.LeadTimeMinutes != nil {
		trip.LeadTimeMinutes = *req.LeadTimeMinutes
	}
	if req.DepartureVarianceMinutesThreshold != nil {
		trip.DepartureVarianceMinutesThreshold = *req.DepartureVarianceMinutesThreshold
	}
	if req.ArrivalVarianceMinutesThreshold != nil {
		trip.ArrivalVarianceMinutesThreshold = *req.ArrivalVarianceMinutesThreshold
	}
	if req.NotifyOnAlerts != nil {
		trip.NotifyOnAlerts = *req.NotifyOnAlerts
	}
	if req.Snoozed != nil {
		trip.Snoozed = *req.Snoozed
	}
	if req.Active != nil {
		trip.Active = *req.Active
	}

	if req.QueryParams != nil && *req.QueryParams != trip.QueryParams {
		trip.QueryParams = *req.QueryParams
		reset = true
	}
	if req.Itinerary != nil {
		trip.Itinerary = *req.Itinerary
		reset = true
	}

	return reset
}

func validateTrip(trip *model.MonitoredTrip) error {
	if _, err := time.Parse("15:04", trip.TripTime); err != nil {
		return errors.TripInvalidTime
	}
	if _, err := time.LoadLocation(trip.Timezone); err != nil {
		return errors.TripInvalidTime
	}
	if trip.Itinerary.IsEmpty() {
		return errors.TripNoItinerary
	}
	if trip.LeadTimeMinutes <= 0 {
		return errors.LeadTimeInvalid
	}
	if trip.DepartureVarianceMinutesThreshold < 0 || trip.ArrivalVarianceMinutesThreshold < 0 {
		return errors.ThresholdInvalid
	}
	if _, err := url.ParseQuery(trip.QueryParams); err != nil || trip.QueryParams == "" {
		return errors.TripInvalidQuery
	}
	return nil
}

// initExistence 新行程的存在性记录从乐观有效开始，
// 只有实际检查失败的日期才会被标记失效
func initExistence(trip *model.MonitoredTrip) model.ItineraryExistence {
	var e model.ItineraryExistence
	for d := time.Sunday; d <= time.Saturday; d++ {
		if trip.MonitorsDay(d) {
			e.MarkValid(d, "")
		}
	}
	return e
}
