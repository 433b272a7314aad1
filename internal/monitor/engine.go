package monitor

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"TripWatch/internal/model"
	"TripWatch/internal/planner"
	"TripWatch/pkg/clock"
	"TripWatch/pkg/logger"
)

const millisPerMinute = 60_000

// TripStore 引擎依赖的行程持久化接口
type TripStore interface {
	GetTrip(ctx context.Context, id int64) (*model.MonitoredTrip, error)
	ActiveTripIDs(ctx context.Context) ([]int64, error)
	ReplaceTrip(ctx context.Context, trip *model.MonitoredTrip) (bool, error)
}

// UserStore 引擎依赖的用户查询接口
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// Planner 行程规划查询接口
type Planner interface {
	Plan(ctx context.Context, params map[string]string) (*planner.PlanResponse, error)
}

// TripNotifier 通知投递接口，返回是否至少一个渠道投递成功
type TripNotifier interface {
	Notify(ctx context.Context, user *model.User, trip *model.MonitoredTrip, notifications []model.TripMonitorNotification) bool
}

// Engine 单个行程的检查引擎。
// 除规划查询和最终写回外对输入无副作用，JourneyState 只在这里被修改。
type Engine struct {
	trips    TripStore
	users    UserStore
	planner  Planner
	notifier TripNotifier
	clock    clock.Clock
}

func NewEngine(trips TripStore, users UserStore, p Planner, n TripNotifier, clk clock.Clock) *Engine {
	return &Engine{
		trips:    trips,
		users:    users,
		planner:  p,
		notifier: n,
		clock:    clk,
	}
}

// Check 对一个行程执行一次完整检查。
// 调用方必须已持有该行程的锁。
func (e *Engine) Check(ctx context.Context, trip *model.MonitoredTrip) error {
	now := e.clock.Now().In(trip.Location())

	skip, err := e.shouldSkip(ctx, trip, now)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	return e.runCheck(ctx, trip, now)
}

// shouldSkip 判断本次 tick 是否无事可做。
// 必要时先把目标推进到下一个监控日并持久化中间状态，再按时间窗口分层判断。
func (e *Engine) shouldSkip(ctx context.Context, trip *model.MonitoredTrip, now time.Time) (bool, error) {
	state := &trip.JourneyState

	if !trip.Active || trip.Snoozed {
		return true, nil
	}
	if state.TripStatus == model.NoLongerPossible {
		return true, nil
	}
	// 目标日不可行时等占位方案的窗口过去再重查
	if state.TripStatus == model.NextTripNotPossible && !itineraryEnded(state.MatchingItinerary, now) {
		return true, nil
	}

	// 还没有匹配方案，或上一个匹配方案已经结束：先推进到下一个监控日
	if state.MatchingItinerary.IsEmpty() || itineraryEnded(state.MatchingItinerary, now) {
		ok, err := e.advanceToNextOccurrence(ctx, trip, now)
		if err != nil || !ok {
			return true, err
		}
	}

	matching := state.MatchingItinerary

	// 行程进行中，每个 tick 都查
	if itineraryActive(matching, now) {
		return false, nil
	}

	minutesUntil := int64(matching.Start().Sub(now).Minutes())
	minutesSince := e.minutesSinceLastCheck(state, now)

	switch {
	case minutesUntil > int64(trip.LeadTimeMinutes):
		return true, nil
	case minutesUntil > 60:
		return minutesSince < 60, nil
	case minutesUntil > 30:
		return minutesSince < 15, nil
	default:
		return false, nil
	}
}

func (e *Engine) minutesSinceLastCheck(state *model.JourneyState, now time.Time) int64 {
	if state.LastCheckedMillis == 0 {
		return 1 << 30
	}
	return (now.UnixMilli() - state.LastCheckedMillis) / millisPerMinute
}

// advanceToNextOccurrence 把监控目标推进到下一个有效场次：
// 从今天起逐日找监控的星期几，把基准方案平移过去（保持钟点时刻），
// 重置 baseline 与 scheduled，持久化中间状态后返回。
// 一次性行程的场次过去后停用行程并返回 false。
func (e *Engine) advanceToNextOccurrence(ctx context.Context, trip *model.MonitoredTrip, now time.Time) (bool, error) {
	loc := trip.Location()
	state := &trip.JourneyState

	if trip.IsOneTime() {
		placed := OffsetItineraryToDate(&trip.Itinerary, trip.Itinerary.Start().In(loc), loc)
		if itineraryEnded(placed, now) {
			logger.Logger.Info("One-time trip occurrence has passed, deactivating",
				zap.Int64("trip_id", trip.ID))
			trip.Active = false
			_, err := e.persist(ctx, trip)
			return false, err
		}
		e.placeOccurrence(state, placed, placed.Start().In(loc), now)
		ok, err := e.persist(ctx, trip)
		return ok, err
	}

	day := now
	for i := 0; i < 8; i++ {
		if trip.MonitorsDay(day.Weekday()) {
			candidate := OffsetItineraryToDate(&trip.Itinerary, day, loc)
			// 当天的场次已经结束时继续往后找
			if !itineraryEnded(candidate, now) {
				e.placeOccurrence(state, candidate, day, now)
				ok, err := e.persist(ctx, trip)
				return ok, err
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	logger.Logger.Warn("No monitored weekday found for trip", zap.Int64("trip_id", trip.ID))
	return false, nil
}

// placeOccurrence 用平移后的基准方案占位新场次
func (e *Engine) placeOccurrence(state *model.JourneyState, itin *model.Itinerary, targetDate, now time.Time) {
	state.MatchingItinerary = itin
	state.TargetDate = targetDate.Format("2006-01-02")
	state.HasRealtimeData = false

	if itineraryActive(itin, now) {
		state.TripStatus = model.TripActive
	} else {
		state.TripStatus = model.TripUpcoming
	}

	state.ScheduledDepartureMillis = scheduledDeparture(itin)
	state.ScheduledArrivalMillis = scheduledArrival(itin)
	state.BaselineDepartureMillis = state.ScheduledDepartureMillis
	state.BaselineArrivalMillis = state.ScheduledArrivalMillis
}

// runCheck 执行一次实时检查：规划查询、方案比对、延误与告警判定、通知与写回
func (e *Engine) runCheck(ctx context.Context, trip *model.MonitoredTrip, now time.Time) error {
	state := &trip.JourneyState
	loc := trip.Location()
	nowMillis := now.UnixMilli()

	params, err := buildPlanParams(trip)
	if err != nil {
		logger.Logger.Warn("Trip has malformed query params, skipping check",
			zap.Int64("trip_id", trip.ID), zap.Error(err))
		state.LastCheckedMillis = nowMillis
		_, perr := e.persist(ctx, trip)
		return perr
	}

	resp, err := e.planner.Plan(ctx, params)
	if err != nil {
		// 瞬时失败：状态不动，只推进检查时间戳，下个周期重试
		logger.Logger.Warn("Planner query failed, will retry next cycle",
			zap.Int64("trip_id", trip.ID), zap.Error(err))
		state.LastCheckedMillis = nowMillis
		_, perr := e.persist(ctx, trip)
		return perr
	}

	prevAlerts := collectAlerts(state.MatchingItinerary)

	var match *model.Itinerary
	for i := range resp.Plan.Itineraries {
		if ItinerariesMatch(&trip.Itinerary, &resp.Plan.Itineraries[i], loc) {
			match = resp.Plan.Itineraries[i].Clone()
			break
		}
	}

	weekday := targetWeekday(state.TargetDate, now, loc)
	var notifications []model.TripMonitorNotification

	if match == nil {
		trip.ItineraryExistence.MarkInvalid(weekday, state.TargetDate)
		othersPossible := trip.ItineraryExistence.AnyOtherDayValid(weekday)
		if othersPossible {
			state.TripStatus = model.NextTripNotPossible
		} else {
			state.TripStatus = model.NoLongerPossible
		}

		notifications = append(notifications, ComposeNotFoundNotification(othersPossible))
		e.dispatch(ctx, trip, notifications, nowMillis)

		state.LastCheckedMillis = nowMillis
		_, perr := e.persist(ctx, trip)
		return perr
	}

	state.MatchingItinerary = match
	state.HasRealtimeData = match.HasRealtime()
	trip.ItineraryExistence.MarkValid(weekday, state.TargetDate)

	// 匹配方案已经结束，直接推进到下一个场次，本 tick 不再发实时查询
	if itineraryEnded(match, now) {
		state.LastCheckedMillis = nowMillis
		_, err := e.advanceToNextOccurrence(ctx, trip, now)
		return err
	}

	if itineraryActive(match, now) {
		state.TripStatus = model.TripActive
	} else {
		state.TripStatus = model.TripUpcoming
	}

	// 旧记录缺少 scheduled/baseline 时用本次的计划时间补齐
	if state.ScheduledDepartureMillis == 0 {
		state.ScheduledDepartureMillis = scheduledDeparture(match)
	}
	if state.ScheduledArrivalMillis == 0 {
		state.ScheduledArrivalMillis = scheduledArrival(match)
	}
	if state.BaselineDepartureMillis == 0 {
		state.BaselineDepartureMillis = state.ScheduledDepartureMillis
	}
	if state.BaselineArrivalMillis == 0 {
		state.BaselineArrivalMillis = state.ScheduledArrivalMillis
	}

	if n, ok := checkDelay("depart", match.StartTime, &state.BaselineDepartureMillis,
		state.ScheduledDepartureMillis, trip.DepartureVarianceMinutesThreshold, loc); ok {
		notifications = append(notifications, n)
	}
	if n, ok := checkDelay("arrive", match.EndTime, &state.BaselineArrivalMillis,
		state.ScheduledArrivalMillis, trip.ArrivalVarianceMinutesThreshold, loc); ok {
		notifications = append(notifications, n)
	}

	if trip.NotifyOnAlerts {
		newAlerts, resolvedAlerts := diffAlerts(prevAlerts, collectAlerts(match))
		if n, ok := ComposeAlertsNotification(newAlerts, resolvedAlerts); ok {
			notifications = append(notifications, n)
		}
	}

	e.dispatch(ctx, trip, notifications, nowMillis)

	state.LastCheckedMillis = nowMillis
	_, perr := e.persist(ctx, trip)
	return perr
}

// checkDelay 单方向的延误判定。
// 越过阈值的判断相对 baseline（上次越过阈值时记录的时间），
// 文案里的偏差相对 scheduled（原计划时间），
// 这样小幅反复漂移不会每次都重新触发，但播报的始终是相对计划的真实偏差。
func checkDelay(direction string, actualMillis int64, baselineMillis *int64,
	scheduledMillis int64, thresholdMinutes int, loc *time.Location) (model.TripMonitorNotification, bool) {

	diff := actualMillis - *baselineMillis
	if diff < 0 {
		diff = -diff
	}
	diffMinutes := diff / millisPerMinute

	if thresholdMinutes <= 0 || diffMinutes < int64(thresholdMinutes) {
		return model.TripMonitorNotification{}, false
	}

	*baselineMillis = actualMillis

	deviationMinutes := (actualMillis - scheduledMillis) / millisPerMinute
	actualTime := time.UnixMilli(actualMillis).In(loc).Format("15:04")

	return ComposeDelayNotification(direction, deviationMinutes, actualTime), true
}

// dispatch 把通知发给行程归属用户，与上一次发送的集合一致时去重跳过。
// 只有投递成功才更新去重集合与发送时间。
func (e *Engine) dispatch(ctx context.Context, trip *model.MonitoredTrip, notifications []model.TripMonitorNotification, nowMillis int64) {
	if len(notifications) == 0 {
		return
	}

	state := &trip.JourneyState
	if model.SameNotifications(notifications, state.LastNotifications) {
		return
	}

	user, err := e.users.GetUser(ctx, trip.UserID)
	if err != nil {
		logger.Logger.Error("Failed to load trip owner for notification",
			zap.Int64("trip_id", trip.ID), zap.Int64("user_id", trip.UserID), zap.Error(err))
		return
	}
	if user == nil {
		logger.Logger.Warn("Trip owner not found, dropping notification",
			zap.Int64("trip_id", trip.ID), zap.Int64("user_id", trip.UserID))
		return
	}

	if e.notifier.Notify(ctx, user, trip, notifications) {
		state.LastNotifications = notifications
		state.LastNotificationMillis = nowMillis
	}
}

// persist 写回行程。行程可能在检查期间被删除，此时放弃写回按正常结束处理。
func (e *Engine) persist(ctx context.Context, trip *model.MonitoredTrip) (bool, error) {
	ok, err := e.trips.ReplaceTrip(ctx, trip)
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Logger.Debug("Trip vanished before persist, abandoning check",
			zap.Int64("trip_id", trip.ID))
	}
	return ok, nil
}

// buildPlanParams 复用保存行程时的查询参数，只替换日期和时刻
func buildPlanParams(trip *model.MonitoredTrip) (map[string]string, error) {
	values, err := url.ParseQuery(trip.QueryParams)
	if err != nil {
		return nil, err
	}

	params := make(map[string]string, len(values)+3)
	for k := range values {
		params[k] = values.Get(k)
	}

	params["date"] = trip.JourneyState.TargetDate
	params["time"] = trip.TripTime
	if trip.ArriveBy {
		params["arriveBy"] = "true"
	} else {
		params["arriveBy"] = "false"
	}

	return params, nil
}

func targetWeekday(targetDate string, now time.Time, loc *time.Location) time.Weekday {
	if t, err := time.ParseInLocation("2006-01-02", targetDate, loc); err == nil {
		return t.Weekday()
	}
	return now.Weekday()
}

func scheduledDeparture(itin *model.Itinerary) int64 {
	if len(itin.Legs) == 0 {
		return itin.StartTime
	}
	return itin.Legs[0].ScheduledStartTime()
}

func scheduledArrival(itin *model.Itinerary) int64 {
	if len(itin.Legs) == 0 {
		return itin.EndTime
	}
	return itin.Legs[len(itin.Legs)-1].ScheduledEndTime()
}
