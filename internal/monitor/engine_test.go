package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"TripWatch/internal/model"
	"TripWatch/internal/planner"
	"TripWatch/pkg/clock"
)

type stubTrips struct {
	replaceOK  bool
	replaceErr error
	persisted  int
}

func (s *stubTrips) GetTrip(ctx context.Context, id int64) (*model.MonitoredTrip, error) {
	return nil, nil
}

func (s *stubTrips) ActiveTripIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

func (s *stubTrips) ReplaceTrip(ctx context.Context, trip *model.MonitoredTrip) (bool, error) {
	s.persisted++
	return s.replaceOK, s.replaceErr
}

type fakePlanner struct {
	resp  *planner.PlanResponse
	err   error
	calls int
}

func (p *fakePlanner) Plan(ctx context.Context, params map[string]string) (*planner.PlanResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.resp, nil
}

type fakeUsers struct {
	user *model.User
	err  error
}

func (u *fakeUsers) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return u.user, u.err
}

type fakeNotifier struct {
	calls int
	last  []model.TripMonitorNotification
	ok    bool
}

func (n *fakeNotifier) Notify(ctx context.Context, user *model.User, trip *model.MonitoredTrip, notifications []model.TripMonitorNotification) bool {
	n.calls++
	n.last = notifications
	return n.ok
}

// 2026-03-02 是周一，基准方案 08:30 出发 09:00 到达
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func mondayTrip() *model.MonitoredTrip {
	trip := &model.MonitoredTrip{
		UserID:                            9,
		TripName:                          "Morning commute",
		TripTime:                          "08:30",
		Timezone:                          "UTC",
		Monday:                            true,
		LeadTimeMinutes:                   60,
		DepartureVarianceMinutesThreshold: 10,
		ArrivalVarianceMinutesThreshold:   10,
		Active:                            true,
		QueryParams:                       "fromPlace=stop%3AA&toPlace=stop%3AB",
		Itinerary:                         *transitItinerary(time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC), 30),
	}
	trip.ID = 1
	trip.ItineraryExistence.MarkValid(time.Monday, "")
	return trip
}

func planWith(itineraries ...model.Itinerary) *planner.PlanResponse {
	return &planner.PlanResponse{Plan: &planner.TripPlan{Itineraries: itineraries}}
}

func newTestEngine(trip *model.MonitoredTrip, p *fakePlanner) (*Engine, *stubTrips, *fakeNotifier) {
	trips := &stubTrips{replaceOK: true}
	users := &fakeUsers{user: &model.User{Email: "rider@example.com", NotificationChannel: model.ChannelEmail}}
	notifier := &fakeNotifier{ok: true}
	engine := NewEngine(trips, users, p, notifier, clock.NewFixed(testNow))
	return engine, trips, notifier
}

func TestCheckOnTimeProducesNoNotification(t *testing.T) {
	trip := mondayTrip()
	p := &fakePlanner{resp: planWith(trip.Itinerary)}
	engine, trips, notifier := newTestEngine(trip, p)

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, 1, p.calls)
	require.Equal(t, 0, notifier.calls)
	require.Equal(t, model.TripUpcoming, trip.JourneyState.TripStatus)
	require.Equal(t, "2026-03-02", trip.JourneyState.TargetDate)
	require.Equal(t, testNow.UnixMilli(), trip.JourneyState.LastCheckedMillis)
	// 推进占位一次写回，检查结束一次写回
	require.Equal(t, 2, trips.persisted)
}

func TestCheckDelayNotifiesAndMovesBaseline(t *testing.T) {
	trip := mondayTrip()

	delayed := trip.Itinerary.Clone()
	delayed.StartTime += 20 * millisPerMinute
	delayed.EndTime += 20 * millisPerMinute
	delayed.Legs[0].StartTime += 20 * millisPerMinute
	delayed.Legs[0].EndTime += 20 * millisPerMinute
	delayed.Legs[0].DepartureDelay = 20 * 60
	delayed.Legs[0].ArrivalDelay = 20 * 60
	delayed.Legs[0].RealTime = true

	p := &fakePlanner{resp: planWith(*delayed)}
	engine, _, notifier := newTestEngine(trip, p)

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, 1, notifier.calls)
	require.Len(t, notifier.last, 2)
	require.Equal(t, "Your trip is now predicted to depart 20 minutes late (at 08:50).", notifier.last[0].Body)
	require.Equal(t, "Your trip is now predicted to arrive 20 minutes late (at 09:20).", notifier.last[1].Body)

	state := trip.JourneyState
	require.True(t, state.HasRealtimeData)
	// baseline 跟到新的实时时间，scheduled 保持计划时间
	require.Equal(t, delayed.StartTime, state.BaselineDepartureMillis)
	require.Equal(t, delayed.EndTime, state.BaselineArrivalMillis)
	require.Equal(t, trip.Itinerary.StartTime, state.ScheduledDepartureMillis)
	require.Equal(t, trip.Itinerary.EndTime, state.ScheduledArrivalMillis)
	require.Equal(t, notifier.last, state.LastNotifications)
	require.Equal(t, testNow.UnixMilli(), state.LastNotificationMillis)
}

func TestCheckDelayBelowThresholdStaysQuiet(t *testing.T) {
	trip := mondayTrip()

	delayed := trip.Itinerary.Clone()
	delayed.StartTime += 5 * millisPerMinute
	delayed.EndTime += 5 * millisPerMinute
	delayed.Legs[0].StartTime += 5 * millisPerMinute
	delayed.Legs[0].EndTime += 5 * millisPerMinute
	delayed.Legs[0].DepartureDelay = 5 * 60
	delayed.Legs[0].ArrivalDelay = 5 * 60
	delayed.Legs[0].RealTime = true

	p := &fakePlanner{resp: planWith(*delayed)}
	engine, _, notifier := newTestEngine(trip, p)

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, 0, notifier.calls)
	// 未越过阈值时 baseline 不动
	require.Equal(t, trip.Itinerary.StartTime, trip.JourneyState.BaselineDepartureMillis)
}

func TestCheckNoMatchSingleDayBecomesNoLongerPossible(t *testing.T) {
	trip := mondayTrip()
	p := &fakePlanner{resp: planWith()}
	engine, _, notifier := newTestEngine(trip, p)

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, model.NoLongerPossible, trip.JourneyState.TripStatus)
	require.Equal(t, 1, notifier.calls)
	require.Len(t, notifier.last, 1)
	require.Contains(t, notifier.last[0].Body, "no longer possible")

	day := trip.ItineraryExistence.Days["monday"]
	require.NotNil(t, day)
	require.False(t, day.Valid)
	require.Contains(t, day.InvalidDates, "2026-03-02")

	// 终态行程后续 tick 直接跳过
	require.NoError(t, engine.Check(context.Background(), trip))
	require.Equal(t, 1, p.calls)
}

func TestCheckNoMatchOtherDayStillPossible(t *testing.T) {
	trip := mondayTrip()
	trip.Wednesday = true
	trip.ItineraryExistence.MarkValid(time.Wednesday, "")

	p := &fakePlanner{resp: planWith()}
	engine, _, notifier := newTestEngine(trip, p)

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, model.NextTripNotPossible, trip.JourneyState.TripStatus)
	require.Equal(t, 1, notifier.calls)
	require.Contains(t, notifier.last[0].Body, "another day")
}

func TestNextTripNotPossibleRetriesAfterWindowPasses(t *testing.T) {
	trip := mondayTrip()
	trip.Wednesday = true
	trip.ItineraryExistence.MarkValid(time.Wednesday, "")

	p := &fakePlanner{resp: planWith()}
	trips := &stubTrips{replaceOK: true}
	clk := clock.NewFixed(testNow)
	engine := NewEngine(trips, &fakeUsers{user: &model.User{}}, p, &fakeNotifier{ok: true}, clk)

	require.NoError(t, engine.Check(context.Background(), trip))
	require.Equal(t, model.NextTripNotPossible, trip.JourneyState.TripStatus)

	// 占位方案的窗口还没过去，不重查
	require.NoError(t, engine.Check(context.Background(), trip))
	require.Equal(t, 1, p.calls)

	// 窗口过去后推进到下一个监控日（周三），状态回到 upcoming
	clk.Set(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, engine.Check(context.Background(), trip))
	require.Equal(t, model.TripUpcoming, trip.JourneyState.TripStatus)
	require.Equal(t, "2026-03-04", trip.JourneyState.TargetDate)
	// 距离目标还远，本 tick 只推进不查询
	require.Equal(t, 1, p.calls)
}

func TestCheckDeduplicatesRepeatedNotifications(t *testing.T) {
	trip := mondayTrip()
	trip.JourneyState.LastNotifications = []model.TripMonitorNotification{
		ComposeNotFoundNotification(false),
	}

	p := &fakePlanner{resp: planWith()}
	engine, _, notifier := newTestEngine(trip, p)

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, model.NoLongerPossible, trip.JourneyState.TripStatus)
	require.Equal(t, 0, notifier.calls)
}

func TestCheckFailedDeliveryKeepsDedupSetEmpty(t *testing.T) {
	trip := mondayTrip()
	p := &fakePlanner{resp: planWith()}
	trips := &stubTrips{replaceOK: true}
	notifier := &fakeNotifier{ok: false}
	engine := NewEngine(trips, &fakeUsers{user: &model.User{}}, p, notifier, clock.NewFixed(testNow))

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, 1, notifier.calls)
	// 投递失败时不更新去重集合，下次还能重发
	require.Empty(t, trip.JourneyState.LastNotifications)
	require.Zero(t, trip.JourneyState.LastNotificationMillis)
}

func TestCheckPlannerFailureOnlyStampsLastChecked(t *testing.T) {
	trip := mondayTrip()
	p := &fakePlanner{err: errors.New("connection refused")}
	engine, _, notifier := newTestEngine(trip, p)

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, 0, notifier.calls)
	require.Equal(t, model.TripUpcoming, trip.JourneyState.TripStatus)
	require.Equal(t, testNow.UnixMilli(), trip.JourneyState.LastCheckedMillis)
}

func TestCheckSkipsInactiveAndSnoozedTrips(t *testing.T) {
	p := &fakePlanner{resp: planWith()}

	inactive := mondayTrip()
	inactive.Active = false
	engine, _, _ := newTestEngine(inactive, p)
	require.NoError(t, engine.Check(context.Background(), inactive))

	snoozed := mondayTrip()
	snoozed.Snoozed = true
	engine, _, _ = newTestEngine(snoozed, p)
	require.NoError(t, engine.Check(context.Background(), snoozed))

	require.Equal(t, 0, p.calls)
}

func TestCheckTimeWindowTiers(t *testing.T) {
	cases := []struct {
		name             string
		now              time.Time
		lastCheckedAgo   time.Duration
		leadTimeMinutes  int
		wantPlannerCalls int
	}{
		{"outside lead time", time.Date(2026, 3, 2, 5, 0, 0, 0, time.UTC), time.Hour, 60, 0},
		{"far out checked recently", time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC), 30 * time.Minute, 600, 0},
		{"far out checked an hour ago", time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC), 61 * time.Minute, 600, 1},
		{"approaching checked recently", time.Date(2026, 3, 2, 7, 45, 0, 0, time.UTC), 10 * time.Minute, 600, 0},
		{"approaching checked 16 minutes ago", time.Date(2026, 3, 2, 7, 45, 0, 0, time.UTC), 16 * time.Minute, 600, 1},
		{"imminent always checks", time.Date(2026, 3, 2, 8, 15, 0, 0, time.UTC), time.Minute, 600, 1},
		{"active window always checks", time.Date(2026, 3, 2, 8, 45, 0, 0, time.UTC), time.Minute, 600, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trip := mondayTrip()
			trip.LeadTimeMinutes = tc.leadTimeMinutes

			// 预先放好今天的占位方案，隔离时间窗口判定
			placed := transitItinerary(time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC), 30)
			trip.JourneyState = model.JourneyState{
				TripStatus:               model.TripUpcoming,
				MatchingItinerary:        placed,
				TargetDate:               "2026-03-02",
				LastCheckedMillis:        tc.now.Add(-tc.lastCheckedAgo).UnixMilli(),
				BaselineDepartureMillis:  placed.StartTime,
				BaselineArrivalMillis:    placed.EndTime,
				ScheduledDepartureMillis: placed.StartTime,
				ScheduledArrivalMillis:   placed.EndTime,
			}

			p := &fakePlanner{resp: planWith(trip.Itinerary)}
			trips := &stubTrips{replaceOK: true}
			engine := NewEngine(trips, &fakeUsers{user: &model.User{}}, p, &fakeNotifier{ok: true}, clock.NewFixed(tc.now))

			require.NoError(t, engine.Check(context.Background(), trip))
			require.Equal(t, tc.wantPlannerCalls, p.calls)
		})
	}
}

func TestCheckAdvancesRecurringTripToNextMonday(t *testing.T) {
	trip := mondayTrip()

	// 今天的场次已经结束
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	p := &fakePlanner{resp: planWith(trip.Itinerary)}
	trips := &stubTrips{replaceOK: true}
	engine := NewEngine(trips, &fakeUsers{user: &model.User{}}, p, &fakeNotifier{ok: true}, clock.NewFixed(now))

	require.NoError(t, engine.Check(context.Background(), trip))

	state := trip.JourneyState
	require.Equal(t, "2026-03-09", state.TargetDate)
	require.Equal(t, model.TripUpcoming, state.TripStatus)

	next := state.MatchingItinerary.Start().In(time.UTC)
	require.Equal(t, 9, next.Day())
	require.Equal(t, 8, next.Hour())
	require.Equal(t, 30, next.Minute())
	require.Equal(t, state.ScheduledDepartureMillis, state.BaselineDepartureMillis)

	// 距下周一还有一周，推进后本 tick 不查询
	require.Equal(t, 0, p.calls)
	require.Equal(t, 1, trips.persisted)
}

func TestCheckDeactivatesOneTimeTripAfterOccurrence(t *testing.T) {
	trip := mondayTrip()
	trip.Monday = false // 一次性行程

	now := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	p := &fakePlanner{resp: planWith(trip.Itinerary)}
	trips := &stubTrips{replaceOK: true}
	engine := NewEngine(trips, &fakeUsers{user: &model.User{}}, p, &fakeNotifier{ok: true}, clock.NewFixed(now))

	require.NoError(t, engine.Check(context.Background(), trip))

	require.False(t, trip.Active)
	require.Equal(t, 0, p.calls)
	require.Equal(t, 1, trips.persisted)
}

func TestCheckMalformedQueryParamsStampsAndMovesOn(t *testing.T) {
	trip := mondayTrip()
	trip.QueryParams = "%zz"

	p := &fakePlanner{resp: planWith(trip.Itinerary)}
	engine, _, notifier := newTestEngine(trip, p)

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, 0, p.calls)
	require.Equal(t, 0, notifier.calls)
	require.Equal(t, testNow.UnixMilli(), trip.JourneyState.LastCheckedMillis)
}

func TestCheckPassesTargetDateToPlanner(t *testing.T) {
	trip := mondayTrip()

	var gotParams map[string]string
	p := &fakePlanner{resp: planWith(trip.Itinerary)}
	trips := &stubTrips{replaceOK: true}
	engine := NewEngine(trips, &fakeUsers{user: &model.User{}}, plannerFunc(func(ctx context.Context, params map[string]string) (*planner.PlanResponse, error) {
		gotParams = params
		return p.resp, nil
	}), &fakeNotifier{ok: true}, clock.NewFixed(testNow))

	require.NoError(t, engine.Check(context.Background(), trip))

	require.Equal(t, "2026-03-02", gotParams["date"])
	require.Equal(t, "08:30", gotParams["time"])
	require.Equal(t, "false", gotParams["arriveBy"])
	require.Equal(t, "stop:A", gotParams["fromPlace"])
}

type plannerFunc func(ctx context.Context, params map[string]string) (*planner.PlanResponse, error)

func (f plannerFunc) Plan(ctx context.Context, params map[string]string) (*planner.PlanResponse, error) {
	return f(ctx, params)
}
