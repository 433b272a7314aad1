package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSameNotificationsComparesAsMultiset(t *testing.T) {
	a := TripMonitorNotification{Type: NotifyDelay, Body: "late"}
	b := TripMonitorNotification{Type: NotifyAlerts, Body: "alert"}

	require.True(t, SameNotifications(nil, nil))
	require.True(t, SameNotifications(
		[]TripMonitorNotification{a, b},
		[]TripMonitorNotification{b, a},
	))
	require.False(t, SameNotifications(
		[]TripMonitorNotification{a},
		[]TripMonitorNotification{b},
	))
	require.False(t, SameNotifications(
		[]TripMonitorNotification{a, a},
		[]TripMonitorNotification{a, b},
	))
	require.False(t, SameNotifications(
		[]TripMonitorNotification{a},
		[]TripMonitorNotification{a, a},
	))
}

func TestItineraryExistenceTracksDays(t *testing.T) {
	var e ItineraryExistence

	e.MarkValid(time.Monday, "")
	e.MarkValid(time.Wednesday, "")
	require.True(t, e.AnyOtherDayValid(time.Monday))

	e.MarkInvalid(time.Wednesday, "2026-03-04")
	require.False(t, e.AnyOtherDayValid(time.Monday))
	require.True(t, e.AnyOtherDayValid(time.Wednesday))

	day := e.Days["wednesday"]
	require.False(t, day.Valid)
	require.Equal(t, []string{"2026-03-04"}, day.InvalidDates)

	// 同一日期重复标记不产生重复记录
	e.MarkInvalid(time.Wednesday, "2026-03-04")
	require.Equal(t, []string{"2026-03-04"}, day.InvalidDates)

	// 再次可行时清除该日期的失效记录
	e.MarkValid(time.Wednesday, "2026-03-04")
	require.True(t, day.Valid)
	require.Empty(t, day.InvalidDates)
}

func TestItineraryCloneIsDeep(t *testing.T) {
	orig := &Itinerary{
		StartTime: 1000,
		EndTime:   2000,
		Legs: []Leg{
			{Mode: "BUS", Alerts: []LocalizedAlert{{HeaderText: "detour"}}},
		},
	}

	clone := orig.Clone()
	clone.Legs[0].Mode = "RAIL"
	clone.Legs[0].Alerts[0].HeaderText = "changed"

	require.Equal(t, "BUS", orig.Legs[0].Mode)
	require.Equal(t, "detour", orig.Legs[0].Alerts[0].HeaderText)
}

func TestLegScheduledTimesStripRealtimeDelay(t *testing.T) {
	leg := Leg{
		StartTime:      1_000_000,
		EndTime:        2_000_000,
		DepartureDelay: 120,
		ArrivalDelay:   60,
	}
	require.Equal(t, int64(880_000), leg.ScheduledStartTime())
	require.Equal(t, int64(1_940_000), leg.ScheduledEndTime())
}

func TestMonitoredTripDayHelpers(t *testing.T) {
	trip := &MonitoredTrip{Tuesday: true, Saturday: true}
	require.True(t, trip.MonitorsDay(time.Tuesday))
	require.True(t, trip.MonitorsDay(time.Saturday))
	require.False(t, trip.MonitorsDay(time.Monday))
	require.False(t, trip.IsOneTime())

	oneTime := &MonitoredTrip{}
	require.True(t, oneTime.IsOneTime())
}

func TestTripLocationFallsBackToUTC(t *testing.T) {
	trip := &MonitoredTrip{Timezone: "Not/AZone"}
	require.Equal(t, time.UTC, trip.Location())

	trip.Timezone = "America/New_York"
	require.Equal(t, "America/New_York", trip.Location().String())
}
