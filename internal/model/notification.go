package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// TripStatus 行程监控状态机
type TripStatus string

const (
	// TripUpcoming 行程尚未开始
	TripUpcoming TripStatus = "TRIP_UPCOMING"
	// TripActive 当前时间落在匹配方案的起止窗口内
	TripActive TripStatus = "TRIP_ACTIVE"
	// NextTripNotPossible 目标日期未找到匹配方案，但其他监控日仍然可行
	NextTripNotPossible TripStatus = "NEXT_TRIP_NOT_POSSIBLE"
	// NoLongerPossible 所有监控日都不再可行，终态，用户编辑前跳过检查
	NoLongerPossible TripStatus = "NO_LONGER_POSSIBLE"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotifyDelay             NotificationType = "DELAY"
	NotifyAlerts            NotificationType = "ALERTS"
	NotifyItineraryNotFound NotificationType = "ITINERARY_NOT_FOUND"
)

// TripMonitorNotification 单次检查产出的通知值，
// 只在去重集合里以内容形式保留，从不单独持久化
type TripMonitorNotification struct {
	Type      NotificationType `json:"type"`
	Body      string           `json:"body"`
	ShortBody string           `json:"short_body"`
}

// JourneyState 行程的监控记忆，嵌入在 MonitoredTrip 中，
// 只由检查引擎修改，随行程一并持久化
type JourneyState struct {
	TripStatus        TripStatus `json:"trip_status"`
	MatchingItinerary *Itinerary `json:"matching_itinerary,omitempty"`
	TargetDate        string     `json:"target_date,omitempty"` // YYYY-MM-DD
	LastCheckedMillis int64      `json:"last_checked_millis"`

	// baseline 记录上一次越过阈值时的时间，scheduled 记录原始计划时间。
	// 通知判定看 baseline，通知文案看 scheduled。
	BaselineDepartureMillis  int64 `json:"baseline_departure_millis"`
	BaselineArrivalMillis    int64 `json:"baseline_arrival_millis"`
	ScheduledDepartureMillis int64 `json:"scheduled_departure_millis"`
	ScheduledArrivalMillis   int64 `json:"scheduled_arrival_millis"`

	HasRealtimeData bool `json:"has_realtime_data"`

	LastNotifications      []TripMonitorNotification `json:"last_notifications,omitempty"`
	LastNotificationMillis int64                     `json:"last_notification_millis"`
}

func (s JourneyState) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *JourneyState) Scan(value interface{}) error {
	if value == nil {
		*s = JourneyState{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JourneyState value")
	}
	return json.Unmarshal(bytes, s)
}

// SameNotifications 判断两组通知作为集合是否一致，用于发送去重
func SameNotifications(a, b []TripMonitorNotification) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[TripMonitorNotification]int, len(a))
	for _, n := range a {
		seen[n]++
	}
	for _, n := range b {
		seen[n]--
		if seen[n] < 0 {
			return false
		}
	}
	return true
}
