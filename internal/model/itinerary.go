package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// LocalizedAlert 线路告警，与规划服务返回的结构保持一致
type LocalizedAlert struct {
	HeaderText      string `json:"alertHeaderText"`
	DescriptionText string `json:"alertDescriptionText"`
}

// Leg 行程中的一段，交通段携带站点与线路标识
type Leg struct {
	Mode           string           `json:"mode"`
	FromStopID     string           `json:"fromStopId,omitempty"`
	ToStopID       string           `json:"toStopId,omitempty"`
	RouteID        string           `json:"routeId,omitempty"`
	TransitLeg     bool             `json:"transitLeg"`
	RealTime       bool             `json:"realTime"`
	StartTime      int64            `json:"startTime"` // epoch millis
	EndTime        int64            `json:"endTime"`   // epoch millis
	DepartureDelay int              `json:"departureDelay"` // 秒
	ArrivalDelay   int              `json:"arrivalDelay"`   // 秒
	Alerts         []LocalizedAlert `json:"alerts,omitempty"`
}

// ScheduledStartTime 去掉实时延误后的计划出发时间（毫秒）
func (l *Leg) ScheduledStartTime() int64 {
	return l.StartTime - int64(l.DepartureDelay)*1000
}

// ScheduledEndTime 去掉实时延误后的计划到达时间（毫秒）
func (l *Leg) ScheduledEndTime() int64 {
	return l.EndTime - int64(l.ArrivalDelay)*1000
}

// Itinerary 一条完整的出行方案
type Itinerary struct {
	StartTime int64 `json:"startTime"` // epoch millis
	EndTime   int64 `json:"endTime"`   // epoch millis
	Duration  int64 `json:"duration"`  // 秒
	Legs      []Leg `json:"legs"`
}

func (i Itinerary) Value() (driver.Value, error) {
	return json.Marshal(i)
}

func (i *Itinerary) Scan(value interface{}) error {
	if value == nil {
		*i = Itinerary{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal Itinerary value")
	}
	return json.Unmarshal(bytes, i)
}

// IsEmpty 判断方案是否为空（尚未保存基准方案）
func (i *Itinerary) IsEmpty() bool {
	return i == nil || len(i.Legs) == 0
}

// Start 方案出发时间
func (i *Itinerary) Start() time.Time {
	return time.UnixMilli(i.StartTime)
}

// End 方案结束时间
func (i *Itinerary) End() time.Time {
	return time.UnixMilli(i.EndTime)
}

// Clone 深拷贝方案，偏移日期等操作返回新值而不修改共享状态
func (i *Itinerary) Clone() *Itinerary {
	if i == nil {
		return nil
	}
	clone := *i
	clone.Legs = make([]Leg, len(i.Legs))
	copy(clone.Legs, i.Legs)
	for idx := range clone.Legs {
		if len(i.Legs[idx].Alerts) > 0 {
			clone.Legs[idx].Alerts = make([]LocalizedAlert, len(i.Legs[idx].Alerts))
			copy(clone.Legs[idx].Alerts, i.Legs[idx].Alerts)
		}
	}
	return &clone
}

// HasRealtime 任一交通段带有实时数据即视为有实时数据
func (i *Itinerary) HasRealtime() bool {
	if i == nil {
		return false
	}
	for idx := range i.Legs {
		if i.Legs[idx].RealTime {
			return true
		}
	}
	return false
}

// DayExistence 某个星期几的方案存在性记录
type DayExistence struct {
	Valid        bool     `json:"valid"`
	InvalidDates []string `json:"invalid_dates,omitempty"` // YYYY-MM-DD
}

// ItineraryExistence 按星期几记录方案是否仍然存在，
// 用于区分"今天不可行"与"所有监控日都不再可行"
type ItineraryExistence struct {
	Days map[string]*DayExistence `json:"days,omitempty"`
}

func (e ItineraryExistence) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *ItineraryExistence) Scan(value interface{}) error {
	if value == nil {
		*e = ItineraryExistence{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal ItineraryExistence value")
	}
	return json.Unmarshal(bytes, e)
}

// dayKey 以小写英文星期名作为 map 键
func dayKey(day time.Weekday) string {
	switch day {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// MarkValid 标记某个星期几仍然可行，并清除该日期的失效记录
func (e *ItineraryExistence) MarkValid(day time.Weekday, date string) {
	if e.Days == nil {
		e.Days = make(map[string]*DayExistence)
	}
	key := dayKey(day)
	entry := e.Days[key]
	if entry == nil {
		entry = &DayExistence{}
		e.Days[key] = entry
	}
	entry.Valid = true

	kept := entry.InvalidDates[:0]
	for _, d := range entry.InvalidDates {
		if d != date {
			kept = append(kept, d)
		}
	}
	entry.InvalidDates = kept
}

// MarkInvalid 记录某个具体日期未找到匹配方案
func (e *ItineraryExistence) MarkInvalid(day time.Weekday, date string) {
	if e.Days == nil {
		e.Days = make(map[string]*DayExistence)
	}
	key := dayKey(day)
	entry := e.Days[key]
	if entry == nil {
		entry = &DayExistence{Valid: true}
		e.Days[key] = entry
	}
	entry.Valid = false
	for _, d := range entry.InvalidDates {
		if d == date {
			return
		}
	}
	entry.InvalidDates = append(entry.InvalidDates, date)
}

// AnyOtherDayValid 除给定星期几外，是否还有任一监控日的存在性记录有效
func (e *ItineraryExistence) AnyOtherDayValid(exclude time.Weekday) bool {
	excludeKey := dayKey(exclude)
	for key, entry := range e.Days {
		if key == excludeKey {
			continue
		}
		if entry != nil && entry.Valid {
			return true
		}
	}
	return false
}
