package model

import "time"

// MonitoredTrip 用户保存的周期性或一次性行程
type MonitoredTrip struct {
	BaseModel
	UserID   int64  `gorm:"not null;index:idx_trips_user_id" json:"user_id,string"`
	TripName string `gorm:"type:varchar(128);not null;default:''" json:"trip_name"`

	// TripTime 目标时刻，HH:MM；ArriveBy 为 true 时表示期望到达时刻
	TripTime string `gorm:"type:varchar(5);not null" json:"trip_time"`
	ArriveBy bool   `gorm:"not null;default:false" json:"arrive_by"`
	Timezone string `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`

	// 监控的星期几，全部为 false 表示一次性行程
	Monday    bool `gorm:"not null;default:false" json:"monday"`
	Tuesday   bool `gorm:"not null;default:false" json:"tuesday"`
	Wednesday bool `gorm:"not null;default:false" json:"wednesday"`
	Thursday  bool `gorm:"not null;default:false" json:"thursday"`
	Friday    bool `gorm:"not null;default:false" json:"friday"`
	Saturday  bool `gorm:"not null;default:false" json:"saturday"`
	Sunday    bool `gorm:"not null;default:false" json:"sunday"`

	// 提前多少分钟开始检查
	LeadTimeMinutes int `gorm:"not null;default:30" json:"lead_time_minutes"`

	// 双向延误通知阈值（分钟）
	DepartureVarianceMinutesThreshold int `gorm:"not null;default:5" json:"departure_variance_minutes_threshold"`
	ArrivalVarianceMinutesThreshold   int `gorm:"not null;default:5" json:"arrival_variance_minutes_threshold"`

	NotifyOnAlerts bool `gorm:"not null;default:true" json:"notify_on_alerts"`
	Snoozed        bool `gorm:"not null;default:false" json:"snoozed"`
	Active         bool `gorm:"not null;default:true;index:idx_trips_active" json:"active"`

	// QueryParams 保存行程时的规划查询串，检查时仅替换日期参数
	QueryParams string `gorm:"type:text;not null;default:''" json:"query_params"`

	// Itinerary 保存时的基准方案（非实时）
	Itinerary Itinerary `gorm:"type:jsonb" json:"itinerary"`

	ItineraryExistence ItineraryExistence `gorm:"type:jsonb" json:"itinerary_existence"`
	JourneyState       JourneyState       `gorm:"type:jsonb" json:"journey_state"`
}

// TableName 指定表名
func (MonitoredTrip) TableName() string {
	return "monitored_trips"
}

// MonitorsDay 判断某个星期几是否在监控范围内
func (t *MonitoredTrip) MonitorsDay(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return t.Monday
	case time.Tuesday:
		return t.Tuesday
	case time.Wednesday:
		return t.Wednesday
	case time.Thursday:
		return t.Thursday
	case time.Friday:
		return t.Friday
	case time.Saturday:
		return t.Saturday
	case time.Sunday:
		return t.Sunday
	}
	return false
}

// IsOneTime 未勾选任何星期几的行程是一次性行程
func (t *MonitoredTrip) IsOneTime() bool {
	return !t.Monday && !t.Tuesday && !t.Wednesday && !t.Thursday &&
		!t.Friday && !t.Saturday && !t.Sunday
}

// Location 解析行程时区，解析失败回退 UTC
func (t *MonitoredTrip) Location() *time.Location {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
