package model

// CreateTripRequest 创建监控行程的请求体
type CreateTripRequest struct {
	TripName string `json:"trip_name"`
	TripTime string `json:"trip_time"` // HH:MM
	ArriveBy bool   `json:"arrive_by"`
	Timezone string `json:"timezone"`

	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`

	LeadTimeMinutes                   int  `json:"lead_time_minutes"`
	DepartureVarianceMinutesThreshold int  `json:"departure_variance_minutes_threshold"`
	ArrivalVarianceMinutesThreshold   int  `json:"arrival_variance_minutes_threshold"`
	NotifyOnAlerts                    bool `json:"notify_on_alerts"`

	QueryParams string    `json:"query_params"`
	Itinerary   Itinerary `json:"itinerary"`
}

// UpdateTripRequest 更新监控行程的请求体，nil 字段表示不修改
type UpdateTripRequest struct {
	TripName *string `json:"trip_name"`
	TripTime *string `json:"trip_time"`
	ArriveBy *bool   `json:"arrive_by"`
	Timezone *string `json:"timezone"`

	Monday    *bool `json:"monday"`
	Tuesday   *bool `json:"tuesday"`
	Wednesday *bool `json:"wednesday"`
	Thursday  *bool `json:"thursday"`
	Friday    *bool `json:"friday"`
	Saturday  *bool `json:"saturday"`
	Sunday    *bool `json:"sunday"`

	LeadTimeMinutes                   *int  `json:"lead_time_minutes"`
	DepartureVarianceMinutesThreshold *int  `json:"departure_variance_minutes_threshold"`
	ArrivalVarianceMinutesThreshold   *int  `json:"arrival_variance_minutes_threshold"`
	NotifyOnAlerts                    *bool `json:"notify_on_alerts"`
	Snoozed                           *bool `json:"snoozed"`
	Active                            *bool `json:"active"`

	QueryParams *string    `json:"query_params"`
	Itinerary   *Itinerary `json:"itinerary"`
}

// TripData 行程详情响应
type TripData struct {
	ID       int64  `json:"id,string"`
	TripName string `json:"trip_name"`
	TripTime string `json:"trip_time"`
	ArriveBy bool   `json:"arrive_by"`
	Timezone string `json:"timezone"`

	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`

	LeadTimeMinutes                   int  `json:"lead_time_minutes"`
	DepartureVarianceMinutesThreshold int  `json:"departure_variance_minutes_threshold"`
	ArrivalVarianceMinutesThreshold   int  `json:"arrival_variance_minutes_threshold"`
	NotifyOnAlerts                    bool `json:"notify_on_alerts"`
	Snoozed                           bool `json:"snoozed"`
	Active                            bool `json:"active"`

	TripStatus  TripStatus `json:"trip_status"`
	TargetDate  string     `json:"target_date,omitempty"`
	LastChecked int64      `json:"last_checked_millis"`
}

// ToTripData 转换为响应 DTO
func (t *MonitoredTrip) ToTripData() TripData {
	return TripData{
		ID:       t.ID,
		TripName: t.TripName,
		TripTime: t.TripTime,
		ArriveBy: t.ArriveBy,
		Timezone: t.Timezone,

		Monday:    t.Monday,
		Tuesday:   t.Tuesday,
		Wednesday: t.Wednesday,
		Thursday:  t.Thursday,
		Friday:    t.Friday,
		Saturday:  t.Saturday,
		Sunday:    t.Sunday,

		LeadTimeMinutes:                   t.LeadTimeMinutes,
		DepartureVarianceMinutesThreshold: t.DepartureVarianceMinutesThreshold,
		ArrivalVarianceMinutesThreshold:   t.ArrivalVarianceMinutesThreshold,
		NotifyOnAlerts:                    t.NotifyOnAlerts,
		Snoozed:                           t.Snoozed,
		Active:                            t.Active,

		TripStatus:  t.JourneyState.TripStatus,
		TargetDate:  t.JourneyState.TargetDate,
		LastChecked: t.JourneyState.LastCheckedMillis,
	}
}
