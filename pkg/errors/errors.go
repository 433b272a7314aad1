package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 用户相关错误。
var (
	UserNotFound  = Definition{Code: "USER_NOT_FOUND", Message: "User not found"}
	InvalidUserID = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
)

// 行程监控模块错误。
var (
	TripNotFound       = Definition{Code: "TRIP_NOT_FOUND", Message: "Monitored trip not found"}
	TripLocked         = Definition{Code: "TRIP_LOCKED", Message: "Trip is being checked, retry later"}
	TripInvalidTime    = Definition{Code: "TRIP_INVALID_TIME", Message: "Trip time must be HH:MM"}
	TripInvalidDays    = Definition{Code: "TRIP_INVALID_DAYS", Message: "Invalid monitored day set"}
	TripNoItinerary    = Definition{Code: "TRIP_NO_ITINERARY", Message: "A saved itinerary is required"}
	TripInvalidQuery   = Definition{Code: "TRIP_INVALID_QUERY", Message: "Invalid planner query parameters"}
	TripNotOwned       = Definition{Code: "TRIP_NOT_OWNED", Message: "Trip belongs to another user"}
	ThresholdInvalid   = Definition{Code: "THRESHOLD_INVALID", Message: "Variance threshold must be >= 0"}
	LeadTimeInvalid    = Definition{Code: "LEAD_TIME_INVALID", Message: "Lead time must be positive"}
)

// 规划服务错误。
var (
	PlannerUnavailable = Definition{Code: "PLANNER_UNAVAILABLE", Message: "Trip planner unavailable"}
	PlannerBadResponse = Definition{Code: "PLANNER_BAD_RESPONSE", Message: "Trip planner returned an unusable response"}
)

// 通知模块错误。
var (
	NotifyChannelInvalid = Definition{Code: "NOTIFY_CHANNEL_INVALID", Message: "Invalid notification channel"}
	NotifySendFailed     = Definition{Code: "NOTIFY_SEND_FAILED", Message: "Failed to deliver notification"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	UserNotFound.Code:         UserNotFound,
	InvalidUserID.Code:        InvalidUserID,
	TripNotFound.Code:         TripNotFound,
	TripLocked.Code:           TripLocked,
	TripInvalidTime.Code:      TripInvalidTime,
	TripInvalidDays.Code:      TripInvalidDays,
	TripNoItinerary.Code:      TripNoItinerary,
	TripInvalidQuery.Code:     TripInvalidQuery,
	TripNotOwned.Code:         TripNotOwned,
	ThresholdInvalid.Code:     ThresholdInvalid,
	LeadTimeInvalid.Code:      LeadTimeInvalid,
	PlannerUnavailable.Code:   PlannerUnavailable,
	PlannerBadResponse.Code:   PlannerBadResponse,
	NotifyChannelInvalid.Code: NotifyChannelInvalid,
	NotifySendFailed.Code:     NotifySendFailed,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
