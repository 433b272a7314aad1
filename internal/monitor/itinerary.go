package monitor

import (
	"time"

	"TripWatch/internal/model"
)

// ItinerariesMatch 判断候选方案与基准方案是否结构等价：
// 段数一致，每段的出行方式、起讫站点、线路一致，
// 交通段的计划钟点时刻一致（忽略日期，基准方案可能停留在保存当天）。
func ItinerariesMatch(baseline, candidate *model.Itinerary, loc *time.Location) bool {
	if baseline == nil || candidate == nil {
		return false
	}
	if len(baseline.Legs) != len(candidate.Legs) {
		return false
	}

	for i := range baseline.Legs {
		b := &baseline.Legs[i]
		c := &candidate.Legs[i]

		if b.Mode != c.Mode ||
			b.FromStopID != c.FromStopID ||
			b.ToStopID != c.ToStopID ||
			b.RouteID != c.RouteID {
			return false
		}

		if b.TransitLeg != c.TransitLeg {
			return false
		}

		if b.TransitLeg {
			if clockTime(b.ScheduledStartTime(), loc) != clockTime(c.ScheduledStartTime(), loc) {
				return false
			}
			if clockTime(b.ScheduledEndTime(), loc) != clockTime(c.ScheduledEndTime(), loc) {
				return false
			}
		}
	}

	return true
}

func clockTime(millis int64, loc *time.Location) string {
	return time.UnixMilli(millis).In(loc).Format("15:04")
}

// OffsetItineraryToDate 把方案平移到目标日期，保持钟点时刻不变，返回新值。
// 跨夏令时边界时以钟点时刻为准而不是固定时长。
func OffsetItineraryToDate(itin *model.Itinerary, targetDate time.Time, loc *time.Location) *model.Itinerary {
	if itin.IsEmpty() {
		return itin.Clone()
	}

	origStart := itin.Start().In(loc)
	newStart := time.Date(
		targetDate.Year(), targetDate.Month(), targetDate.Day(),
		origStart.Hour(), origStart.Minute(), origStart.Second(), origStart.Nanosecond(),
		loc,
	)
	deltaMillis := newStart.UnixMilli() - origStart.UnixMilli()

	clone := itin.Clone()
	clone.StartTime += deltaMillis
	clone.EndTime += deltaMillis
	for i := range clone.Legs {
		clone.Legs[i].StartTime += deltaMillis
		clone.Legs[i].EndTime += deltaMillis
	}
	return clone
}

// itineraryEnded 判断方案的结束时间是否已经过去
func itineraryEnded(itin *model.Itinerary, now time.Time) bool {
	if itin.IsEmpty() {
		return true
	}
	return now.After(itin.End())
}

// itineraryActive 判断当前时间是否落在方案的起止窗口内
func itineraryActive(itin *model.Itinerary, now time.Time) bool {
	if itin.IsEmpty() {
		return false
	}
	return !now.Before(itin.Start()) && !now.After(itin.End())
}

// collectAlerts 收集方案所有段上的告警并去重
func collectAlerts(itin *model.Itinerary) []model.LocalizedAlert {
	if itin == nil {
		return nil
	}

	seen := make(map[model.LocalizedAlert]struct{})
	var alerts []model.LocalizedAlert
	for i := range itin.Legs {
		for _, a := range itin.Legs[i].Alerts {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// diffAlerts 对比前后两次检查的告警集合，
// 返回仅出现在新集合的告警与仅出现在旧集合（已解除）的告警
func diffAlerts(previous, current []model.LocalizedAlert) (newAlerts, resolvedAlerts []model.LocalizedAlert) {
	prevSet := make(map[model.LocalizedAlert]struct{}, len(previous))
	for _, a := range previous {
		prevSet[a] = struct{}{}
	}
	currSet := make(map[model.LocalizedAlert]struct{}, len(current))
	for _, a := range current {
		currSet[a] = struct{}{}
	}

	for _, a := range current {
		if _, ok := prevSet[a]; !ok {
			newAlerts = append(newAlerts, a)
		}
	}
	for _, a := range previous {
		if _, ok := currSet[a]; !ok {
			resolvedAlerts = append(resolvedAlerts, a)
		}
	}
	return newAlerts, resolvedAlerts
}
