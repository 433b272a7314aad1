package monitor

import (
	"fmt"
	"strings"

	"TripWatch/internal/model"
)

// 通知文案的组装都是纯函数，引擎算出状态差异后在这里转成用户可读的内容

// delayDescription 把相对原计划的偏差分钟数转成文案。
// 偏差绝对值不超过 1 分钟视为准点。
func delayDescription(deviationMinutes int64) string {
	abs := deviationMinutes
	if abs < 0 {
		abs = -abs
	}

	// 超过 1 分钟才按偏差播报，所以这里分钟数恒为复数
	if abs <= 1 {
		return "about on time"
	}

	if deviationMinutes > 0 {
		return fmt.Sprintf("%d minutes late", abs)
	}
	return fmt.Sprintf("%d minutes early", abs)
}

// ComposeDelayNotification 生成延误通知。
// direction 取 depart 或 arrive，deviationMinutes 是相对原计划时间的偏差，
// actualTime 是最新预测时刻的本地格式化字符串。
func ComposeDelayNotification(direction string, deviationMinutes int64, actualTime string) model.TripMonitorNotification {
	desc := delayDescription(deviationMinutes)

	body := fmt.Sprintf("Your trip is now predicted to %s %s (at %s).", direction, desc, actualTime)
	short := fmt.Sprintf("%s %s (%s)", direction, desc, actualTime)

	return model.TripMonitorNotification{
		Type:      model.NotifyDelay,
		Body:      body,
		ShortBody: short,
	}
}

// ComposeAlertsNotification 根据新增与已解除的告警集合生成通知。
// 两个集合都为空时返回 (zero, false)。
// 所有旧告警都已解除且没有新增时生成独立的 all clear 文案。
func ComposeAlertsNotification(newAlerts, resolvedAlerts []model.LocalizedAlert) (model.TripMonitorNotification, bool) {
	if len(newAlerts) == 0 && len(resolvedAlerts) == 0 {
		return model.TripMonitorNotification{}, false
	}

	if len(newAlerts) == 0 {
		var sb strings.Builder
		sb.WriteString("All clear! The following alerts on your trip have all been resolved:")
		for _, a := range resolvedAlerts {
			sb.WriteString("\n- ")
			sb.WriteString(alertText(a))
		}
		return model.TripMonitorNotification{
			Type:      model.NotifyAlerts,
			Body:      sb.String(),
			ShortBody: fmt.Sprintf("all %d alerts resolved", len(resolvedAlerts)),
		}, true
	}

	var sb strings.Builder
	if len(newAlerts) > 0 {
		sb.WriteString("New alerts found on your trip:")
		for _, a := range newAlerts {
			sb.WriteString("\n- ")
			sb.WriteString(alertText(a))
		}
	}
	if len(resolvedAlerts) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Resolved alerts:")
		for _, a := range resolvedAlerts {
			sb.WriteString("\n- ")
			sb.WriteString(alertText(a))
		}
	}

	return model.TripMonitorNotification{
		Type:      model.NotifyAlerts,
		Body:      sb.String(),
		ShortBody: fmt.Sprintf("%d new, %d resolved alerts", len(newAlerts), len(resolvedAlerts)),
	}, true
}

func alertText(a model.LocalizedAlert) string {
	if a.DescriptionText != "" {
		return a.DescriptionText
	}
	return a.HeaderText
}

// ComposeNotFoundNotification 生成方案未找到通知，
// othersPossible 表示是否还有其他监控日可行
func ComposeNotFoundNotification(othersPossible bool) model.TripMonitorNotification {
	if othersPossible {
		return model.TripMonitorNotification{
			Type:      model.NotifyItineraryNotFound,
			Body:      "Your itinerary was not found for its next scheduled day. It may still be possible on another day of the week you are monitoring.",
			ShortBody: "itinerary not found for next day",
		}
	}

	return model.TripMonitorNotification{
		Type:      model.NotifyItineraryNotFound,
		Body:      "Your itinerary is no longer possible on any day of the week you are monitoring. Please plan and save a new trip.",
		ShortBody: "itinerary no longer possible",
	}
}
