package notify

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"TripWatch/internal/model"
	"TripWatch/pkg/email"
	"TripWatch/pkg/logger"
	"TripWatch/pkg/metrics"
	"TripWatch/pkg/sms"
)

// Notifier 按用户的渠道偏好投递行程通知
type Notifier struct {
	smsClient   sms.Client
	emailClient email.Client

	signName     string
	templateCode string
}

func NewNotifier(smsClient sms.Client, emailClient email.Client, signName, templateCode string) *Notifier {
	return &Notifier{
		smsClient:    smsClient,
		emailClient:  emailClient,
		signName:     signName,
		templateCode: templateCode,
	}
}

// Notify 把一次检查产出的通知发给行程归属用户，
// 任一渠道投递成功即返回 true，渠道偏好为 none 时不发送且返回 false。
func (n *Notifier) Notify(ctx context.Context, user *model.User, trip *model.MonitoredTrip, notifications []model.TripMonitorNotification) bool {
	if user == nil || len(notifications) == 0 {
		return false
	}

	channel := user.NotificationChannel
	if channel == model.ChannelNone || !model.ValidChannel(channel) {
		return false
	}

	sent := false

	if channel == model.ChannelEmail || channel == model.ChannelAll {
		if n.sendEmail(ctx, user, trip, notifications) {
			sent = true
		}
	}

	if channel == model.ChannelSMS || channel == model.ChannelAll {
		if n.sendSMS(ctx, user, trip, notifications) {
			sent = true
		}
	}

	return sent
}

func (n *Notifier) sendEmail(ctx context.Context, user *model.User, trip *model.MonitoredTrip, notifications []model.TripMonitorNotification) bool {
	if n.emailClient == nil || user.Email == "" {
		return false
	}

	subject := "TripWatch notice: " + trip.TripName

	var sb strings.Builder
	for i, note := range notifications {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(note.Body)
	}

	if err := n.emailClient.Send(ctx, user.Email, subject, sb.String()); err != nil {
		logger.Logger.Error("Failed to send trip notification email",
			zap.Int64("user_id", user.ID),
			zap.Int64("trip_id", trip.ID),
			zap.Error(err),
		)
		return false
	}

	metrics.RecordNotificationSent(ctx, "email", len(notifications))
	return true
}

func (n *Notifier) sendSMS(ctx context.Context, user *model.User, trip *model.MonitoredTrip, notifications []model.TripMonitorNotification) bool {
	if n.smsClient == nil || user.Phone == "" {
		return false
	}

	// 短信模板只有 name 和 content 两个占位符，content 用短文案拼接
	shorts := make([]string, 0, len(notifications))
	for _, note := range notifications {
		shorts = append(shorts, note.ShortBody)
	}

	param, err := json.Marshal(map[string]string{
		"name":    trip.TripName,
		"content": strings.Join(shorts, " / "),
	})
	if err != nil {
		logger.Logger.Error("Failed to marshal sms template param", zap.Error(err))
		return false
	}

	if err := n.smsClient.SendSingle(ctx, user.Phone, n.signName, n.templateCode, string(param)); err != nil {
		logger.Logger.Error("Failed to send trip notification sms",
			zap.Int64("user_id", user.ID),
			zap.Int64("trip_id", trip.ID),
			zap.Error(err),
		)
		return false
	}

	metrics.RecordNotificationSent(ctx, "sms", len(notifications))
	return true
}
