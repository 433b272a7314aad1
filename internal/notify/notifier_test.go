package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"TripWatch/internal/model"
)

type recordingEmail struct {
	to      string
	subject string
	body    string
	err     error
	calls   int
}

func (e *recordingEmail) Send(ctx context.Context, to, subject, body string) error {
	e.calls++
	e.to = to
	e.subject = subject
	e.body = body
	return e.err
}

type recordingSMS struct {
	phone         string
	templateParam string
	err           error
	calls         int
}

func (s *recordingSMS) SendSingle(ctx context.Context, phone, signName, templateCode, templateParam string) error {
	s.calls++
	s.phone = phone
	s.templateParam = templateParam
	return s.err
}

func testUser(channel model.NotificationChannel) *model.User {
	return &model.User{
		Email:               "rider@example.com",
		Phone:               "13800000000",
		NotificationChannel: channel,
	}
}

var testNotifications = []model.TripMonitorNotification{
	{Type: model.NotifyDelay, Body: "Your trip is now predicted to depart 20 minutes late (at 08:50).", ShortBody: "depart 20 min late"},
	{Type: model.NotifyDelay, Body: "Your trip is now predicted to arrive 20 minutes late (at 09:20).", ShortBody: "arrive 20 min late"},
}

func TestNotifyEmailChannel(t *testing.T) {
	em := &recordingEmail{}
	sm := &recordingSMS{}
	n := NewNotifier(sm, em, "TripWatch", "SMS_001")

	trip := &model.MonitoredTrip{TripName: "Morning commute"}
	ok := n.Notify(context.Background(), testUser(model.ChannelEmail), trip, testNotifications)

	require.True(t, ok)
	require.Equal(t, 1, em.calls)
	require.Equal(t, 0, sm.calls)
	require.Equal(t, "rider@example.com", em.to)
	require.Equal(t, "TripWatch notice: Morning commute", em.subject)
	require.Contains(t, em.body, "depart 20 minutes late")
	require.Contains(t, em.body, "arrive 20 minutes late")
}

func TestNotifySMSChannelUsesShortBodies(t *testing.T) {
	em := &recordingEmail{}
	sm := &recordingSMS{}
	n := NewNotifier(sm, em, "TripWatch", "SMS_001")

	trip := &model.MonitoredTrip{TripName: "Morning commute"}
	ok := n.Notify(context.Background(), testUser(model.ChannelSMS), trip, testNotifications)

	require.True(t, ok)
	require.Equal(t, 0, em.calls)
	require.Equal(t, 1, sm.calls)
	require.Equal(t, "13800000000", sm.phone)
	require.Contains(t, sm.templateParam, "Morning commute")
	require.Contains(t, sm.templateParam, "depart 20 min late / arrive 20 min late")
}

func TestNotifyAllChannelSucceedsWhenOneDelivers(t *testing.T) {
	em := &recordingEmail{err: errors.New("smtp down")}
	sm := &recordingSMS{}
	n := NewNotifier(sm, em, "TripWatch", "SMS_001")

	ok := n.Notify(context.Background(), testUser(model.ChannelAll), &model.MonitoredTrip{}, testNotifications)

	require.True(t, ok)
	require.Equal(t, 1, em.calls)
	require.Equal(t, 1, sm.calls)
}

func TestNotifyReportsFailureWhenAllChannelsFail(t *testing.T) {
	em := &recordingEmail{err: errors.New("smtp down")}
	sm := &recordingSMS{err: errors.New("gateway down")}
	n := NewNotifier(sm, em, "TripWatch", "SMS_001")

	ok := n.Notify(context.Background(), testUser(model.ChannelAll), &model.MonitoredTrip{}, testNotifications)
	require.False(t, ok)
}

func TestNotifySkipsNoneChannelAndEmptyBatch(t *testing.T) {
	em := &recordingEmail{}
	sm := &recordingSMS{}
	n := NewNotifier(sm, em, "TripWatch", "SMS_001")

	require.False(t, n.Notify(context.Background(), testUser(model.ChannelNone), &model.MonitoredTrip{}, testNotifications))
	require.False(t, n.Notify(context.Background(), testUser(model.ChannelEmail), &model.MonitoredTrip{}, nil))
	require.False(t, n.Notify(context.Background(), nil, &model.MonitoredTrip{}, testNotifications))
	require.Equal(t, 0, em.calls)
	require.Equal(t, 0, sm.calls)
}

func TestNotifyDegradesWithoutClients(t *testing.T) {
	n := NewNotifier(nil, nil, "", "")
	ok := n.Notify(context.Background(), testUser(model.ChannelAll), &model.MonitoredTrip{}, testNotifications)
	require.False(t, ok)
}
