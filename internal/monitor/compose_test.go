package monitor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TripWatch/internal/model"
)

func TestComposeDelayNotification(t *testing.T) {
	cases := []struct {
		name      string
		direction string
		deviation int64
		want      string
	}{
		{"late", "depart", 20, "Your trip is now predicted to depart 20 minutes late (at 08:50)."},
		{"early", "arrive", -5, "Your trip is now predicted to arrive 5 minutes early (at 08:50)."},
		{"on time", "depart", 0, "Your trip is now predicted to depart about on time (at 08:50)."},
		{"one minute counts as on time", "depart", 1, "Your trip is now predicted to depart about on time (at 08:50)."},
		{"minus one minute counts as on time", "arrive", -1, "Your trip is now predicted to arrive about on time (at 08:50)."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := ComposeDelayNotification(tc.direction, tc.deviation, "08:50")
			require.Equal(t, model.NotifyDelay, n.Type)
			require.Equal(t, tc.want, n.Body)
			require.NotEmpty(t, n.ShortBody)
		})
	}
}

func TestComposeAlertsNotification(t *testing.T) {
	alertA := model.LocalizedAlert{HeaderText: "Route detour", DescriptionText: "Route 5 is on detour via Main St"}
	alertB := model.LocalizedAlert{HeaderText: "Elevator outage", DescriptionText: "Elevator at Central is out of service"}

	t.Run("no changes yields nothing", func(t *testing.T) {
		_, ok := ComposeAlertsNotification(nil, nil)
		require.False(t, ok)
	})

	t.Run("new and resolved are listed separately", func(t *testing.T) {
		n, ok := ComposeAlertsNotification(
			[]model.LocalizedAlert{alertA},
			[]model.LocalizedAlert{alertB},
		)
		require.True(t, ok)
		require.Equal(t, model.NotifyAlerts, n.Type)
		require.Contains(t, n.Body, "New alerts found on your trip:")
		require.Contains(t, n.Body, alertA.DescriptionText)
		require.Contains(t, n.Body, "Resolved alerts:")
		require.Contains(t, n.Body, alertB.DescriptionText)
	})

	t.Run("all resolved composes a distinct all clear", func(t *testing.T) {
		n, ok := ComposeAlertsNotification(nil, []model.LocalizedAlert{alertA, alertB})
		require.True(t, ok)
		require.Contains(t, n.Body, "All clear!")
		require.Contains(t, n.Body, alertA.DescriptionText)
		require.Contains(t, n.ShortBody, "resolved")
	})

	t.Run("header text is the fallback", func(t *testing.T) {
		bare := model.LocalizedAlert{HeaderText: "Short notice"}
		n, ok := ComposeAlertsNotification([]model.LocalizedAlert{bare}, nil)
		require.True(t, ok)
		require.Contains(t, n.Body, "Short notice")
	})
}

func TestComposeNotFoundNotification(t *testing.T) {
	n := ComposeNotFoundNotification(true)
	require.Equal(t, model.NotifyItineraryNotFound, n.Type)
	require.Contains(t, n.Body, "another day")

	n = ComposeNotFoundNotification(false)
	require.Contains(t, n.Body, "no longer possible")
	require.Contains(t, n.Body, "save a new trip")
}
