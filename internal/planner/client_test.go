package planner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestPlanParsesItineraries(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"plan": {
				"itineraries": [{
					"startTime": 1767340800000,
					"endTime": 1767342600000,
					"duration": 1800,
					"legs": [{
						"mode": "BUS",
						"fromStopId": "stop:A",
						"toStopId": "stop:B",
						"routeId": "route:5",
						"transitLeg": true,
						"startTime": 1767340800000,
						"endTime": 1767342600000
					}]
				}]
			}
		}`))
	})

	c := NewClient(srv.URL, 5*time.Second, nil)
	resp, err := c.Plan(context.Background(), map[string]string{
		"fromPlace": "stop:A",
		"date":      "2026-03-02",
	})
	require.NoError(t, err)

	require.Equal(t, "/plan", gotPath)
	require.Equal(t, []string{"stop:A"}, gotQuery["fromPlace"])
	require.Equal(t, []string{"2026-03-02"}, gotQuery["date"])

	require.Len(t, resp.Plan.Itineraries, 1)
	itin := resp.Plan.Itineraries[0]
	require.Len(t, itin.Legs, 1)
	require.Equal(t, "route:5", itin.Legs[0].RouteID)
	require.True(t, itin.Legs[0].TransitLeg)
}

func TestPlanRejectsNon2xxStatus(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	c := NewClient(srv.URL, 5*time.Second, nil)
	_, err := c.Plan(context.Background(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestPlanRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plan": [not json`))
	})

	c := NewClient(srv.URL, 5*time.Second, nil)
	_, err := c.Plan(context.Background(), nil)
	require.Error(t, err)
}

func TestPlanSurfacesPlannerError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"id": 404, "msg": "no trip found"}}`))
	})

	c := NewClient(srv.URL, 5*time.Second, nil)
	_, err := c.Plan(context.Background(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no trip found")
}

func TestPlanRejectsBodyWithoutPlan(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	c := NewClient(srv.URL, 5*time.Second, nil)
	_, err := c.Plan(context.Background(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing plan")
}
