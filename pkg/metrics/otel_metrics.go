package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics 行程监控指标集合
type OTelMetrics struct {
	// 行程检查相关指标
	TripChecksTotal    metric.Int64Counter
	TripCheckDuration  metric.Float64Histogram
	MonitorTickDuration metric.Float64Histogram
	TripsEnqueuedTotal metric.Int64Counter

	// 规划服务相关指标
	PlannerRequestsTotal  metric.Int64Counter
	PlannerRequestDuration metric.Float64Histogram

	// 通知相关指标
	NotificationsSentTotal metric.Int64Counter
}

var (
	// 全局指标实例，未初始化时所有 Record* 函数都是 no-op
	metrics *OTelMetrics

	meter = otel.Meter("tripwatch")
)

// InitMetrics 初始化 OpenTelemetry 指标
func InitMetrics() error {
	var err error

	m := &OTelMetrics{}

	m.TripChecksTotal, err = meter.Int64Counter(
		"trip_checks_total",
		metric.WithDescription("Total number of monitored trip checks"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return err
	}

	m.TripCheckDuration, err = meter.Float64Histogram(
		"trip_check_duration_seconds",
		metric.WithDescription("Time spent checking a single monitored trip"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.MonitorTickDuration, err = meter.Float64Histogram(
		"monitor_tick_duration_seconds",
		metric.WithDescription("Duration of one monitor-all-trips tick"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return err
	}

	m.TripsEnqueuedTotal, err = meter.Int64Counter(
		"trips_enqueued_total",
		metric.WithDescription("Total number of trip ids fanned out to workers"),
		metric.WithUnit("{trip}"),
	)
	if err != nil {
		return err
	}

	m.PlannerRequestsTotal, err = meter.Int64Counter(
		"planner_requests_total",
		metric.WithDescription("Total number of trip planner requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.PlannerRequestDuration, err = meter.Float64Histogram(
		"planner_request_duration_seconds",
		metric.WithDescription("Trip planner request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	m.NotificationsSentTotal, err = meter.Int64Counter(
		"notifications_sent_total",
		metric.WithDescription("Total number of trip monitor notifications sent"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return err
	}

	metrics = m
	return nil
}

// RecordTripCheck 记录一次行程检查，result 取 skipped / checked / error
func RecordTripCheck(ctx context.Context, result string, seconds float64) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	metrics.TripChecksTotal.Add(ctx, 1, attrs)
	metrics.TripCheckDuration.Record(ctx, seconds, attrs)
}

// RecordMonitorTick 记录一次完整的调度扫描
func RecordMonitorTick(ctx context.Context, enqueued int, seconds float64) {
	if metrics == nil {
		return
	}
	metrics.MonitorTickDuration.Record(ctx, seconds)
	metrics.TripsEnqueuedTotal.Add(ctx, int64(enqueued))
}

// RecordPlannerRequest 记录一次规划服务调用
func RecordPlannerRequest(ctx context.Context, outcome string, seconds float64) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	metrics.PlannerRequestsTotal.Add(ctx, 1, attrs)
	metrics.PlannerRequestDuration.Record(ctx, seconds, attrs)
}

// RecordNotificationSent 记录一次通知投递，channel 取 email / sms
func RecordNotificationSent(ctx context.Context, channel string, count int) {
	if metrics == nil {
		return
	}
	metrics.NotificationsSentTotal.Add(ctx, int64(count),
		metric.WithAttributes(attribute.String("channel", channel)))
}
