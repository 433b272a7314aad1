package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	otelapi "go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"TripWatch/config"
	"TripWatch/internal/cache"
	"TripWatch/internal/handler"
	"TripWatch/internal/lock"
	"TripWatch/internal/middleware"
	"TripWatch/internal/monitor"
	"TripWatch/internal/notify"
	"TripWatch/internal/planner"
	"TripWatch/internal/repository"
	"TripWatch/internal/router"
	"TripWatch/internal/service"
	"TripWatch/pkg/clock"
	"TripWatch/pkg/email"
	"TripWatch/pkg/logger"
	"TripWatch/pkg/metrics"
	"TripWatch/pkg/otel"
	"TripWatch/pkg/sms"
	"TripWatch/pkg/snowflake"
	"TripWatch/storage"
	"TripWatch/storage/database"
)

// 监控循环和 HTTP 服务跑在同一个进程里，
// 两条路径共享同一个行程锁表，拆开部署会失去互斥保证
func main() {
	// 日志部分
	logger.Init()
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := snowflake.Init(config.Cfg.SnowflakeMachineID, config.Cfg.SnowflakeDataCenter); err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	// 初始化短信与邮件客户端，失败只降级不退出
	var smsClient sms.Client
	if err := sms.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize SMS client", zap.Error(err))
		logger.Logger.Info("SMS notifications will be disabled")
	} else {
		smsClient = sms.GetClient()
	}

	var emailClient email.Client
	if err := email.Init(); err != nil {
		logger.Logger.Warn("Failed to initialize email client", zap.Error(err))
		logger.Logger.Info("Email notifications will be disabled")
	} else {
		emailClient = email.GetClient()
	}

	// 链路追踪与指标
	var (
		tracerOpts []hertzconfig.Option
		tracingMW  app.HandlerFunc
	)
	if config.Cfg.TracingEnabled {
		shutdown, err := otel.InitOpenTelemetry(ctx, otel.Config{
			ServiceName:    config.Cfg.ServiceName,
			ServiceVersion: "1.0.0",
			Environment:    config.Cfg.Environment,
			OTLPEndpoint:   config.Cfg.TracingEndpoint,
		})
		if err != nil {
			logger.Logger.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
				}
			}()
			if err := metrics.InitMetrics(); err != nil {
				logger.Logger.Warn("Failed to initialize metrics", zap.Error(err))
			}
			if err := middleware.InitHTTPMetrics(otelapi.Meter("tripwatch-http")); err != nil {
				logger.Logger.Warn("Failed to initialize HTTP metrics", zap.Error(err))
			}
			tracerOpt, mw := middleware.NewServerTracerConfig()
			tracerOpts = append(tracerOpts, tracerOpt)
			tracingMW = mw
		}
	}

	// 组装监控组件
	trips := repository.NewTripRepository(database.DB())
	users := repository.NewUserRepository(database.DB())
	locks := lock.NewRegistry()

	planCache := cache.NewPlanCache(time.Duration(config.Cfg.PlannerCacheTTLSeconds) * time.Second)
	plannerClient := planner.NewClient(
		config.Cfg.PlannerBaseURL,
		time.Duration(config.Cfg.PlannerTimeoutSeconds)*time.Second,
		planCache,
	)

	notifier := notify.NewNotifier(
		smsClient, emailClient,
		config.Cfg.SMSSignName, config.Cfg.SMSTemplateCode,
	)

	engine := monitor.NewEngine(trips, users, plannerClient, notifier, clock.Real())
	scheduler := monitor.NewScheduler(
		trips, engine, locks,
		config.Cfg.MonitorWorkers,
		time.Duration(config.Cfg.MonitorEnqueueWaitSeconds)*time.Second,
	)

	go scheduler.Start(ctx, time.Duration(config.Cfg.MonitorIntervalSeconds)*time.Second)

	// 前台服务
	tripService := service.NewTripService(trips, users, locks,
		time.Duration(config.Cfg.TripUpdateLockWaitSeconds)*time.Second)
	userService := service.NewUserService(users)

	logger.Logger.Info("Server starting",
		zap.String("service", config.Cfg.ServiceName),
		zap.String("port", config.Cfg.ServerPort),
		zap.String("environment", config.Cfg.Environment),
	)

	addr := net.JoinHostPort(config.Cfg.ServerHost, config.Cfg.ServerPort)
	serverOpts := append([]hertzconfig.Option{server.WithHostPorts(addr)}, tracerOpts...)
	h := server.Default(serverOpts...)
	if tracingMW != nil {
		h.Use(tracingMW)
	}

	router.Register(h, handler.NewTripHandler(tripService), handler.NewUserHandler(userService))

	// 优雅关闭：在单独的 goroutine 中监听关闭信号并调用 Shutdown
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("addr", addr))

	h.Spin()

	logger.Logger.Info("Server shutting down gracefully")
}
