package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/common/db"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/common/server"
	"github.com/FrotaLink/FrotaLink/internal/common/tracing"
	"github.com/FrotaLink/FrotaLink/internal/company"
	"github.com/FrotaLink/FrotaLink/internal/employee"
	"github.com/FrotaLink/FrotaLink/internal/live"
	"github.com/FrotaLink/FrotaLink/internal/telemetry"
	"github.com/FrotaLink/FrotaLink/internal/vehicle"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	configPath = flag.String("config", "configs/telemetry-service.json", "配置文件路径")
)

func main() {
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(
		cfg.Server.Name,
		cfg.Jaeger.Endpoint,
		cfg.Jaeger.Sampler,
	)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化数据库
	gormDB, err := db.NewMySQL(
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Password, cfg.Database.Database,
		cfg.Database.MaxIdle, cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	if err := gormDB.AutoMigrate(
		&company.Company{},
		&employee.Employee{},
		&vehicle.Vehicle{},
		&telemetry.Reading{},
	); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 实时推送出口：本地 WebSocket 房间 + Redis 快照/跨实例转发 + RabbitMQ（可选）
	instanceID := cfg.Server.Name + "-" + uuid.NewString()[:8]

	hub := live.NewHub(log)
	go hub.Run(ctx)

	sinks := []live.Publisher{hub}

	var cache *live.SnapshotCache
	if cfg.Redis.Host != "" {
		rdb := live.NewRedisClient(cfg.Redis)
		cache = live.NewSnapshotCache(rdb, time.Duration(cfg.Telemetry.SnapshotTTLSec)*time.Second, log)
		sinks = append(sinks, cache)
		go cache.Relay(ctx, hub, instanceID)
	}

	if cfg.RabbitMQ.Host != "" {
		events, err := live.NewEventPublisher(cfg.RabbitMQ, log)
		if err != nil {
			log.Warnf("rabbitmq disabled: %v", err)
		} else {
			defer events.Close()
			sinks = append(sinks, events)
		}
	}

	publisher := live.NewFanout(instanceID, sinks...)

	// 组装业务
	vehicleRepo := vehicle.NewRepo(gormDB)
	companyRepo := company.NewRepo(gormDB)
	vehicleSvc := vehicle.NewService(vehicleRepo, companyRepo)

	readingRepo := telemetry.NewRepo(gormDB)
	telemetrySvc := telemetry.NewService(readingRepo, vehicleRepo, cfg.Telemetry, publisher, log)

	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) {
		telemetry.NewHandler(telemetrySvc, cfg.Telemetry, log).RegisterRoutes(r)
		live.NewHandler(hub, vehicleSvc, log).RegisterRoutes(r)
	}); err != nil {
		log.Fatalf("telemetry-service exited with error: %v", err)
	}
}
