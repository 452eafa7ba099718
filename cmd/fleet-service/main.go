package main

import (
	"flag"
	"fmt"

	"github.com/FrotaLink/FrotaLink/internal/binding"
	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/common/db"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/common/server"
	"github.com/FrotaLink/FrotaLink/internal/common/tracing"
	"github.com/FrotaLink/FrotaLink/internal/company"
	"github.com/FrotaLink/FrotaLink/internal/employee"
	"github.com/FrotaLink/FrotaLink/internal/stats"
	"github.com/FrotaLink/FrotaLink/internal/telemetry"
	"github.com/FrotaLink/FrotaLink/internal/vehicle"
	"github.com/gin-gonic/gin"
)

var (
	configPath = flag.String("config", "configs/fleet-service.json", "配置文件路径")
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

	// 组装业务
	companyRepo := company.NewRepo(gormDB)
	companySvc := company.NewService(companyRepo)

	employeeRepo := employee.NewRepo(gormDB)
	employeeSvc := employee.NewService(employeeRepo, companyRepo, cfg.Auth)

	vehicleRepo := vehicle.NewRepo(gormDB)
	vehicleSvc := vehicle.NewService(vehicleRepo, companyRepo)

	bindingSvc := binding.NewService(gormDB, log)

	readingRepo := telemetry.NewRepo(gormDB)
	statsSvc := stats.NewService(readingRepo, vehicleRepo, cfg.Telemetry)

	if err := server.RunHTTPServer(cfg, log, func(r *gin.Engine) {
		company.NewHandler(companySvc).RegisterRoutes(r)
		employee.NewHandler(employeeSvc).RegisterRoutes(r)
		vehicle.NewHandler(vehicleSvc, log).RegisterRoutes(r)
		binding.NewHandler(bindingSvc).RegisterRoutes(r)
		stats.NewHandler(statsSvc).RegisterRoutes(r)
	}); err != nil {
		log.Fatalf("fleet-service exited with error: %v", err)
	}
}
