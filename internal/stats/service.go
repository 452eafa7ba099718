package stats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/telemetry"
	"github.com/FrotaLink/FrotaLink/internal/vehicle"
)

const topWorstConsumers = 5

// ReadingSource 统计所需的遥测读取能力。
type ReadingSource interface {
	WindowByCompany(ctx context.Context, companyID string, from, to time.Time) ([]telemetry.Reading, error)
	CountAlerting(ctx context.Context, companyID string, since time.Time) (int64, error)
}

// VehicleSource 统计所需的车辆读取能力。
type VehicleSource interface {
	IDsByCompany(ctx context.Context, companyID string) ([]string, error)
	FindByIDs(ctx context.Context, ids []string) ([]vehicle.Vehicle, error)
}

// Service 车队统计聚合。
type Service struct {
	readings ReadingSource
	vehicles VehicleSource
	cfg      config.TelemetryConfig
}

func NewService(readings ReadingSource, vehicles VehicleSource, cfg config.TelemetryConfig) *Service {
	return &Service{readings: readings, vehicles: vehicles, cfg: cfg}
}

// Dashboard 仪表盘响应。
type Dashboard struct {
	From           time.Time      `json:"from"`
	To             time.Time      `json:"to"`
	FleetSize      int            `json:"fleet_size"` // 公司名下车辆总数
	Totals         FleetTotals    `json:"totals"`     // 窗口内有数据的车辆汇总
	WorstConsumers []VehicleUsage `json:"worst_consumers"`
	AlertWindow    int            `json:"alert_window_days"`
	AlertingCount  int64          `json:"alerting_readings"`
}

// FleetStatistics 计算公司窗口内的车队统计。
// alertWindowDays <= 0 时回落到配置默认（缺省 30 天）。
func (s *Service) FleetStatistics(ctx context.Context, companyID string, from, to time.Time, alertWindowDays int) (*Dashboard, error) {
	if s == nil || s.readings == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, apperr.Invalid("invalid statistics request", "company_id: required")
	}
	if to.Before(from) {
		return nil, apperr.Invalid("invalid statistics request", "to: must not be before from")
	}
	if alertWindowDays <= 0 {
		alertWindowDays = s.cfg.AlertWindowDays
	}
	if alertWindowDays <= 0 {
		alertWindowDays = 30
	}

	fleetSize := 0
	if s.vehicles != nil {
		if ids, err := s.vehicles.IDsByCompany(ctx, companyID); err == nil {
			fleetSize = len(ids)
		}
	}

	readings, err := s.readings.WindowByCompany(ctx, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load readings: %w", err)
	}

	usage := Aggregate(readings)
	s.fillVehicleInfo(ctx, usage)

	since := time.Now().AddDate(0, 0, -alertWindowDays)
	alerting, err := s.readings.CountAlerting(ctx, companyID, since)
	if err != nil {
		return nil, fmt.Errorf("count alerting readings: %w", err)
	}

	return &Dashboard{
		From:           from,
		To:             to,
		FleetSize:      fleetSize,
		Totals:         Totals(usage),
		WorstConsumers: WorstConsumers(usage, topWorstConsumers),
		AlertWindow:    alertWindowDays,
		AlertingCount:  alerting,
	}, nil
}

// fillVehicleInfo 给汇总行补上车牌/品牌/型号；查不到就留空。
func (s *Service) fillVehicleInfo(ctx context.Context, usage map[string]*VehicleUsage) {
	if s.vehicles == nil || len(usage) == 0 {
		return
	}
	ids := make([]string, 0, len(usage))
	for id := range usage {
		ids = append(ids, id)
	}
	vehicles, err := s.vehicles.FindByIDs(ctx, ids)
	if err != nil {
		return
	}
	for i := range vehicles {
		v := &vehicles[i]
		if u, ok := usage[v.ID]; ok {
			u.Plate = v.Plate
			u.Make = v.Make
			u.Model = v.Model
		}
	}
}
