package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/common/metrics"
	"github.com/FrotaLink/FrotaLink/internal/live"
	"github.com/FrotaLink/FrotaLink/internal/vehicle"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VehicleStore 上报流程需要的车辆能力。
type VehicleStore interface {
	FindByID(ctx context.Context, id string) (*vehicle.Vehicle, error)
	ApplySnapshot(ctx context.Context, id string, snapshot datatypes.JSON, at time.Time, distanceKM float64) error
}

// Service 遥测上报与查询。
type Service struct {
	repo      *Repo
	vehicles  VehicleStore
	engine    *AlertEngine
	publisher live.Publisher
	log       logger.Logger
}

func NewService(repo *Repo, vehicles VehicleStore, cfg config.TelemetryConfig, publisher live.Publisher, log logger.Logger) *Service {
	if publisher == nil {
		publisher = live.NopPublisher{}
	}
	return &Service{
		repo:      repo,
		vehicles:  vehicles,
		engine:    NewAlertEngine(cfg),
		publisher: publisher,
		log:       log,
	}
}

func validateSample(s Sample) []string {
	var fields []string
	if s.SpeedKMH < 0 || s.SpeedKMH > 500 {
		fields = append(fields, "speed_kmh: must be between 0 and 500")
	}
	if s.RPM < 0 || s.RPM > 20000 {
		fields = append(fields, "rpm: must be between 0 and 20000")
	}
	if s.FuelLevelPct < 0 || s.FuelLevelPct > 100 {
		fields = append(fields, "fuel_level_pct: must be between 0 and 100")
	}
	if s.BatteryVoltage < 0 {
		fields = append(fields, "battery_voltage: must be non-negative")
	}
	if s.DTCCount < 0 {
		fields = append(fields, "dtc_count: must be non-negative")
	}
	for i, a := range s.Alerts {
		switch a.Severity {
		case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		default:
			fields = append(fields, fmt.Sprintf("alerts[%d].severity: must be low/medium/high/critical", i))
		}
		if strings.TrimSpace(a.Type) == "" {
			fields = append(fields, fmt.Sprintf("alerts[%d].type: required", i))
		}
	}
	return fields
}

// snapshotDoc 写入 vehicles.snapshot 的最新状态投影。
type snapshotDoc struct {
	SpeedKMH       float64       `json:"speed_kmh"`
	RPM            float64       `json:"rpm"`
	CoolantTempC   float64       `json:"coolant_temp_c"`
	FuelLevelPct   float64       `json:"fuel_level_pct"`
	BatteryVoltage float64       `json:"battery_voltage"`
	MILOn          bool          `json:"mil_on"`
	DTCCount       int           `json:"dtc_count"`
	Alerts         []SystemAlert `json:"alerts,omitempty"`
	CapturedAt     time.Time     `json:"captured_at"`
}

// IngestResult 上报结果：读数标识与更新后的快照。
type IngestResult struct {
	Reading  *Reading
	Snapshot json.RawMessage
}

// Ingest 处理一次设备上报：
//  1. 定位车辆并归属当前绑定司机
//  2. 阈值评估生成告警
//  3. 读数先落库（落库成功即算接收成功）
//  4. 更新车辆快照 + 里程（瞬态失败有限重试，距离增量钳位非负）
//  5. 实时推送（失败只记日志，不影响返回）
func (s *Service) Ingest(ctx context.Context, vehicleID string, sample Sample) (*IngestResult, error) {
	if s == nil || s.repo == nil || s.vehicles == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if fields := validateSample(sample); len(fields) > 0 {
		metrics.IngestRejected.WithLabelValues("invalid").Inc()
		return nil, apperr.Invalid("invalid telemetry sample", fields...)
	}

	v, err := s.vehicles.FindByID(ctx, strings.TrimSpace(vehicleID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.IngestRejected.WithLabelValues("not_found").Inc()
			return nil, apperr.NotFound("vehicle not found")
		}
		return nil, fmt.Errorf("find vehicle: %w", err)
	}

	capturedAt := time.Now()
	if sample.CapturedAt != nil && !sample.CapturedAt.IsZero() {
		capturedAt = *sample.CapturedAt
	}

	alerts := s.engine.Evaluate(sample)

	faultJSON, err := json.Marshal(sample.FaultCodes)
	if err != nil {
		return nil, fmt.Errorf("marshal fault codes: %w", err)
	}
	alertJSON, err := json.Marshal(alerts)
	if err != nil {
		return nil, fmt.Errorf("marshal alerts: %w", err)
	}

	reading := &Reading{
		ID:             uuid.NewString(),
		VehicleID:      v.ID,
		CompanyID:      v.CompanyID,
		EmployeeID:     v.CurrentEmployeeID,
		SpeedKMH:       sample.SpeedKMH,
		RPM:            sample.RPM,
		CoolantTempC:   sample.CoolantTempC,
		FuelLevelPct:   sample.FuelLevelPct,
		BatteryVoltage: sample.BatteryVoltage,
		EfficiencyKMPL: sample.EfficiencyKMPL,
		DistanceKM:     sample.DistanceKM,
		MILOn:          sample.MILOn,
		DTCCount:       sample.DTCCount,
		FaultCodes:     datatypes.JSON(faultJSON),
		SystemAlerts:   datatypes.JSON(alertJSON),
		AlertCount:     len(alerts),
		CapturedAt:     capturedAt,
	}
	if err := s.repo.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("persist reading: %w", err)
	}
	metrics.ReadingsIngested.Inc()
	for _, a := range alerts {
		metrics.AlertsRaised.WithLabelValues(a.Type).Inc()
	}

	snapJSON, err := json.Marshal(snapshotDoc{
		SpeedKMH:       reading.SpeedKMH,
		RPM:            reading.RPM,
		CoolantTempC:   reading.CoolantTempC,
		FuelLevelPct:   reading.FuelLevelPct,
		BatteryVoltage: reading.BatteryVoltage,
		MILOn:          reading.MILOn,
		DTCCount:       reading.DTCCount,
		Alerts:         alerts,
		CapturedAt:     capturedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	// 读数已持久化，快照/推送失败不回滚上报
	s.applySnapshot(ctx, v, reading, snapJSON, capturedAt)

	return &IngestResult{Reading: reading, Snapshot: snapJSON}, nil
}

// applySnapshot 更新车辆快照并推送实时更新。
// 里程增量钳位非负；瞬态失败最多重试 3 次。
func (s *Service) applySnapshot(ctx context.Context, v *vehicle.Vehicle, reading *Reading, snapJSON []byte, capturedAt time.Time) {
	distance := reading.DistanceKM
	if distance < 0 {
		distance = 0
	}

	var applyErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			metrics.SnapshotRetries.Inc()
			time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
		}
		applyErr = s.vehicles.ApplySnapshot(ctx, v.ID, datatypes.JSON(snapJSON), capturedAt, distance)
		if applyErr == nil || !apperr.IsTransient(applyErr) {
			break
		}
	}
	if applyErr != nil {
		if s.log != nil {
			s.log.Errorf("snapshot update failed vehicle_id=%s err=%v", v.ID, applyErr)
		}
		return
	}

	s.publisher.Publish(ctx, live.VehicleUpdate{
		VehicleID:  v.ID,
		CompanyID:  v.CompanyID,
		EmployeeID: v.CurrentEmployeeID,
		Snapshot:   json.RawMessage(snapJSON),
		OdometerKM: v.OdometerKM + distance,
		CapturedAt: capturedAt,
	})
}

// normalizeWindow 查询窗口归一化：窗口为 [from, to+1天)，
// 对齐“to 当天全天包含在内”的语义。缺省 from 取零值、to 取今天。
func normalizeWindow(from, to *time.Time) (time.Time, time.Time, error) {
	var lo time.Time
	hi := time.Now().AddDate(0, 0, 1)
	if from != nil && !from.IsZero() {
		lo = *from
	}
	if to != nil && !to.IsZero() {
		hi = to.AddDate(0, 0, 1)
	}
	if !lo.IsZero() && hi.Before(lo) {
		return lo, hi, apperr.Invalid("invalid time window", "to: must not be before from")
	}
	return lo, hi, nil
}

// Page 分页结果元信息。
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func pageOf(page, limit int, total int64) Page {
	tp := int((total + int64(limit) - 1) / int64(limit))
	return Page{Page: page, Limit: limit, Total: total, TotalPages: tp}
}

// History 车辆历史读数，按采样时间倒序分页。
func (s *Service) History(ctx context.Context, vehicleID string, from, to *time.Time, page, limit int) ([]Reading, Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	lo, hi, err := normalizeWindow(from, to)
	if err != nil {
		return nil, Page{}, err
	}
	items, total, err := s.repo.History(ctx, strings.TrimSpace(vehicleID), lo, hi, (page-1)*limit, limit)
	if err != nil {
		return nil, Page{}, err
	}
	return items, pageOf(page, limit, total), nil
}

// ExpandAlerts 把一条读数展开成统一告警行：
// 快照内存储的告警逐条一行（DTCOrigin=false），
// 故障码计数大于 0 时追加恰好一行派生告警（DTCOrigin=true，携带故障码列表）。
// 每行都带上读数的采样时间与归属司机。
func ExpandAlerts(r *Reading) []Alert {
	var out []Alert

	var stored []SystemAlert
	if len(r.SystemAlerts) > 0 {
		_ = json.Unmarshal(r.SystemAlerts, &stored)
	}
	for _, a := range stored {
		out = append(out, Alert{
			VehicleID:  r.VehicleID,
			ReadingID:  r.ID,
			EmployeeID: r.EmployeeID,
			Type:       a.Type,
			Message:    a.Message,
			Severity:   a.Severity,
			DTCOrigin:  false,
			CapturedAt: r.CapturedAt,
		})
	}
	if derived, ok := DeriveDTCAlert(r.DTCCount); ok {
		var codes []FaultCode
		if len(r.FaultCodes) > 0 {
			_ = json.Unmarshal(r.FaultCodes, &codes)
		}
		out = append(out, Alert{
			VehicleID:  r.VehicleID,
			ReadingID:  r.ID,
			EmployeeID: r.EmployeeID,
			Type:       derived.Type,
			Message:    derived.Message,
			Severity:   derived.Severity,
			DTCOrigin:  true,
			FaultCodes: codes,
			CapturedAt: r.CapturedAt,
		})
	}
	return out
}

// Alerts 车辆窗口内的统一告警列表。展开后再按级别/类型过滤、分页。
func (s *Service) Alerts(ctx context.Context, vehicleID string, from, to *time.Time, severity, alertType string, page, limit int) ([]Alert, Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	lo, hi, err := normalizeWindow(from, to)
	if err != nil {
		return nil, Page{}, err
	}
	readings, err := s.repo.AlertReadings(ctx, strings.TrimSpace(vehicleID), lo, hi)
	if err != nil {
		return nil, Page{}, err
	}

	var all []Alert
	for i := range readings {
		for _, a := range ExpandAlerts(&readings[i]) {
			if severity != "" && a.Severity != severity {
				continue
			}
			if alertType != "" && a.Type != alertType {
				continue
			}
			all = append(all, a)
		}
	}

	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	items := all[start:end]
	if items == nil {
		items = []Alert{}
	}
	return items, pageOf(page, limit, total), nil
}
