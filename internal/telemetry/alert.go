package telemetry

import (
	"fmt"

	"github.com/FrotaLink/FrotaLink/internal/common/config"
)

// 告警类型。
const (
	AlertSpeeding       = "speeding"
	AlertOverheat       = "engine_overheat"
	AlertLowFuel        = "low_fuel"
	AlertLowBattery     = "low_battery"
	AlertEngineFaultDTC = "engine_fault_dtc"
)

// 告警级别。
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// AlertEngine 按配置阈值评估采样并生成告警。
type AlertEngine struct {
	cfg config.TelemetryConfig
}

func NewAlertEngine(cfg config.TelemetryConfig) *AlertEngine {
	return &AlertEngine{cfg: cfg}
}

// Evaluate 对一次采样生成阈值告警，追加在设备自带告警之后。
// 设备已上报同类型告警时不再重复生成；
// DTC 告警不在这里落库，统一在查询侧由 DeriveDTCAlert 派生。
func (e *AlertEngine) Evaluate(s Sample) []SystemAlert {
	var out []SystemAlert
	out = append(out, s.Alerts...)

	seen := make(map[string]struct{}, len(s.Alerts))
	for _, a := range s.Alerts {
		seen[a.Type] = struct{}{}
	}
	add := func(a SystemAlert) {
		if _, ok := seen[a.Type]; ok {
			return
		}
		seen[a.Type] = struct{}{}
		out = append(out, a)
	}

	if e.cfg.MaxSpeedKMH > 0 && s.SpeedKMH > e.cfg.MaxSpeedKMH {
		add(SystemAlert{
			Type:     AlertSpeeding,
			Message:  fmt.Sprintf("speed %.1f km/h exceeds limit %.1f km/h", s.SpeedKMH, e.cfg.MaxSpeedKMH),
			Severity: SeverityMedium,
		})
	}
	if e.cfg.MaxCoolantTempC > 0 && s.CoolantTempC > e.cfg.MaxCoolantTempC {
		add(SystemAlert{
			Type:     AlertOverheat,
			Message:  fmt.Sprintf("coolant temperature %.1f°C exceeds %.1f°C", s.CoolantTempC, e.cfg.MaxCoolantTempC),
			Severity: SeverityHigh,
		})
	}
	if e.cfg.MinFuelLevelPct > 0 && s.FuelLevelPct > 0 && s.FuelLevelPct < e.cfg.MinFuelLevelPct {
		add(SystemAlert{
			Type:     AlertLowFuel,
			Message:  fmt.Sprintf("fuel level %.1f%% below %.1f%%", s.FuelLevelPct, e.cfg.MinFuelLevelPct),
			Severity: SeverityLow,
		})
	}
	if e.cfg.MinBatteryVoltage > 0 && s.BatteryVoltage > 0 && s.BatteryVoltage < e.cfg.MinBatteryVoltage {
		add(SystemAlert{
			Type:     AlertLowBattery,
			Message:  fmt.Sprintf("battery voltage %.2fV below %.2fV", s.BatteryVoltage, e.cfg.MinBatteryVoltage),
			Severity: SeverityMedium,
		})
	}
	return out
}

// DeriveDTCAlert 故障码计数大于 0 时派生恰好一条高级别告警。
// 读数本身不存这条告警，保证读数入库后不可变。
func DeriveDTCAlert(dtcCount int) (SystemAlert, bool) {
	if dtcCount <= 0 {
		return SystemAlert{}, false
	}
	return SystemAlert{
		Type:     AlertEngineFaultDTC,
		Message:  fmt.Sprintf("engine fault: %d diagnostic trouble code(s) reported", dtcCount),
		Severity: SeverityHigh,
	}, true
}
