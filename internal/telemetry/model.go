package telemetry

import (
	"time"

	"gorm.io/datatypes"
)

// FaultCode 设备上报的 DTC 故障码。
type FaultCode struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"` // pending / confirmed / permanent
}

// SystemAlert 告警条目。上报时既承载设备自带的系统告警，
// 也承载入库时按阈值生成的告警。
type SystemAlert struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // low / medium / high / critical
}

// Alert 查询接口返回的统一告警行：每条告警一行，带所属读数的上下文。
// DTCOrigin 标记该行是否由故障码派生（而非快照里存储的告警）。
type Alert struct {
	VehicleID  string      `json:"vehicle_id"`
	ReadingID  string      `json:"reading_id"`
	EmployeeID *string     `json:"employee_id,omitempty"` // 采样时绑定的司机
	Type       string      `json:"type"`
	Message    string      `json:"message"`
	Severity   string      `json:"severity"`
	DTCOrigin  bool        `json:"dtc_origin"`
	FaultCodes []FaultCode `json:"fault_codes,omitempty"` // 仅故障码派生行携带
	CapturedAt time.Time   `json:"captured_at"`
}

// Sample 设备上报的一次 OBD 采样。
type Sample struct {
	SpeedKMH       float64       `json:"speed_kmh"`
	RPM            float64       `json:"rpm"`
	CoolantTempC   float64       `json:"coolant_temp_c"`
	FuelLevelPct   float64       `json:"fuel_level_pct"`
	BatteryVoltage float64       `json:"battery_voltage"`
	EfficiencyKMPL float64       `json:"efficiency_kmpl"` // 瞬时油耗效率 km/L
	DistanceKM     float64       `json:"distance_km"`     // 自上次上报以来的行驶距离
	MILOn          bool          `json:"mil_on"`
	DTCCount       int           `json:"dtc_count"`
	FaultCodes     []FaultCode   `json:"fault_codes"`
	Alerts         []SystemAlert `json:"alerts"`
	CapturedAt     *time.Time    `json:"captured_at"` // 缺省取服务端时间
}

// Reading 是 readings 表的 GORM 模型。入库后不可变；
// alert_count 冗余列用于 SQL 侧过滤告警读数。
type Reading struct {
	ID         string  `gorm:"primaryKey;size:36"`
	VehicleID  string  `gorm:"index:idx_readings_vehicle_time,priority:1;size:36;not null"`
	CompanyID  string  `gorm:"index;size:36;not null"`
	EmployeeID *string `gorm:"size:36"` // 采样时绑定的司机，未绑定为 NULL

	SpeedKMH       float64
	RPM            float64
	CoolantTempC   float64
	FuelLevelPct   float64
	BatteryVoltage float64
	EfficiencyKMPL float64
	DistanceKM     float64

	MILOn      bool `gorm:"not null;default:false"`
	DTCCount   int  `gorm:"not null;default:0"`
	FaultCodes datatypes.JSON

	// 快照里存储的告警（设备系统告警 + 入库阈值告警）
	SystemAlerts datatypes.JSON
	AlertCount   int `gorm:"not null;default:0"`

	CapturedAt time.Time `gorm:"index:idx_readings_vehicle_time,priority:2;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}
