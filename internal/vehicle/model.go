package vehicle

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Status 车辆状态枚举（持久化为字符串）。
type Status string

const (
	StatusAvailable   Status = "available"   // 可用，未绑定司机
	StatusInUse       Status = "in_use"      // 已绑定司机
	StatusMaintenance Status = "maintenance" // 维保中
	StatusInactive    Status = "inactive"    // 停用
)

// allowTransition 管理侧允许的状态流转。
// in_use 只能由绑定/解绑流程进出，不允许通过普通更新设置。
var allowTransition = map[Status][]Status{
	StatusAvailable:   {StatusMaintenance, StatusInactive},
	StatusInUse:       {},
	StatusMaintenance: {StatusAvailable, StatusInactive},
	StatusInactive:    {StatusAvailable},
}

// CanTransition 判断 from -> to 是否允许（管理侧）。
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range allowTransition[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidStatus 是否为合法状态值。
func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusInUse, StatusMaintenance, StatusInactive:
		return true
	}
	return false
}

// platePattern 车牌格式：ABC-1234 或 ABC1D23。
var platePattern = regexp.MustCompile(`^[A-Z]{3}-?\d{1}[A-Z0-9]{1}\d{2}$`)

// NormalizePlate 车牌归一化：去空白、转大写。
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

// ValidPlate 校验归一化后的车牌。
func ValidPlate(plate string) bool {
	return platePattern.MatchString(plate)
}

// Vehicle 是 vehicles 表的 GORM 模型。
type Vehicle struct {
	ID      string `gorm:"primaryKey;size:36"`
	Plate   string `gorm:"uniqueIndex;size:16;not null"`
	Make    string `gorm:"size:64;not null"`
	Model   string `gorm:"size:64;not null"`
	Year    int    `gorm:"not null"`
	Color   string `gorm:"size:32"`
	Chassis string `gorm:"size:64"`

	Status    Status `gorm:"type:varchar(16);index;not null"`
	CompanyID string `gorm:"index;size:36;not null"`

	// 当前绑定的司机；稀疏唯一索引保证一辆车最多一名司机
	CurrentEmployeeID *string `gorm:"uniqueIndex;size:36"`

	// 累计里程，只增不减
	OdometerKM float64 `gorm:"not null;default:0"`

	// 最近一次遥测快照（只读投影，由上报流程维护）
	Snapshot   datatypes.JSON
	SnapshotAt *time.Time

	NextMaintenanceAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
