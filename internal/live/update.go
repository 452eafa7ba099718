package live

import (
	"context"
	"encoding/json"
	"time"
)

// VehicleUpdate 一次遥测上报后的实时推送载荷。
type VehicleUpdate struct {
	VehicleID  string          `json:"vehicle_id"`
	CompanyID  string          `json:"company_id"`
	EmployeeID *string         `json:"employee_id,omitempty"`
	Snapshot   json.RawMessage `json:"snapshot"`
	OdometerKM float64         `json:"odometer_km"`
	CapturedAt time.Time       `json:"captured_at"`

	// Origin 标记产生更新的实例，跨实例转发时用于去掉回声。
	Origin string `json:"origin,omitempty"`
}

// Publisher 实时推送出口。实现必须非阻塞且不向上抛错：
// 推送失败不允许影响上报主路径。
type Publisher interface {
	Publish(ctx context.Context, u VehicleUpdate)
}

// NopPublisher 空实现，未启用实时推送时使用。
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, VehicleUpdate) {}
