package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	storage "github.com/FrotaLink/FrotaLink/internal/common/db"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, reading *Reading) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	// 读数写入是上报链路的第一步，瞬态失败让设备侧按 503 重试
	return storage.WrapTransient("create reading", db.Create(reading).Error)
}

// History 按采样时间倒序分页返回某辆车在窗口内的读数。
// 窗口为 [from, to)，由上层归一化。
func (r *Repo) History(ctx context.Context, vehicleID string, from, to time.Time, offset, limit int) ([]Reading, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	q := db.Model(&Reading{}).
		Where("vehicle_id = ? AND captured_at >= ? AND captured_at < ?", vehicleID, from, to)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []Reading
	if err := q.Order("captured_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// AlertReadings 返回窗口内带告警来源的读数（倒序）：
// 存储告警或故障码命中即算。MIL 灯单独亮不展开成告警行，
// 只参与统计侧的告警读数计数。
func (r *Repo) AlertReadings(ctx context.Context, vehicleID string, from, to time.Time) ([]Reading, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var items []Reading
	err := db.
		Where("vehicle_id = ? AND captured_at >= ? AND captured_at < ?", vehicleID, from, to).
		Where("alert_count > 0 OR dtc_count > 0").
		Order("captured_at DESC").
		Find(&items).Error
	return items, err
}

// WindowByCompany 返回公司全部车辆在窗口内的读数，按车聚合交给统计层。
func (r *Repo) WindowByCompany(ctx context.Context, companyID string, from, to time.Time) ([]Reading, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var items []Reading
	err := db.
		Where("company_id = ? AND captured_at >= ? AND captured_at < ?", companyID, from, to).
		Order("captured_at ASC").
		Find(&items).Error
	return items, err
}

// CountAlerting 公司范围内 since 之后的告警读数条数。
func (r *Repo) CountAlerting(ctx context.Context, companyID string, since time.Time) (int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return 0, fmt.Errorf("repo db is nil")
	}
	var total int64
	err := db.Model(&Reading{}).
		Where("company_id = ? AND captured_at >= ?", companyID, since).
		Where("alert_count > 0 OR dtc_count > 0 OR mil_on = ?", true).
		Count(&total).Error
	return total, err
}

// LatestByVehicle 某辆车最近一条读数；没有返回 nil。
func (r *Repo) LatestByVehicle(ctx context.Context, vehicleID string) (*Reading, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var item Reading
	err := db.Where("vehicle_id = ?", vehicleID).
		Order("captured_at DESC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
