package vehicle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
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

func (r *Repo) Create(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(v).Error
}

func (r *Repo) Update(ctx context.Context, v *Vehicle) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(v).Error
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var v Vehicle
	if err := db.Where("id = ?", id).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// FindByPlate 按归一化车牌查找；excludeID 非空时排除自身（更新查重用）。
func (r *Repo) FindByPlate(ctx context.Context, plate, excludeID string) (*Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	q := db.Where("plate = ?", plate)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var v Vehicle
	if err := q.First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// List 按公司/状态过滤 + 分页。
func (r *Repo) List(ctx context.Context, companyID string, status Status, offset, limit int) ([]Vehicle, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	q := db.Model(&Vehicle{})
	if companyID != "" {
		q = q.Where("company_id = ?", companyID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var vehicles []Vehicle
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&vehicles).Error; err != nil {
		return nil, 0, err
	}
	return vehicles, total, nil
}

// IDsByCompany 公司名下全部车辆 ID（统计用）。
func (r *Repo) IDsByCompany(ctx context.Context, companyID string) ([]string, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var ids []string
	if err := db.Model(&Vehicle{}).Where("company_id = ?", companyID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindByIDs 批量读取（统计结果标注车牌/品牌用）。
func (r *Repo) FindByIDs(ctx context.Context, ids []string) ([]Vehicle, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	var vehicles []Vehicle
	if err := db.Where("id IN ?", ids).Find(&vehicles).Error; err != nil {
		return nil, err
	}
	return vehicles, nil
}

// ApplySnapshot 以单条 UPDATE 原子更新快照 + 里程累加。
// 里程增量在调用前已钳位为非负，累计值只增不减。
func (r *Repo) ApplySnapshot(ctx context.Context, id string, snapshot datatypes.JSON, at time.Time, distanceKM float64) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	res := db.Model(&Vehicle{}).Where("id = ?", id).Updates(map[string]interface{}{
		"snapshot":    snapshot,
		"snapshot_at": at,
		"odometer_km": gorm.Expr("odometer_km + ?", distanceKM),
	})
	if res.Error != nil {
		// 超时/连接类故障标记为可重试，入库侧按 Transient 退避重试
		return storage.WrapTransient("apply snapshot", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Delete(&Vehicle{}, "id = ?", id).Error
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
