package binding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/employee"
	"github.com/FrotaLink/FrotaLink/internal/vehicle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service 车辆-司机绑定管理。
// 绑定是严格 1:1 关系：一辆车最多一名司机，一名司机最多一辆车。
// 两条记录在同一事务中加行锁更新，配合两侧的稀疏唯一索引兜底。
type Service struct {
	db  *gorm.DB
	log logger.Logger
}

func NewService(db *gorm.DB, log logger.Logger) *Service {
	return &Service{db: db, log: log}
}

// CheckBind 绑定前置条件（纯函数，便于单测）。
func CheckBind(v *vehicle.Vehicle, e *employee.Employee) error {
	if v == nil {
		return apperr.NotFound("vehicle not found")
	}
	if e == nil {
		return apperr.NotFound("employee not found")
	}
	if v.CompanyID != e.CompanyID {
		return apperr.Conflict("vehicle and employee belong to different companies")
	}
	if !e.Active {
		return apperr.Conflict("employee is inactive")
	}
	if e.CurrentVehicleID != nil {
		return apperr.Conflict("employee already bound to a vehicle")
	}
	if v.CurrentEmployeeID != nil {
		return apperr.Conflict("vehicle already bound to an employee")
	}
	if v.Status != vehicle.StatusAvailable {
		return apperr.Conflict(fmt.Sprintf("vehicle is not available (status=%s)", v.Status))
	}
	return nil
}

// CheckUnbind 解绑前置条件（纯函数）。
func CheckUnbind(v *vehicle.Vehicle) error {
	if v == nil {
		return apperr.NotFound("vehicle not found")
	}
	if v.CurrentEmployeeID == nil {
		return apperr.Conflict("vehicle is not bound to any employee")
	}
	return nil
}

// Bind 在一个事务里锁定并更新车辆与员工两条记录：
// vehicle.current_employee_id / employee.current_vehicle_id 同时落库，
// 车辆状态置为 in_use。任一前置条件不满足则整体回滚。
func (s *Service) Bind(ctx context.Context, companyID, vehicleID, employeeID string) (*vehicle.Vehicle, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	vehicleID = strings.TrimSpace(vehicleID)
	employeeID = strings.TrimSpace(employeeID)
	if vehicleID == "" || employeeID == "" {
		return nil, apperr.Invalid("invalid binding request", "vehicle_id and employee_id are required")
	}

	var bound vehicle.Vehicle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, e, err := lockPair(tx, vehicleID, employeeID)
		if err != nil {
			return err
		}
		if companyID != "" && v.CompanyID != companyID {
			return apperr.Forbidden("vehicle belongs to another company")
		}
		if err := CheckBind(v, e); err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&vehicle.Vehicle{}).
			Where("id = ?", v.ID).
			Updates(map[string]interface{}{
				"current_employee_id": e.ID,
				"status":              vehicle.StatusInUse,
				"updated_at":          now,
			}).Error; err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}
		if err := tx.Model(&employee.Employee{}).
			Where("id = ?", e.ID).
			Updates(map[string]interface{}{
				"current_vehicle_id": v.ID,
				"updated_at":         now,
			}).Error; err != nil {
			return fmt.Errorf("update employee: %w", err)
		}

		v.CurrentEmployeeID = &e.ID
		v.Status = vehicle.StatusInUse
		bound = *v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.log != nil {
		s.log.Infof("vehicle bound vehicle_id=%s employee_id=%s", vehicleID, employeeID)
	}
	return &bound, nil
}

// Unbind 解除绑定：清空两侧外键，车辆回到 available。
func (s *Service) Unbind(ctx context.Context, companyID, vehicleID string) (*vehicle.Vehicle, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	vehicleID = strings.TrimSpace(vehicleID)
	if vehicleID == "" {
		return nil, apperr.Invalid("invalid binding request", "vehicle_id is required")
	}

	var unbound vehicle.Vehicle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v vehicle.Vehicle
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", vehicleID).First(&v).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("vehicle not found")
			}
			return fmt.Errorf("lock vehicle: %w", err)
		}
		if companyID != "" && v.CompanyID != companyID {
			return apperr.Forbidden("vehicle belongs to another company")
		}
		if err := CheckUnbind(&v); err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&vehicle.Vehicle{}).
			Where("id = ?", v.ID).
			Updates(map[string]interface{}{
				"current_employee_id": nil,
				"status":              vehicle.StatusAvailable,
				"updated_at":          now,
			}).Error; err != nil {
			return fmt.Errorf("update vehicle: %w", err)
		}
		if err := tx.Model(&employee.Employee{}).
			Where("id = ?", *v.CurrentEmployeeID).
			Updates(map[string]interface{}{
				"current_vehicle_id": nil,
				"updated_at":         now,
			}).Error; err != nil {
			return fmt.Errorf("update employee: %w", err)
		}

		v.CurrentEmployeeID = nil
		v.Status = vehicle.StatusAvailable
		unbound = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.log != nil {
		s.log.Infof("vehicle unbound vehicle_id=%s", vehicleID)
	}
	return &unbound, nil
}

// lockPair 以固定顺序（先车辆后员工）加锁，避免并发绑定时互相等待成环。
func lockPair(tx *gorm.DB, vehicleID, employeeID string) (*vehicle.Vehicle, *employee.Employee, error) {
	var v vehicle.Vehicle
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", vehicleID).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("vehicle not found")
		}
		return nil, nil, fmt.Errorf("lock vehicle: %w", err)
	}
	var e employee.Employee
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", employeeID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("employee not found")
		}
		return nil, nil, fmt.Errorf("lock employee: %w", err)
	}
	return &v, &e, nil
}
