package vehicle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/company"
	"github.com/google/uuid"
)

// CompanyStore 车辆服务需要的公司读取能力。
type CompanyStore interface {
	FindByID(ctx context.Context, id string) (*company.Company, error)
}

// Service 车辆管理用例（注册、更新、删除、查询）。
type Service struct {
	repo      *Repo
	companies CompanyStore
}

func NewService(repo *Repo, companies CompanyStore) *Service {
	return &Service{repo: repo, companies: companies}
}

// CreateInput 注册车辆的入参。
type CreateInput struct {
	Plate     string
	Make      string
	Model     string
	Year      int
	Color     string
	Chassis   string
	CompanyID string

	OdometerKM        float64
	NextMaintenanceAt *time.Time
}

func validateCreate(in CreateInput) []string {
	var fields []string
	if !ValidPlate(NormalizePlate(in.Plate)) {
		fields = append(fields, "plate: invalid format, expected ABC-1234 or ABC1D23")
	}
	if len(strings.TrimSpace(in.Make)) < 2 {
		fields = append(fields, "make: minimum 2 characters")
	}
	if len(strings.TrimSpace(in.Model)) < 2 {
		fields = append(fields, "model: minimum 2 characters")
	}
	if maxYear := time.Now().Year() + 1; in.Year < 1900 || in.Year > maxYear {
		fields = append(fields, fmt.Sprintf("year: must be between 1900 and %d", maxYear))
	}
	if strings.TrimSpace(in.CompanyID) == "" {
		fields = append(fields, "company_id: required")
	}
	if in.OdometerKM < 0 {
		fields = append(fields, "odometer_km: must be non-negative")
	}
	return fields
}

// Create 注册车辆：校验车牌/年份、公司存在性、车牌唯一性。
func (s *Service) Create(ctx context.Context, in CreateInput) (*Vehicle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if fields := validateCreate(in); len(fields) > 0 {
		return nil, apperr.Invalid("invalid vehicle", fields...)
	}

	if _, err := s.companies.FindByID(ctx, strings.TrimSpace(in.CompanyID)); err != nil {
		if company.IsNotFound(err) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, fmt.Errorf("find company: %w", err)
	}

	plate := NormalizePlate(in.Plate)
	if _, err := s.repo.FindByPlate(ctx, plate, ""); err == nil {
		return nil, apperr.Conflict("plate already registered")
	} else if !IsNotFound(err) {
		return nil, fmt.Errorf("check plate: %w", err)
	}

	v := &Vehicle{
		ID:                uuid.NewString(),
		Plate:             plate,
		Make:              strings.TrimSpace(in.Make),
		Model:             strings.TrimSpace(in.Model),
		Year:              in.Year,
		Color:             strings.TrimSpace(in.Color),
		Chassis:           strings.TrimSpace(in.Chassis),
		Status:            StatusAvailable,
		CompanyID:         strings.TrimSpace(in.CompanyID),
		OdometerKM:        in.OdometerKM,
		NextMaintenanceAt: in.NextMaintenanceAt,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	return v, nil
}

// UpdateInput 更新车辆；nil/零值字段不变更。
type UpdateInput struct {
	Plate             *string
	Make              *string
	Model             *string
	Year              *int
	Color             *string
	Chassis           *string
	Status            *Status
	NextMaintenanceAt *time.Time
}

// Update 管理侧更新；状态流转受 CanTransition 约束，
// in_use 只能由绑定流程进出。
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Vehicle, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Plate != nil {
		plate := NormalizePlate(*in.Plate)
		if !ValidPlate(plate) {
			return nil, apperr.Invalid("invalid vehicle", "plate: invalid format")
		}
		if _, err := s.repo.FindByPlate(ctx, plate, v.ID); err == nil {
			return nil, apperr.Conflict("plate already registered to another vehicle")
		} else if !IsNotFound(err) {
			return nil, fmt.Errorf("check plate: %w", err)
		}
		v.Plate = plate
	}
	if in.Make != nil {
		if len(strings.TrimSpace(*in.Make)) < 2 {
			return nil, apperr.Invalid("invalid vehicle", "make: minimum 2 characters")
		}
		v.Make = strings.TrimSpace(*in.Make)
	}
	if in.Model != nil {
		if len(strings.TrimSpace(*in.Model)) < 2 {
			return nil, apperr.Invalid("invalid vehicle", "model: minimum 2 characters")
		}
		v.Model = strings.TrimSpace(*in.Model)
	}
	if in.Year != nil {
		if maxYear := time.Now().Year() + 1; *in.Year < 1900 || *in.Year > maxYear {
			return nil, apperr.Invalid("invalid vehicle", "year: out of range")
		}
		v.Year = *in.Year
	}
	if in.Color != nil {
		v.Color = strings.TrimSpace(*in.Color)
	}
	if in.Chassis != nil {
		v.Chassis = strings.TrimSpace(*in.Chassis)
	}
	if in.NextMaintenanceAt != nil {
		v.NextMaintenanceAt = in.NextMaintenanceAt
	}
	if in.Status != nil {
		to := *in.Status
		if !ValidStatus(to) {
			return nil, apperr.Invalid("invalid vehicle", "status: unknown value")
		}
		if to == StatusInUse && v.Status != StatusInUse {
			return nil, apperr.Conflict("status in_use is managed by the binding flow")
		}
		if !CanTransition(v.Status, to) {
			return nil, apperr.Conflict(fmt.Sprintf("invalid status transition: %s -> %s", v.Status, to))
		}
		v.Status = to
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("update vehicle: %w", err)
	}
	return v, nil
}

// Get 读取车辆；NotFound 转业务错误。
func (s *Service) Get(ctx context.Context, id string) (*Vehicle, error) {
	v, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if IsNotFound(err) {
			return nil, apperr.NotFound("vehicle not found")
		}
		return nil, err
	}
	return v, nil
}

// List 按公司/状态列出车辆。
func (s *Service) List(ctx context.Context, companyID string, status Status, offset, limit int) ([]Vehicle, int64, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, apperr.Invalid("invalid filter", "status: unknown value")
	}
	return s.repo.List(ctx, strings.TrimSpace(companyID), status, offset, limit)
}

// Delete 删除车辆；仍绑定司机时拒绝。
func (s *Service) Delete(ctx context.Context, id string) error {
	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.CurrentEmployeeID != nil {
		return apperr.Conflict("vehicle still bound to an employee, unbind first")
	}
	return s.repo.Delete(ctx, v.ID)
}
