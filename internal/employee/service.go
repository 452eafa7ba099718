package employee

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/auth"
	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/company"
	"github.com/google/uuid"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	cpfPattern   = regexp.MustCompile(`^\d{11}$`)
)

// CompanyStore 员工服务需要的公司读写能力。
type CompanyStore interface {
	Create(ctx context.Context, c *company.Company) error
	FindByID(ctx context.Context, id string) (*company.Company, error)
	FindByCNPJ(ctx context.Context, cnpj string) (*company.Company, error)
}

// Service 员工领域用例（创建、登录、公司注册）。
type Service struct {
	repo      *Repo
	companies CompanyStore
	authCfg   config.AuthConfig
}

func NewService(repo *Repo, companies CompanyStore, authCfg config.AuthConfig) *Service {
	return &Service{repo: repo, companies: companies, authCfg: authCfg}
}

// CreateInput 创建员工的入参。
type CreateInput struct {
	Name       string
	NationalID string
	Email      string
	Password   string
	Phone      string
	CompanyID  string
	Role       string
}

// validateCreate 显式的数据形态校验（必填/长度/格式），不依赖校验库。
func validateCreate(in CreateInput) []string {
	var fields []string
	if len(strings.TrimSpace(in.Name)) < 3 {
		fields = append(fields, "name: minimum 3 characters")
	}
	if !cpfPattern.MatchString(strings.TrimSpace(in.NationalID)) {
		fields = append(fields, "national_id: must be 11 digits")
	}
	if !emailPattern.MatchString(strings.TrimSpace(in.Email)) {
		fields = append(fields, "email: invalid format")
	}
	if len(in.Password) < 6 {
		fields = append(fields, "password: minimum 6 characters")
	}
	if strings.TrimSpace(in.Phone) == "" {
		fields = append(fields, "phone: required")
	}
	if strings.TrimSpace(in.CompanyID) == "" {
		fields = append(fields, "company_id: required")
	}
	return fields
}

// Create 在既有公司下创建员工。
func (s *Service) Create(ctx context.Context, in CreateInput) (*Employee, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if fields := validateCreate(in); len(fields) > 0 {
		return nil, apperr.Invalid("invalid employee", fields...)
	}

	if _, err := s.companies.FindByID(ctx, strings.TrimSpace(in.CompanyID)); err != nil {
		if company.IsNotFound(err) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, fmt.Errorf("find company: %w", err)
	}

	nationalID := strings.TrimSpace(in.NationalID)
	if _, err := s.repo.FindByNationalID(ctx, nationalID); err == nil {
		return nil, apperr.Conflict("national id already registered")
	} else if !IsNotFound(err) {
		return nil, fmt.Errorf("check national id: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("email already registered")
	} else if !IsNotFound(err) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password, salt)
	if err != nil {
		return nil, err
	}

	e := &Employee{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		NationalID:   nationalID,
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Phone:        strings.TrimSpace(in.Phone),
		CompanyID:    strings.TrimSpace(in.CompanyID),
		Role:         ParseRole(in.Role),
		Active:       true,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return e, nil
}

// RegisterCompanyInput 公司自助注册（公司 + 管理员员工一起创建）。
type RegisterCompanyInput struct {
	Employee     CreateInput // CompanyID 留空
	CompanyName  string
	CNPJ         string
	CompanyPhone string
	Address      company.Address
}

// RegisterCompany 注册新公司并创建其管理员。
func (s *Service) RegisterCompany(ctx context.Context, in RegisterCompanyInput) (*company.Company, *Employee, error) {
	if s == nil || s.repo == nil {
		return nil, nil, fmt.Errorf("service not initialized")
	}
	cnpj := strings.TrimSpace(in.CNPJ)
	if cnpj == "" || strings.TrimSpace(in.CompanyName) == "" {
		return nil, nil, apperr.Invalid("invalid company", "name/cnpj: required")
	}

	if _, err := s.companies.FindByCNPJ(ctx, cnpj); err == nil {
		return nil, nil, apperr.Conflict("company already registered")
	} else if !company.IsNotFound(err) {
		return nil, nil, fmt.Errorf("check cnpj: %w", err)
	}

	comp := &company.Company{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(in.CompanyName),
		CNPJ:    cnpj,
		Phone:   strings.TrimSpace(in.CompanyPhone),
		Address: in.Address,
		Active:  true,
	}
	if err := s.companies.Create(ctx, comp); err != nil {
		return nil, nil, fmt.Errorf("create company: %w", err)
	}

	adminIn := in.Employee
	adminIn.CompanyID = comp.ID
	adminIn.Role = string(RoleAdmin)
	admin, err := s.Create(ctx, adminIn)
	if err != nil {
		return nil, nil, err
	}
	return comp, admin, nil
}

// LoginResult 登录结果。
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	Employee    *Employee
}

// Login 邮箱+密码登录；员工或公司被停用时拒绝。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Invalid("invalid credentials payload", "email/password: required")
	}

	e, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return nil, apperr.Forbidden("invalid email or password")
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	if !VerifyPassword(password, e.PasswordSalt, e.PasswordHash) {
		return nil, apperr.Forbidden("invalid email or password")
	}
	if !e.Active {
		return nil, apperr.Forbidden("employee is inactive")
	}

	comp, err := s.companies.FindByID(ctx, e.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("find company: %w", err)
	}
	if !comp.Active {
		return nil, apperr.Forbidden("company is inactive")
	}

	token, exp, err := auth.GenerateAccessToken(s.authCfg, e.ID, e.CompanyID, string(e.Role), 2*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResult{AccessToken: token, ExpiresAt: exp, Employee: e}, nil
}

// Get 读取员工；NotFound 转业务错误。
func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	e, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if IsNotFound(err) {
			return nil, apperr.NotFound("employee not found")
		}
		return nil, err
	}
	return e, nil
}

// List 按公司列出员工。
func (s *Service) List(ctx context.Context, companyID string, offset, limit int) ([]Employee, int64, error) {
	return s.repo.List(ctx, strings.TrimSpace(companyID), offset, limit)
}

// Delete 删除员工；仍绑定车辆时拒绝。
func (s *Service) Delete(ctx context.Context, id string) error {
	e, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if e.CurrentVehicleID != nil {
		return apperr.Conflict("employee still bound to a vehicle, unbind first")
	}
	return s.repo.Delete(ctx, e.ID)
}
