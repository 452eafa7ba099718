package company

import (
	"context"
	"fmt"
	"strings"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
)

// Service 公司管理用例。公司创建走员工侧的自助注册流程，
// 这里只负责查询、更新与停用。
type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*Company, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	c, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if IsNotFound(err) {
			return nil, apperr.NotFound("company not found")
		}
		return nil, err
	}
	return c, nil
}

// UpdateInput nil 字段不变更。
type UpdateInput struct {
	Name    *string
	Phone   *string
	Address *Address
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Company, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if len(strings.TrimSpace(*in.Name)) < 2 {
			return nil, apperr.Invalid("invalid company", "name: minimum 2 characters")
		}
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		c.Address = *in.Address
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return c, nil
}

// Deactivate 停用公司；停用后公司员工无法登录。
func (s *Service) Deactivate(ctx context.Context, id string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("service not initialized")
	}
	if err := s.repo.SetActive(ctx, strings.TrimSpace(id), false); err != nil {
		if IsNotFound(err) {
			return apperr.NotFound("company not found")
		}
		return err
	}
	return nil
}
