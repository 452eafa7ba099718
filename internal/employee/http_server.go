package employee

import (
	"net/http"
	"strconv"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/server"
	"github.com/FrotaLink/FrotaLink/internal/company"
	"github.com/gin-gonic/gin"
)

// Handler 员工与认证 HTTP 接口。
// /api/auth/* 为免鉴权路径：公司自助注册与登录。
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := r.Group("/api/auth")
	auth.POST("/register", h.registerCompany)
	auth.POST("/login", h.login)

	g := r.Group("/api/employees")
	g.POST("", server.RequireCompanyTier(), h.create)
	g.GET("", h.list)
	g.GET("/me", h.me)
	g.GET("/:id", h.get)
	g.DELETE("/:id", server.RequireCompanyTier(), h.delete)
}

type employeeResp struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	NationalID       string    `json:"national_id"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	CompanyID        string    `json:"company_id"`
	CurrentVehicleID *string   `json:"current_vehicle_id,omitempty"`
	Role             Role      `json:"role"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

func toResp(e *Employee) employeeResp {
	return employeeResp{
		ID:               e.ID,
		Name:             e.Name,
		NationalID:       e.NationalID,
		Email:            e.Email,
		Phone:            e.Phone,
		CompanyID:        e.CompanyID,
		CurrentVehicleID: e.CurrentVehicleID,
		Role:             e.Role,
		Active:           e.Active,
		CreatedAt:        e.CreatedAt,
	}
}

type registerReq struct {
	CompanyName string          `json:"company_name"`
	CNPJ        string          `json:"cnpj"`
	Phone       string          `json:"phone"`
	Address     company.Address `json:"address"`

	AdminName       string `json:"admin_name"`
	AdminNationalID string `json:"admin_national_id"`
	AdminEmail      string `json:"admin_email"`
	AdminPassword   string `json:"admin_password"`
	AdminPhone      string `json:"admin_phone"`
}

func (h *Handler) registerCompany(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, apperr.Invalid("invalid request body"))
		return
	}
	comp, admin, err := h.svc.RegisterCompany(c.Request.Context(), RegisterCompanyInput{
		Employee: CreateInput{
			Name:       req.AdminName,
			NationalID: req.AdminNationalID,
			Email:      req.AdminEmail,
			Password:   req.AdminPassword,
			Phone:      req.AdminPhone,
		},
		CompanyName:  req.CompanyName,
		CNPJ:         req.CNPJ,
		CompanyPhone: req.Phone,
		Address:      req.Address,
	})
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"company": gin.H{"id": comp.ID, "name": comp.Name, "cnpj": comp.CNPJ},
		"admin":   toResp(admin),
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, apperr.Invalid("invalid request body"))
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": res.AccessToken,
		"expires_at":   res.ExpiresAt,
		"employee":     toResp(res.Employee),
	})
}

type createReq struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone"`
	Role       string `json:"role"`
}

func (h *Handler) create(c *gin.Context) {
	id, _ := server.IdentityFromContext(c)

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, apperr.Invalid("invalid request body"))
		return
	}
	e, err := h.svc.Create(c.Request.Context(), CreateInput{
		Name:       req.Name,
		NationalID: req.NationalID,
		Email:      req.Email,
		Password:   req.Password,
		Phone:      req.Phone,
		CompanyID:  id.CompanyID,
		Role:       req.Role,
	})
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResp(e))
}

func (h *Handler) list(c *gin.Context) {
	id, ok := server.IdentityFromContext(c)
	if !ok || id.CompanyID == "" {
		server.Fail(c, apperr.Forbidden("company scope required"))
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, total, err := h.svc.List(c.Request.Context(), id.CompanyID, (page-1)*limit, limit)
	if err != nil {
		server.Fail(c, err)
		return
	}
	out := make([]employeeResp, 0, len(items))
	for i := range items {
		out = append(out, toResp(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "page": page, "limit": limit, "total": total})
}

// me 当前登录员工自己的档案（司机端查自己绑定的车）。
func (h *Handler) me(c *gin.Context) {
	id, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, apperr.Forbidden("auth required"))
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id.Subject)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResp(e))
}

func (h *Handler) scoped(c *gin.Context) (*Employee, bool) {
	e, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.Fail(c, err)
		return nil, false
	}
	id, ok := server.IdentityFromContext(c)
	if !ok || id.CompanyID != e.CompanyID {
		server.Fail(c, apperr.Forbidden("employee belongs to another company"))
		return nil, false
	}
	return e, true
}

func (h *Handler) get(c *gin.Context) {
	e, ok := h.scoped(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toResp(e))
}

func (h *Handler) delete(c *gin.Context) {
	e, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), e.ID); err != nil {
		server.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
