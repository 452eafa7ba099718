package company

import (
	"net/http"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/server"
	"github.com/gin-gonic/gin"
)

// Handler 公司管理 HTTP 接口；只允许操作自己所属的公司。
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/api/companies", server.RequireCompanyTier())
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.deactivate)
}

type companyResp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CNPJ      string    `json:"cnpj"`
	Phone     string    `json:"phone,omitempty"`
	Address   Address   `json:"address"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toResp(c *Company) companyResp {
	return companyResp{
		ID:        c.ID,
		Name:      c.Name,
		CNPJ:      c.CNPJ,
		Phone:     c.Phone,
		Address:   c.Address,
		Active:    c.Active,
		CreatedAt: c.CreatedAt,
	}
}

func (h *Handler) scope(c *gin.Context) bool {
	id, ok := server.IdentityFromContext(c)
	if !ok || id.CompanyID != c.Param("id") {
		server.Fail(c, apperr.Forbidden("company scope mismatch"))
		return false
	}
	return true
}

func (h *Handler) get(c *gin.Context) {
	if !h.scope(c) {
		return
	}
	comp, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResp(comp))
}

type updateReq struct {
	Name    *string  `json:"name"`
	Phone   *string  `json:"phone"`
	Address *Address `json:"address"`
}

func (h *Handler) update(c *gin.Context) {
	if !h.scope(c) {
		return
	}
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, apperr.Invalid("invalid request body"))
		return
	}
	comp, err := h.svc.Update(c.Request.Context(), c.Param("id"), UpdateInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResp(comp))
}

func (h *Handler) deactivate(c *gin.Context) {
	if !h.scope(c) {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		server.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
