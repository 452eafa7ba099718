package binding

import (
	"net/http"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/server"
	"github.com/gin-gonic/gin"
)

// Handler 绑定/解绑 HTTP 接口，仅公司级身份可操作。
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/api/vehicles", server.RequireCompanyTier())
	g.POST("/:id/bind", h.bind)
	g.POST("/:id/unbind", h.unbind)
}

type bindReq struct {
	EmployeeID string `json:"employee_id"`
}

func (h *Handler) bind(c *gin.Context) {
	id, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, apperr.Forbidden("company scope required"))
		return
	}
	var req bindReq
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, apperr.Invalid("invalid request body"))
		return
	}
	v, err := h.svc.Bind(c.Request.Context(), id.CompanyID, c.Param("id"), req.EmployeeID)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vehicle_id":  v.ID,
		"employee_id": v.CurrentEmployeeID,
		"status":      v.Status,
	})
}

func (h *Handler) unbind(c *gin.Context) {
	id, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, apperr.Forbidden("company scope required"))
		return
	}
	v, err := h.svc.Unbind(c.Request.Context(), id.CompanyID, c.Param("id"))
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vehicle_id": v.ID,
		"status":     v.Status,
	})
}
