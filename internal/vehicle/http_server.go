package vehicle

import (
	"net/http"
	"strconv"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/common/server"
	"github.com/gin-gonic/gin"
)

// Handler 车辆管理 HTTP 接口。
type Handler struct {
	svc *Service
	log logger.Logger
}

func NewHandler(svc *Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes 挂载车辆路由；管理操作要求公司级身份。
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/api/vehicles")
	g.POST("", server.RequireCompanyTier(), h.create)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.PUT("/:id", server.RequireCompanyTier(), h.update)
	g.DELETE("/:id", server.RequireCompanyTier(), h.delete)
}

type vehicleResp struct {
	ID                string     `json:"id"`
	Plate             string     `json:"plate"`
	Make              string     `json:"make"`
	Model             string     `json:"model"`
	Year              int        `json:"year"`
	Color             string     `json:"color,omitempty"`
	Chassis           string     `json:"chassis,omitempty"`
	Status            Status     `json:"status"`
	CompanyID         string     `json:"company_id"`
	CurrentEmployeeID *string    `json:"current_employee_id,omitempty"`
	OdometerKM        float64    `json:"odometer_km"`
	Snapshot          any        `json:"snapshot,omitempty"`
	SnapshotAt        *time.Time `json:"snapshot_at,omitempty"`
	NextMaintenanceAt *time.Time `json:"next_maintenance_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func toResp(v *Vehicle) vehicleResp {
	out := vehicleResp{
		ID:                v.ID,
		Plate:             v.Plate,
		Make:              v.Make,
		Model:             v.Model,
		Year:              v.Year,
		Color:             v.Color,
		Chassis:           v.Chassis,
		Status:            v.Status,
		CompanyID:         v.CompanyID,
		CurrentEmployeeID: v.CurrentEmployeeID,
		OdometerKM:        v.OdometerKM,
		SnapshotAt:        v.SnapshotAt,
		NextMaintenanceAt: v.NextMaintenanceAt,
		CreatedAt:         v.CreatedAt,
	}
	if len(v.Snapshot) > 0 {
		out.Snapshot = v.Snapshot
	}
	return out
}

type createReq struct {
	Plate             string     `json:"plate"`
	Make              string     `json:"make"`
	Model             string     `json:"model"`
	Year              int        `json:"year"`
	Color             string     `json:"color"`
	Chassis           string     `json:"chassis"`
	OdometerKM        float64    `json:"odometer_km"`
	NextMaintenanceAt *time.Time `json:"next_maintenance_at"`
}

func (h *Handler) create(c *gin.Context) {
	id, _ := server.IdentityFromContext(c)

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, apperr.Invalid("invalid request body"))
		return
	}
	v, err := h.svc.Create(c.Request.Context(), CreateInput{
		Plate:             req.Plate,
		Make:              req.Make,
		Model:             req.Model,
		Year:              req.Year,
		Color:             req.Color,
		Chassis:           req.Chassis,
		CompanyID:         id.CompanyID,
		OdometerKM:        req.OdometerKM,
		NextMaintenanceAt: req.NextMaintenanceAt,
	})
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResp(v))
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
	status := Status(c.Query("status"))

	items, total, err := h.svc.List(c.Request.Context(), id.CompanyID, status, (page-1)*limit, limit)
	if err != nil {
		server.Fail(c, err)
		return
	}
	out := make([]vehicleResp, 0, len(items))
	for i := range items {
		out = append(out, toResp(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  out,
		"page":  page,
		"limit": limit,
		"total": total,
	})
}

// scoped 读取车辆并做公司归属校验。
func (h *Handler) scoped(c *gin.Context) (*Vehicle, bool) {
	v, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.Fail(c, err)
		return nil, false
	}
	id, ok := server.IdentityFromContext(c)
	if !ok || id.CompanyID != v.CompanyID {
		server.Fail(c, apperr.Forbidden("vehicle belongs to another company"))
		return nil, false
	}
	return v, true
}

func (h *Handler) get(c *gin.Context) {
	v, ok := h.scoped(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toResp(v))
}

type updateReq struct {
	Plate             *string    `json:"plate"`
	Make              *string    `json:"make"`
	Model             *string    `json:"model"`
	Year              *int       `json:"year"`
	Color             *string    `json:"color"`
	Chassis           *string    `json:"chassis"`
	Status            *string    `json:"status"`
	NextMaintenanceAt *time.Time `json:"next_maintenance_at"`
}

func (h *Handler) update(c *gin.Context) {
	v, ok := h.scoped(c)
	if !ok {
		return
	}
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		server.Fail(c, apperr.Invalid("invalid request body"))
		return
	}
	in := UpdateInput{
		Plate:             req.Plate,
		Make:              req.Make,
		Model:             req.Model,
		Year:              req.Year,
		Color:             req.Color,
		Chassis:           req.Chassis,
		NextMaintenanceAt: req.NextMaintenanceAt,
	}
	if req.Status != nil {
		st := Status(*req.Status)
		in.Status = &st
	}
	updated, err := h.svc.Update(c.Request.Context(), v.ID, in)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResp(updated))
}

func (h *Handler) delete(c *gin.Context) {
	v, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), v.ID); err != nil {
		server.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
