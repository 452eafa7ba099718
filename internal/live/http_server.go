package live

import (
	"context"
	"net/http"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/auth"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/common/server"
	"github.com/FrotaLink/FrotaLink/internal/vehicle"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// VehicleResolver 订阅鉴权所需的车辆读取能力。
type VehicleResolver interface {
	Get(ctx context.Context, id string) (*vehicle.Vehicle, error)
}

// Handler WebSocket 订阅入口：GET /api/vehicles/:id/live
type Handler struct {
	hub      *Hub
	vehicles VehicleResolver
	log      logger.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, vehicles VehicleResolver, log logger.Logger) *Handler {
	return &Handler{
		hub:      hub,
		vehicles: vehicles,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 浏览器端订阅来自管理后台，跨域交给网关/部署层控制
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/vehicles/:id/live", h.subscribe)
}

// subscribe 鉴权通过后升级连接并挂进对应车辆的房间。
// 允许：同公司身份；或当前绑定该车的司机本人。
func (h *Handler) subscribe(c *gin.Context) {
	id, ok := server.IdentityFromContext(c)
	if !ok {
		server.Fail(c, apperr.Forbidden("auth required"))
		return
	}
	v, err := h.vehicles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.Fail(c, err)
		return
	}
	if !h.allowed(id, v) {
		server.Fail(c, apperr.Forbidden("not allowed to watch this vehicle"))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Warnf("websocket upgrade failed vehicle_id=%s err=%v", v.ID, err)
		}
		return
	}
	h.hub.Subscribe(conn, v.ID)
}

func (h *Handler) allowed(id auth.Identity, v *vehicle.Vehicle) bool {
	if id.CompanyID == v.CompanyID && id.IsCompanyTier() {
		return true
	}
	if v.CurrentEmployeeID != nil && *v.CurrentEmployeeID == id.Subject {
		return true
	}
	// 同公司普通员工可以看本公司车辆
	return id.CompanyID == v.CompanyID
}
