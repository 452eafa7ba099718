package telemetry

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/FrotaLink/FrotaLink/internal/common/metrics"
	"github.com/FrotaLink/FrotaLink/internal/common/middleware"
	"github.com/FrotaLink/FrotaLink/internal/common/server"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler 遥测 HTTP 接口。
// 上报端点走免鉴权路径（设备侧无 JWT），按车辆维度限流兜底。
type Handler struct {
	svc     *Service
	limiter *middleware.KeyedLimiter
	log     logger.Logger
}

func NewHandler(svc *Service, cfg config.TelemetryConfig, log logger.Logger) *Handler {
	burst, rate := cfg.IngestBurst, cfg.IngestRatePerSec
	if burst <= 0 {
		burst = 30
	}
	if rate <= 0 {
		rate = 10
	}
	return &Handler{
		svc:     svc,
		limiter: middleware.NewKeyedLimiter(burst, rate),
		log:     log,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.PUT("/api/vehicles/:id/obd", h.ingest)
	r.GET("/api/vehicles/:id/history", h.history)
	r.GET("/api/vehicles/:id/alerts", h.alerts)
}

func (h *Handler) ingest(c *gin.Context) {
	vehicleID := c.Param("id")
	if !h.limiter.Allow(c.Request.Context(), vehicleID) {
		metrics.IngestRejected.WithLabelValues("rate_limited").Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "too many readings for this vehicle"})
		return
	}

	var sample Sample
	if err := c.ShouldBindJSON(&sample); err != nil {
		metrics.IngestRejected.WithLabelValues("invalid").Inc()
		server.Fail(c, apperr.Invalid("invalid request body"))
		return
	}
	res, err := h.svc.Ingest(c.Request.Context(), vehicleID, sample)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reading_id":  res.Reading.ID,
		"captured_at": res.Reading.CapturedAt,
		"alerts":      res.Reading.AlertCount,
		"snapshot":    res.Snapshot,
	})
}

// scoped 查询侧的公司归属校验。
func (h *Handler) scoped(c *gin.Context) (string, bool) {
	vehicleID := c.Param("id")
	v, err := h.svc.vehicles.FindByID(c.Request.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.Fail(c, apperr.NotFound("vehicle not found"))
		} else {
			server.Fail(c, err)
		}
		return "", false
	}
	id, ok := server.IdentityFromContext(c)
	if !ok || id.CompanyID != v.CompanyID {
		server.Fail(c, apperr.Forbidden("vehicle belongs to another company"))
		return "", false
	}
	return v.ID, true
}

// parseWindow 解析 from/to 查询参数，接受 RFC3339 或 2006-01-02。
func parseWindow(c *gin.Context) (*time.Time, *time.Time, error) {
	parse := func(name string) (*time.Time, error) {
		raw := c.Query(name)
		if raw == "" {
			return nil, nil
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t, nil
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return &t, nil
		}
		return nil, apperr.Invalid("invalid time window", name+": expected RFC3339 or YYYY-MM-DD")
	}
	from, err := parse("from")
	if err != nil {
		return nil, nil, err
	}
	to, err := parse("to")
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func paging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

func (h *Handler) history(c *gin.Context) {
	vehicleID, ok := h.scoped(c)
	if !ok {
		return
	}
	from, to, err := parseWindow(c)
	if err != nil {
		server.Fail(c, err)
		return
	}
	page, limit := paging(c)
	items, meta, err := h.svc.History(c.Request.Context(), vehicleID, from, to, page, limit)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "pagination": meta})
}

func (h *Handler) alerts(c *gin.Context) {
	vehicleID, ok := h.scoped(c)
	if !ok {
		return
	}
	from, to, err := parseWindow(c)
	if err != nil {
		server.Fail(c, err)
		return
	}
	page, limit := paging(c)
	items, meta, err := h.svc.Alerts(c.Request.Context(), vehicleID, from, to,
		c.Query("severity"), c.Query("type"), page, limit)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "pagination": meta})
}
