package stats

import (
	"net/http"
	"strconv"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/FrotaLink/FrotaLink/internal/common/server"
	"github.com/gin-gonic/gin"
)

// Handler 车队仪表盘接口。
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/companies/:id/dashboard", server.RequireCompanyTier(), h.dashboard)
}

func (h *Handler) dashboard(c *gin.Context) {
	id, ok := server.IdentityFromContext(c)
	if !ok || id.CompanyID != c.Param("id") {
		server.Fail(c, apperr.Forbidden("dashboard belongs to another company"))
		return
	}

	// 缺省统计最近 30 天
	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if raw := c.Query("from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			server.Fail(c, err)
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			server.Fail(c, err)
			return
		}
		to = t.AddDate(0, 0, 1) // to 当天全天包含
	}

	alertWindow := 0
	if raw := c.Query("alert_window_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			server.Fail(c, apperr.Invalid("invalid statistics request", "alert_window_days: must be 1..365"))
			return
		}
		alertWindow = n
	}

	dash, err := h.svc.FleetStatistics(c.Request.Context(), id.CompanyID, from, to, alertWindow)
	if err != nil {
		server.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Invalid("invalid statistics request", "expected RFC3339 or YYYY-MM-DD date")
}
