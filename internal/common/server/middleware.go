package server

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/FrotaLink/FrotaLink/internal/common/auth"
	"github.com/FrotaLink/FrotaLink/internal/common/config"
	"github.com/FrotaLink/FrotaLink/internal/common/logger"
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

const ctxIdentityKey = "auth_identity"

// IdentityFromContext 从 gin context 取出鉴权身份。
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// Recovery 防止 panic 直接把进程打崩，并记录栈信息。
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if log != nil {
					log.Errorf("panic in handler path=%s err=%v stack=%s", c.Request.URL.Path, r, string(debug.Stack()))
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			}
		}()
		c.Next()
	}
}

// AccessLog 记录每个请求的耗时/状态码。
func AccessLog(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		cost := time.Since(start)

		if log == nil {
			return
		}
		fields := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"cost":   cost.String(),
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			log.WithFields(fields).Warn("http request failed")
		} else {
			log.WithFields(fields).Info("http request ok")
		}
	}
}

// Tracing 基于 OpenTracing 的最小 server 中间件：
// - 从请求头提取 span context（取决于上游注入格式）
// - 创建 server span，并注入到 request context，方便业务侧
//   opentracing.StartSpanFromContext 使用
func Tracing(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracer := opentracing.GlobalTracer()

		var parent opentracing.SpanContext
		if sc, err := tracer.Extract(opentracing.HTTPHeaders,
			opentracing.HTTPHeadersCarrier(c.Request.Header)); err == nil {
			parent = sc
		}

		operation := c.Request.Method + " " + c.FullPath()

		var span opentracing.Span
		if parent != nil {
			span = tracer.StartSpan(operation, ext.RPCServerOption(parent))
		} else {
			span = tracer.StartSpan(operation)
		}
		defer span.Finish()

		ext.SpanKindRPCServer.Set(span)
		ext.Component.Set(span, "http")
		ext.HTTPMethod.Set(span, c.Request.Method)
		ext.HTTPUrl.Set(span, c.Request.URL.Path)
		if serviceName != "" {
			span.SetTag("service", serviceName)
		}

		c.Request = c.Request.WithContext(opentracing.ContextWithSpan(c.Request.Context(), span))
		c.Next()

		ext.HTTPStatusCode.Set(span, uint16(c.Writer.Status()))
	}
}

// JWTAuth 鉴权中间件：
// - public paths（设备上报、登录、健康检查）直接放行
// - 从 `Authorization: Bearer <token>` 解析身份并写入 context
func JWTAuth(cfg config.AuthConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || isPublicPath(cfg.PublicPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			if log != nil {
				log.Warn("auth enabled but jwt_secret is empty")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "auth not configured"})
			return
		}

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing authorization"})
			return
		}
		tokenStr := raw
		if strings.HasPrefix(strings.ToLower(tokenStr), "bearer ") {
			tokenStr = strings.TrimSpace(tokenStr[len("bearer "):])
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid authorization"})
			return
		}

		id, err := auth.ParseAccessToken(cfg, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		c.Set(ctxIdentityKey, id)
		c.Next()
	}
}

// RequireCompanyTier 仅公司级身份（admin）可访问。
func RequireCompanyTier() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
			return
		}
		if !id.IsCompanyTier() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "company tier required"})
			return
		}
		c.Next()
	}
}

// RequireTier 要求身份属于给定层级之一。
func RequireTier(tiers ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing auth context"})
			return
		}
		for _, t := range tiers {
			if id.Tier == t {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "permission denied"})
	}
}

func isPublicPath(public []string, path string) bool {
	if path == "" || len(public) == 0 {
		return false
	}
	for _, p := range public {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == path {
			return true
		}
		// 按路径段通配：* 匹配单段（设备上报路径带车辆 ID），
		// 末尾 * 匹配剩余全部
		if strings.Contains(p, "*") && matchPathPattern(p, path) {
			return true
		}
	}
	return false
}

func matchPathPattern(pattern, path string) bool {
	pp := strings.Split(strings.Trim(pattern, "/"), "/")
	pa := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range pp {
		if seg == "*" && i == len(pp)-1 {
			return len(pa) >= i
		}
		if i >= len(pa) {
			return false
		}
		if seg != "*" && seg != pa[i] {
			return false
		}
	}
	return len(pp) == len(pa)
}
