package server

import (
	"github.com/FrotaLink/FrotaLink/internal/common/apperr"
	"github.com/gin-gonic/gin"
)

// Fail 按 apperr 分类返回错误响应；InvalidInput 附带逐字段明细。
func Fail(c *gin.Context, err error) {
	body := gin.H{"message": err.Error()}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["erros"] = fields
	}
	c.JSON(apperr.HTTPStatus(err), body)
}
