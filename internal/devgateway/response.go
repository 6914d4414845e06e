package devgateway

import (
	"errors"
	"net/http"

	"chattix/internal/dto/respond"
	"chattix/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// handleSuccess 2xx，响应体即数据本身
func handleSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// handleError 业务错误映射为非 2xx + {"error": "..."}
// 参数错误 400，资源不存在 404，其余 500
func handleError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := "internal server error"
	var codeErr *errorx.CodeError
	if status < http.StatusInternalServerError && errors.As(err, &codeErr) {
		msg = codeErr.Msg
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("action", c.GetString("action")),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, respond.ErrorRespond{Error: msg})
}

// handleParamError 绑定或校验失败，校验错误带翻译
func handleParamError(c *gin.Context, err error) {
	msg := "Invalid request"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msg = translate(verrs)
	} else {
		zap.L().Debug("param bind error", zap.Error(err))
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, respond.ErrorRespond{Error: msg})
}

func statusOf(err error) int {
	switch errorx.GetCode(err) {
	case errorx.CodeInvalidParam, errorx.CodeInvalidGroupSpec, errorx.CodeFileTooLarge:
		return http.StatusBadRequest
	case errorx.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
