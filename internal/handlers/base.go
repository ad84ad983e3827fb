package handlers

import (
	"errors"
	"net/http"
	"tourboard/internal/services"
	"tourboard/internal/utils"

	"github.com/gin-gonic/gin"
)

// RespondError maps service errors to HTTP status codes
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		// 不把存储层细节暴露给客户端
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// pathID 读取路径参数中的 id，非法时已写好 400 响应
func pathID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		badRequest(c, "invalid "+name)
	}
	return id, ok
}
