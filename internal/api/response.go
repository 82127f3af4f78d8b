package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope of every non-binary reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: message, Data: data})
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{Code: code, Message: message})
}

func badRequest(c *gin.Context, message string) { fail(c, http.StatusBadRequest, message) }

func unauthorized(c *gin.Context) { fail(c, http.StatusUnauthorized, "Unauthorized") }

func internalError(c *gin.Context, message string) { fail(c, http.StatusInternalServerError, message) }
