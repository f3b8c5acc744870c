package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck is the liveness probe: 200 with an empty body, always.
func HealthCheck(c *gin.Context) {
	c.Header("Content-Length", "0")
	c.Status(http.StatusOK)
}
