package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cron endpoints let an external scheduler drive the batch jobs when
// the in-process run loop is disabled.

func (s *Server) CronSync(c *gin.Context) {
	result, err := s.orchestrator.SyncAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) CronCheckAlerts(c *gin.Context) {
	result, err := s.evaluator.CheckAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
