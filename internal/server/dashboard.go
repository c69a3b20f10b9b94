package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetDashboard(c *gin.Context) {
	resp, err := s.dashboardSvc.Summary(c.Request.Context(), userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDashboardReport(c *gin.Context) {
	report, err := s.dashboardSvc.Report(c.Request.Context(), userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	body, err := io.ReadAll(report)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("devcosts-report-%s.pdf", time.Now().UTC().Format("2006-01"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", body)
}
