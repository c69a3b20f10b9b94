package server

import (
	"net/http"
	"strconv"
	"strings"

	alertdomain "github.com/devcosts/devcosts/internal/alert/domain"
	"github.com/gin-gonic/gin"
)

type createAlertRequest struct {
	Type           string `json:"type"`
	Provider       string `json:"provider"`
	ThresholdCents int64  `json:"threshold_cents"`
}

type updateAlertRequest struct {
	Active         *bool  `json:"active,omitempty"`
	ThresholdCents *int64 `json:"threshold_cents,omitempty"`
}

func (s *Server) ListAlerts(c *gin.Context) {
	resp, err := s.alertSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.alertSvc.Create(c.Request.Context(), alertdomain.CreateRequest{
		UserID:         userID(c),
		Type:           strings.TrimSpace(req.Type),
		Provider:       strings.TrimSpace(req.Provider),
		ThresholdCents: req.ThresholdCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateAlert(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req updateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.alertSvc.Update(c.Request.Context(), alertdomain.UpdateRequest{
		UserID:         userID(c),
		ID:             id,
		Active:         req.Active,
		ThresholdCents: req.ThresholdCents,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAlert(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	if err := s.alertSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) AlertHistory(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = parsed
	}

	resp, err := s.alertSvc.History(c.Request.Context(), userID(c), id, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
