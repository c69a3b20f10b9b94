package server

import (
	"net/http"
	"strings"

	connectiondomain "github.com/devcosts/devcosts/internal/connection/domain"
	"github.com/gin-gonic/gin"
)

type createConnectionRequest struct {
	Provider    string            `json:"provider"`
	Credentials map[string]string `json:"credentials"`
}

func (s *Server) ListConnections(c *gin.Context) {
	resp, err := s.connectionSvc.List(c.Request.Context(), userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateConnection(c *gin.Context) {
	var req createConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.connectionSvc.Create(c.Request.Context(), connectiondomain.CreateRequest{
		UserID:      userID(c),
		Provider:    strings.TrimSpace(req.Provider),
		Credentials: req.Credentials,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) TestConnection(c *gin.Context) {
	var req createConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.connectionSvc.TestCredentials(c.Request.Context(), connectiondomain.TestRequest{
		Provider:    strings.TrimSpace(req.Provider),
		Credentials: req.Credentials,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) SyncConnection(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	result, err := s.orchestrator.SyncOne(c.Request.Context(), userID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) DeleteConnection(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	if err := s.connectionSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
