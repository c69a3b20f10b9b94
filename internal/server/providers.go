package server

import (
	"net/http"

	providerdomain "github.com/devcosts/devcosts/internal/provider/domain"
	"github.com/gin-gonic/gin"
)

type providerResponse struct {
	ID               string                           `json:"id"`
	Name             string                           `json:"name"`
	Description      string                           `json:"description"`
	Available        bool                             `json:"available"`
	CredentialFields []providerdomain.CredentialField `json:"credential_fields"`
}

func (s *Server) ListProviders(c *gin.Context) {
	adapters := s.registry.ListAll()

	resp := make([]providerResponse, 0, len(adapters))
	for _, a := range adapters {
		resp = append(resp, providerResponse{
			ID:               a.ID(),
			Name:             a.Name(),
			Description:      a.Description(),
			Available:        s.registry.Active(a.ID()),
			CredentialFields: a.CredentialFields(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
