package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	connectiondomain "github.com/devcosts/devcosts/internal/connection/domain"
	"github.com/devcosts/devcosts/internal/provider/adapters"
	providerdomain "github.com/devcosts/devcosts/internal/provider/domain"
	"github.com/devcosts/devcosts/internal/vault"
	"github.com/devcosts/devcosts/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     connectiondomain.Repository
	Vault    *vault.Vault
	Registry *adapters.Registry
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     connectiondomain.Repository
	vault    *vault.Vault
	registry *adapters.Registry
}

func New(p Params) connectiondomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("connection.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		vault:    p.Vault,
		registry: p.Registry,
	}
}

func (s *Service) Create(ctx context.Context, req connectiondomain.CreateRequest) (*connectiondomain.Response, error) {
	providerID := strings.ToLower(strings.TrimSpace(req.Provider))
	if providerID == "" {
		return nil, connectiondomain.ErrInvalidProvider
	}
	adapter, err := s.registry.Resolve(providerID)
	if err != nil {
		return nil, connectiondomain.ErrInvalidProvider
	}
	if !s.registry.Active(providerID) {
		return nil, connectiondomain.ErrProviderNotActive
	}
	if len(req.Credentials) == 0 {
		return nil, connectiondomain.ErrMissingCredentials
	}
	if err := validateFields(adapter, req.Credentials); err != nil {
		return nil, err
	}

	sealed, err := s.vault.EncryptCredentials(req.Credentials)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conn := &connectiondomain.Connection{
		ID:          s.genID.Generate(),
		UserID:      req.UserID,
		Provider:    providerID,
		Credentials: sealed,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, conn); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, connectiondomain.ErrDuplicateConnection
		}
		return nil, err
	}

	s.log.Info("connection created",
		zap.String("connection_id", conn.ID.String()),
		zap.String("provider", providerID),
	)

	return toResponse(conn), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]connectiondomain.Response, error) {
	items, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]connectiondomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, userID, id string) (*connectiondomain.Response, error) {
	connID, err := connectiondomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, connectiondomain.ErrInvalidID
	}

	conn, err := s.repo.FindByID(ctx, s.db, userID, connID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, connectiondomain.ErrNotFound
	}
	return toResponse(conn), nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	connID, err := connectiondomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return connectiondomain.ErrInvalidID
	}

	conn, err := s.repo.FindByID(ctx, s.db, userID, connID)
	if err != nil {
		return err
	}
	if conn == nil {
		return connectiondomain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, userID, connID); err != nil {
		return err
	}

	s.log.Info("connection deleted",
		zap.String("connection_id", connID.String()),
		zap.String("provider", conn.Provider),
	)
	return nil
}

// TestCredentials checks credentials against the provider's live API
// without persisting anything.
func (s *Service) TestCredentials(ctx context.Context, req connectiondomain.TestRequest) (*providerdomain.TestResult, error) {
	adapter, err := s.registry.Resolve(req.Provider)
	if err != nil {
		return nil, connectiondomain.ErrInvalidProvider
	}
	if len(req.Credentials) == 0 {
		return nil, connectiondomain.ErrMissingCredentials
	}

	result := adapter.TestConnection(ctx, req.Credentials)
	return &result, nil
}

func validateFields(adapter providerdomain.Adapter, creds map[string]string) error {
	for _, field := range adapter.CredentialFields() {
		if !field.Required {
			continue
		}
		if strings.TrimSpace(creds[field.Name]) == "" {
			return connectiondomain.ErrMissingField
		}
	}
	return nil
}

func toResponse(conn *connectiondomain.Connection) *connectiondomain.Response {
	return &connectiondomain.Response{
		ID:           conn.ID.String(),
		Provider:     conn.Provider,
		Active:       conn.Active,
		LastSyncedAt: conn.LastSyncedAt,
		LastError:    conn.LastError,
		CreatedAt:    conn.CreatedAt,
	}
}
