package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/devcosts/devcosts/internal/alert/domain"
	"github.com/devcosts/devcosts/internal/provider/adapters"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     alertdomain.Repository
	Registry *adapters.Registry
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     alertdomain.Repository
	registry *adapters.Registry
}

func New(p Params) alertdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("alert.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		registry: p.Registry,
	}
}

func (s *Service) Create(ctx context.Context, req alertdomain.CreateRequest) (*alertdomain.Response, error) {
	alertType := alertdomain.AlertType(strings.ToLower(strings.TrimSpace(req.Type)))
	if !alertType.Valid() {
		return nil, alertdomain.ErrInvalidType
	}
	if req.ThresholdCents <= 0 {
		return nil, alertdomain.ErrInvalidThreshold
	}

	var provider *string
	if alertType == alertdomain.AlertTypeProvider {
		id := strings.ToLower(strings.TrimSpace(req.Provider))
		if id == "" {
			return nil, alertdomain.ErrProviderRequired
		}
		if !s.registry.Active(id) {
			return nil, alertdomain.ErrInvalidProvider
		}
		provider = &id
	}

	now := time.Now().UTC()
	alert := &alertdomain.Alert{
		ID:             s.genID.Generate(),
		UserID:         req.UserID,
		Type:           alertType,
		Provider:       provider,
		ThresholdCents: req.ThresholdCents,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, alert); err != nil {
		return nil, err
	}
	return toResponse(alert), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]alertdomain.Response, error) {
	items, err := s.repo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]alertdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req alertdomain.UpdateRequest) (*alertdomain.Response, error) {
	alertID, err := alertdomain.ParseID(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, alertdomain.ErrInvalidID
	}

	alert, err := s.repo.FindByID(ctx, s.db, req.UserID, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, alertdomain.ErrNotFound
	}

	if req.Active != nil {
		alert.Active = *req.Active
	}
	if req.ThresholdCents != nil {
		if *req.ThresholdCents <= 0 {
			return nil, alertdomain.ErrInvalidThreshold
		}
		alert.ThresholdCents = *req.ThresholdCents
	}
	alert.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, alert); err != nil {
		return nil, err
	}
	return toResponse(alert), nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	alertID, err := alertdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return alertdomain.ErrInvalidID
	}

	alert, err := s.repo.FindByID(ctx, s.db, userID, alertID)
	if err != nil {
		return err
	}
	if alert == nil {
		return alertdomain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, userID, alertID)
}

func (s *Service) History(ctx context.Context, userID, id string, limit int) ([]alertdomain.AlertHistory, error) {
	alertID, err := alertdomain.ParseID(strings.TrimSpace(id))
	if err != nil {
		return nil, alertdomain.ErrInvalidID
	}

	alert, err := s.repo.FindByID(ctx, s.db, userID, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, alertdomain.ErrNotFound
	}

	return s.repo.ListHistory(ctx, s.db, userID, alertID, limit)
}

func toResponse(alert *alertdomain.Alert) *alertdomain.Response {
	return &alertdomain.Response{
		ID:              alert.ID.String(),
		Type:            alert.Type,
		Provider:        alert.Provider,
		ThresholdCents:  alert.ThresholdCents,
		Active:          alert.Active,
		LastTriggeredAt: alert.LastTriggeredAt,
		CreatedAt:       alert.CreatedAt,
	}
}
