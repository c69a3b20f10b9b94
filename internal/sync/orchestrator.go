package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/devcosts/devcosts/internal/clock"
	connectiondomain "github.com/devcosts/devcosts/internal/connection/domain"
	"github.com/devcosts/devcosts/internal/observability/metrics"
	"github.com/devcosts/devcosts/internal/provider/adapters"
	"github.com/devcosts/devcosts/internal/usagerecord/domain"
	"github.com/devcosts/devcosts/internal/vault"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Manual syncs pull a wider window so a fresh connection backfills a
// month of history. The daily job only needs to catch up recent days.
const (
	manualWindowDays    = 30
	scheduledWindowDays = 7
)

const decryptErrorMessage = "Failed to decrypt credentials"

var (
	ErrConnectionNotFound = errors.New("connection_not_found")
	ErrDecryptCredentials = errors.New("decrypt_credentials_failed")
)

// Result reports one connection's sync.
type Result struct {
	RecordsCount int `json:"records_count"`
}

// BatchResult reports a sweep over every active connection.
type BatchResult struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	GenID     *snowflake.Node
	ConnRepo  connectiondomain.Repository
	UsageRepo domain.Repository
	Registry  *adapters.Registry
	Vault     *vault.Vault
	Metrics   *metrics.SchedulerMetrics
}

// Orchestrator pulls usage from providers and lands it as idempotent
// per-day records.
type Orchestrator struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	genID     *snowflake.Node
	connRepo  connectiondomain.Repository
	usageRepo domain.Repository
	registry  *adapters.Registry
	vault     *vault.Vault
	metrics   *metrics.SchedulerMetrics
}

func New(p Params) *Orchestrator {
	return &Orchestrator{
		db:        p.DB,
		log:       p.Log.Named("sync.orchestrator"),
		clock:     p.Clock,
		genID:     p.GenID,
		connRepo:  p.ConnRepo,
		usageRepo: p.UsageRepo,
		registry:  p.Registry,
		vault:     p.Vault,
		metrics:   p.Metrics,
	}
}

// SyncOne refreshes a single user-owned connection over the manual
// 30-day window.
func (o *Orchestrator) SyncOne(ctx context.Context, userID, connectionID string) (*Result, error) {
	connID, err := connectiondomain.ParseID(strings.TrimSpace(connectionID))
	if err != nil {
		return nil, connectiondomain.ErrInvalidID
	}

	conn, err := o.connRepo.FindByID(ctx, o.db, userID, connID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, ErrConnectionNotFound
	}

	count, err := o.syncConnection(ctx, conn, manualWindowDays)
	if err != nil {
		return nil, err
	}
	return &Result{RecordsCount: count}, nil
}

// SyncAll sweeps every active connection over the scheduled 7-day
// window. One connection's failure never aborts the batch.
func (o *Orchestrator) SyncAll(ctx context.Context) (*BatchResult, error) {
	conns, err := o.connRepo.ListActive(ctx, o.db)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Total: len(conns)}
	o.log.Info("sync batch started", zap.Int("connections", len(conns)))

	for i := range conns {
		conn := &conns[i]
		count, err := o.syncConnection(ctx, conn, scheduledWindowDays)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, conn.Provider+": "+err.Error())
			o.metrics.IncConnectionSynced("failed")
			o.log.Warn("connection sync failed",
				zap.String("connection_id", conn.ID.String()),
				zap.String("provider", conn.Provider),
				zap.Error(err),
			)
			continue
		}

		result.Success++
		o.metrics.IncConnectionSynced("success")
		o.log.Info("connection synced",
			zap.String("connection_id", conn.ID.String()),
			zap.String("provider", conn.Provider),
			zap.Int("records", count),
		)
	}

	o.log.Info("sync batch finished",
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (o *Orchestrator) syncConnection(ctx context.Context, conn *connectiondomain.Connection, windowDays int) (int, error) {
	adapter, err := o.registry.Resolve(conn.Provider)
	if err != nil {
		o.recordFailure(ctx, conn, "Unknown provider: "+conn.Provider)
		return 0, err
	}

	creds, err := o.vault.DecryptCredentials(conn.Credentials)
	if err != nil {
		// Only last_error moves: an undecryptable connection was never
		// actually synced.
		if markErr := o.connRepo.MarkError(ctx, o.db, conn.ID, decryptErrorMessage); markErr != nil {
			o.log.Error("mark decrypt failure failed", zap.String("connection_id", conn.ID.String()), zap.Error(markErr))
		}
		return 0, ErrDecryptCredentials
	}

	now := o.clock.Now()
	start := now.AddDate(0, 0, -windowDays)
	usage := adapter.FetchUsage(ctx, creds, start, now)

	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, day := range usage {
			record := &domain.UsageRecord{
				ID:           o.genID.Generate(),
				ConnectionID: conn.ID,
				UserID:       conn.UserID,
				Provider:     conn.Provider,
				Date:         day.Date,
				AmountCents:  day.AmountCents,
				Currency:     day.Currency,
				RawData:      datatypes.JSON(day.RawData),
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := o.usageRepo.UpsertDay(ctx, tx, record); err != nil {
				return err
			}
		}
		return o.connRepo.MarkSynced(ctx, tx, conn.ID, now, nil)
	})
	if err != nil {
		o.recordFailure(ctx, conn, err.Error())
		return 0, err
	}

	return len(usage), nil
}

// recordFailure stamps the attempt: last_error carries the cause and
// last_synced_at still moves so a broken connection is not retried as
// if it were never visited.
func (o *Orchestrator) recordFailure(ctx context.Context, conn *connectiondomain.Connection, message string) {
	if err := o.connRepo.MarkSynced(ctx, o.db, conn.ID, o.clock.Now(), &message); err != nil {
		o.log.Error("mark sync failure failed",
			zap.String("connection_id", conn.ID.String()),
			zap.Error(err),
		)
	}
}
