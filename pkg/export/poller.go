package export

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
)

// ErrTimeout is returned when the poll ceiling is reached before the
// job lands in a terminal state. The ceiling is client-side only: the
// worker keeps running and no cancellation is sent to it.
var ErrTimeout = errors.New("export: polling ceiling reached")

// PollConfig carries the bounded-retry parameters as first-class knobs.
type PollConfig struct {
	FirstPollDelay time.Duration
	PollInterval   time.Duration
	MaxPolls       int
}

func DefaultPollConfig() PollConfig {
	return PollConfig{
		FirstPollDelay: 5 * time.Second,
		PollInterval:   10 * time.Second,
		MaxPolls:       30,
	}
}

// StatusFetcher reads the current status of an export.
type StatusFetcher func(exportID uint) (model.ExportStatus, error)

// TimeoutMarker records the client-side timeout on the export row.
type TimeoutMarker func(exportID uint, reason string) error

// Poller watches one export until it reaches a terminal state or the
// poll ceiling. A terminal status stops polling immediately; a
// non-terminal status schedules exactly one more poll.
type Poller struct {
	Config  PollConfig
	Fetch   StatusFetcher
	Timeout TimeoutMarker
}

// NewPoller wires a poller to the portfolio_exports table.
func NewPoller(db *gorm.DB, cfg PollConfig) *Poller {
	return &Poller{
		Config: cfg,
		Fetch: func(exportID uint) (model.ExportStatus, error) {
			var export model.PortfolioExport
			if err := db.Select("status").First(&export, exportID).Error; err != nil {
				return "", err
			}
			return export.Status, nil
		},
		Timeout: func(exportID uint, reason string) error {
			now := time.Now()
			return db.Model(&model.PortfolioExport{}).
				Where("id = ? AND status NOT IN ?", exportID,
					[]model.ExportStatus{model.ExportStatusCompleted, model.ExportStatusFailed}).
				Updates(map[string]interface{}{
					"status":       model.ExportStatusFailed,
					"error_msg":    reason,
					"completed_at": now,
				}).Error
		},
	}
}

// Wait blocks until the export is terminal, the ceiling is hit, or ctx
// is canceled. On ceiling the export is marked failed with a timeout
// reason and ErrTimeout is returned.
func (p *Poller) Wait(ctx context.Context, exportID uint) (model.ExportStatus, error) {
	delay := p.Config.FirstPollDelay

	for polls := 0; polls < p.Config.MaxPolls; polls++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay = p.Config.PollInterval

		status, err := p.Fetch(exportID)
		if err != nil {
			return "", err
		}
		if status.IsTerminal() {
			return status, nil
		}
	}

	log.Printf("[Export] Export %d still running after %d polls, giving up", exportID, p.Config.MaxPolls)
	if err := p.Timeout(exportID, "export timed out after polling ceiling"); err != nil {
		log.Printf("[Export] Could not mark export %d timed out: %v", exportID, err)
	}
	return model.ExportStatusFailed, ErrTimeout
}
