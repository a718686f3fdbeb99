package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/email"
)

// Uploader stores a rendered artifact and returns its public URL.
type Uploader interface {
	UploadArtifact(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Store is the export-row persistence the processor drives. The
// completion write is conditional on the row still being in processing,
// so a poller timeout that lands mid-run wins over a late worker.
type Store interface {
	GetExport(id uint) (*model.PortfolioExport, error)
	MarkProcessing(id uint) error
	CompleteIfProcessing(id uint, artifactURL string) (bool, error)
	MarkFailed(id uint, msg string) error
	GetPortfolio(id uint) (*model.Portfolio, error)
	GetUser(id uint) (*model.User, error)
}

type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) GetExport(id uint) (*model.PortfolioExport, error) {
	var export model.PortfolioExport
	if err := s.db.First(&export, id).Error; err != nil {
		return nil, err
	}
	return &export, nil
}

func (s *gormStore) MarkProcessing(id uint) error {
	return s.db.Model(&model.PortfolioExport{}).
		Where("id = ?", id).
		Update("status", model.ExportStatusProcessing).Error
}

func (s *gormStore) CompleteIfProcessing(id uint, artifactURL string) (bool, error) {
	now := time.Now()
	res := s.db.Model(&model.PortfolioExport{}).
		Where("id = ? AND status = ?", id, model.ExportStatusProcessing).
		Updates(map[string]interface{}{
			"status":       model.ExportStatusCompleted,
			"artifact_url": artifactURL,
			"completed_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *gormStore) MarkFailed(id uint, msg string) error {
	now := time.Now()
	return s.db.Model(&model.PortfolioExport{}).
		Where("id = ? AND status NOT IN ?", id,
			[]model.ExportStatus{model.ExportStatusCompleted, model.ExportStatusFailed}).
		Updates(map[string]interface{}{
			"status":       model.ExportStatusFailed,
			"error_msg":    msg,
			"completed_at": now,
		}).Error
}

func (s *gormStore) GetPortfolio(id uint) (*model.Portfolio, error) {
	var portfolio model.Portfolio
	if err := s.db.First(&portfolio, id).Error; err != nil {
		return nil, err
	}
	return &portfolio, nil
}

func (s *gormStore) GetUser(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DBProcessor renders the portfolio, uploads the artifact and moves the
// export row through processing → completed|failed.
type DBProcessor struct {
	store   Store
	uploads Uploader
}

func NewProcessor(db *gorm.DB, uploads Uploader) *DBProcessor {
	return &DBProcessor{store: &gormStore{db: db}, uploads: uploads}
}

func NewProcessorWithStore(store Store, uploads Uploader) *DBProcessor {
	return &DBProcessor{store: store, uploads: uploads}
}

func (p *DBProcessor) Process(ctx context.Context, job *Job) error {
	export, err := p.store.GetExport(job.ExportID)
	if err != nil {
		// The row is the contract with the poller; without it there is
		// nothing to report against, give up instead of retrying.
		log.Printf("[Export] Row %d missing, dropping job %s: %v", job.ExportID, job.ID, err)
		return nil
	}
	if export.Status.IsTerminal() {
		return nil
	}

	if err := p.store.MarkProcessing(export.ID); err != nil {
		return err
	}

	url, err := p.run(ctx, job)
	if err != nil {
		if job.RetryCount >= job.MaxRetries {
			if ferr := p.store.MarkFailed(export.ID, err.Error()); ferr != nil {
				log.Printf("[Export] Could not mark export %d failed: %v", export.ID, ferr)
			}
		}
		return err
	}

	completed, err := p.store.CompleteIfProcessing(export.ID, url)
	if err != nil {
		return err
	}
	if !completed {
		// The poller timed the row out while we were rendering; its
		// failed verdict stands and the user gets no ready email.
		log.Printf("[Export] Export %d went terminal during run, discarding late result", export.ID)
		return nil
	}

	p.notify(export.UserID, url)
	return nil
}

func (p *DBProcessor) run(ctx context.Context, job *Job) (string, error) {
	portfolio, err := p.store.GetPortfolio(job.PortfolioID)
	if err != nil {
		return "", fmt.Errorf("could not load portfolio %d: %w", job.PortfolioID, err)
	}
	owner, err := p.store.GetUser(job.UserID)
	if err != nil {
		return "", fmt.Errorf("could not load user %d: %w", job.UserID, err)
	}

	var body []byte
	var contentType, ext string

	switch model.ExportFormat(job.Format) {
	case model.ExportFormatZip:
		body, err = BuildZip(portfolio, owner)
		contentType, ext = "application/zip", "zip"
	case model.ExportFormatHTML:
		body, err = RenderHTML(portfolio, owner)
		contentType, ext = "text/html", "html"
	default:
		return "", fmt.Errorf("unsupported export format %q", job.Format)
	}
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("exports/%s/%s-%s.%s", owner.Username, portfolio.Slug, job.ID, ext)
	return p.uploads.UploadArtifact(ctx, key, body, contentType)
}

func (p *DBProcessor) notify(userID uint, url string) {
	if email.GlobalEmailService == nil {
		return
	}
	user, err := p.store.GetUser(userID)
	if err != nil {
		return
	}
	if err := email.GlobalEmailService.SendExportReadyEmail(user.Email, user.GetFullName(), url); err != nil {
		log.Printf("Could not send export ready email: %v", err)
	}
}
