package export

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"codecanvas_backend/internal/model"
)

type fakeExportStore struct {
	mu        sync.Mutex
	exports   map[uint]*model.PortfolioExport
	portfolio *model.Portfolio
	owner     *model.User
}

func newFakeExportStore(status model.ExportStatus) *fakeExportStore {
	portfolio, owner := samplePortfolio()
	portfolio.ID = 3
	owner.ID = 9
	return &fakeExportStore{
		exports: map[uint]*model.PortfolioExport{
			7: {
				Model:       gorm.Model{ID: 7},
				UserID:      9,
				PortfolioID: 3,
				Format:      model.ExportFormatHTML,
				Status:      status,
			},
		},
		portfolio: portfolio,
		owner:     owner,
	}
}

func (s *fakeExportStore) GetExport(id uint) (*model.PortfolioExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.exports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (s *fakeExportStore) MarkProcessing(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports[id].Status = model.ExportStatusProcessing
	return nil
}

func (s *fakeExportStore) CompleteIfProcessing(id uint, artifactURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.exports[id]
	if row.Status != model.ExportStatusProcessing {
		return false, nil
	}
	row.Status = model.ExportStatusCompleted
	row.ArtifactURL = artifactURL
	return true, nil
}

func (s *fakeExportStore) MarkFailed(id uint, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.exports[id]
	if row.Status.IsTerminal() {
		return nil
	}
	row.Status = model.ExportStatusFailed
	row.ErrorMsg = msg
	return nil
}

func (s *fakeExportStore) GetPortfolio(id uint) (*model.Portfolio, error) {
	return s.portfolio, nil
}

func (s *fakeExportStore) GetUser(id uint) (*model.User, error) {
	return s.owner, nil
}

func (s *fakeExportStore) status(id uint) model.ExportStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports[id].Status
}

type fakeUploader struct {
	beforeReturn func()
	uploads      int
}

func (u *fakeUploader) UploadArtifact(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	u.uploads++
	if u.beforeReturn != nil {
		u.beforeReturn()
	}
	return "https://cdn.example.com/" + key, nil
}

func testJob() *Job {
	return &Job{
		ID:          "job-1",
		ExportID:    7,
		PortfolioID: 3,
		UserID:      9,
		Format:      string(model.ExportFormatHTML),
		MaxRetries:  DefaultMaxRetries,
	}
}

func TestProcessCompletesExport(t *testing.T) {
	store := newFakeExportStore(model.ExportStatusPending)
	p := NewProcessorWithStore(store, &fakeUploader{})

	if err := p.Process(context.Background(), testJob()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if got := store.status(7); got != model.ExportStatusCompleted {
		t.Fatalf("status = %q, want completed", got)
	}
	if store.exports[7].ArtifactURL == "" {
		t.Fatal("expected an artifact URL on the completed row")
	}
}

func TestProcessSkipsTerminalRow(t *testing.T) {
	store := newFakeExportStore(model.ExportStatusFailed)
	uploader := &fakeUploader{}
	p := NewProcessorWithStore(store, uploader)

	if err := p.Process(context.Background(), testJob()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if uploader.uploads != 0 {
		t.Fatalf("expected no upload for a terminal row, got %d", uploader.uploads)
	}
	if got := store.status(7); got != model.ExportStatusFailed {
		t.Fatalf("status = %q, want failed untouched", got)
	}
}

// A worker that outlives the poll ceiling must not revive the row the
// poller already marked failed.
func TestProcessDiscardsLateResultAfterTimeout(t *testing.T) {
	store := newFakeExportStore(model.ExportStatusPending)
	uploader := &fakeUploader{
		beforeReturn: func() {
			// The poll ceiling lands while the upload is in flight.
			if err := store.MarkFailed(7, "export timed out after polling ceiling"); err != nil {
				t.Fatalf("MarkFailed() error = %v", err)
			}
		},
	}
	p := NewProcessorWithStore(store, uploader)

	if err := p.Process(context.Background(), testJob()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if got := store.status(7); got != model.ExportStatusFailed {
		t.Fatalf("status = %q, want the timeout verdict to stand", got)
	}
	if store.exports[7].ArtifactURL != "" {
		t.Fatalf("late artifact URL %q must not land on a timed-out row", store.exports[7].ArtifactURL)
	}
}

func TestProcessMarksFailedOnFinalRetry(t *testing.T) {
	store := newFakeExportStore(model.ExportStatusPending)
	p := NewProcessorWithStore(store, &fakeUploader{})

	job := testJob()
	job.Format = "docx"
	job.RetryCount = job.MaxRetries

	if err := p.Process(context.Background(), job); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
	if got := store.status(7); got != model.ExportStatusFailed {
		t.Fatalf("status = %q, want failed after the final retry", got)
	}
}
