package export

import (
	"context"
	"testing"
	"time"

	"codecanvas_backend/internal/model"
)

func testConfig(maxPolls int) PollConfig {
	return PollConfig{
		FirstPollDelay: time.Millisecond,
		PollInterval:   time.Millisecond,
		MaxPolls:       maxPolls,
	}
}

func TestPollerStopsOnTerminalStatus(t *testing.T) {
	fetches := 0
	p := &Poller{
		Config: testConfig(30),
		Fetch: func(exportID uint) (model.ExportStatus, error) {
			fetches++
			if fetches >= 3 {
				return model.ExportStatusCompleted, nil
			}
			return model.ExportStatusProcessing, nil
		},
		Timeout: func(exportID uint, reason string) error {
			t.Fatal("timeout marker must not fire for a completed export")
			return nil
		},
	}

	status, err := p.Wait(context.Background(), 1)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if status != model.ExportStatusCompleted {
		t.Fatalf("Wait() status = %q, want completed", status)
	}
	if fetches != 3 {
		t.Fatalf("expected exactly 3 polls, got %d", fetches)
	}
}

func TestPollerTimesOutAtCeiling(t *testing.T) {
	fetches := 0
	timeouts := 0
	p := &Poller{
		Config: testConfig(30),
		Fetch: func(exportID uint) (model.ExportStatus, error) {
			fetches++
			return model.ExportStatusProcessing, nil
		},
		Timeout: func(exportID uint, reason string) error {
			timeouts++
			return nil
		},
	}

	status, err := p.Wait(context.Background(), 7)
	if err != ErrTimeout {
		t.Fatalf("Wait() error = %v, want ErrTimeout", err)
	}
	if status != model.ExportStatusFailed {
		t.Fatalf("Wait() status = %q, want failed", status)
	}
	if fetches != 30 {
		t.Fatalf("expected exactly 30 polls before giving up, got %d", fetches)
	}
	if timeouts != 1 {
		t.Fatalf("expected one timeout mark, got %d", timeouts)
	}
}

func TestPollerFailedStatusStopsImmediately(t *testing.T) {
	fetches := 0
	p := &Poller{
		Config: testConfig(30),
		Fetch: func(exportID uint) (model.ExportStatus, error) {
			fetches++
			return model.ExportStatusFailed, nil
		},
		Timeout: func(exportID uint, reason string) error { return nil },
	}

	status, err := p.Wait(context.Background(), 2)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if status != model.ExportStatusFailed || fetches != 1 {
		t.Fatalf("expected failed after 1 poll, got %q after %d", status, fetches)
	}
}

func TestPollerHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Poller{
		Config: PollConfig{FirstPollDelay: time.Hour, PollInterval: time.Hour, MaxPolls: 5},
		Fetch: func(exportID uint) (model.ExportStatus, error) {
			t.Fatal("fetch must not run after cancellation")
			return "", nil
		},
		Timeout: func(exportID uint, reason string) error { return nil },
	}

	if _, err := p.Wait(ctx, 1); err != context.Canceled {
		t.Fatalf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestJobPayloadRoundTrip(t *testing.T) {
	job := &Job{
		ID:          "abc",
		ExportID:    11,
		PortfolioID: 22,
		UserID:      33,
		Format:      string(model.ExportFormatZip),
		MaxRetries:  2,
	}

	data, err := job.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := UnmarshalJob(data)
	if err != nil {
		t.Fatalf("UnmarshalJob() error = %v", err)
	}
	if got.ExportID != job.ExportID || got.Format != job.Format || got.MaxRetries != job.MaxRetries {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
