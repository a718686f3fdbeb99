package export

import (
	"encoding/json"
	"time"
)

// Redis keys
const (
	JobKeyPrefix     = "export_job:"
	JobQueueKey      = "export_queue"
	JobProcessingKey = "export_processing"

	DefaultMaxRetries = 2
	JobTTL            = 24 * time.Hour
)

// Job is one queued export run. The authoritative status lives on the
// portfolio_exports row; the job only carries what the worker needs.
type Job struct {
	ID          string    `json:"id"`
	ExportID    uint      `json:"export_id"`
	PortfolioID uint      `json:"portfolio_id"`
	UserID      uint      `json:"user_id"`
	Format      string    `json:"format"`
	CreatedAt   time.Time `json:"created_at"`
	RetryCount  int       `json:"retry_count"`
	MaxRetries  int       `json:"max_retries"`
}

func (j *Job) Marshal() ([]byte, error) {
	return json.Marshal(j)
}

func UnmarshalJob(data []byte) (*Job, error) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
