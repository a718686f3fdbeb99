package export

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Processor runs one export job to completion. Implementations report
// the outcome on the portfolio_exports row themselves; a returned error
// requeues the job until MaxRetries is spent.
type Processor interface {
	Process(ctx context.Context, job *Job) error
}

// Queue is a Redis-list job queue for export runs.
type Queue struct {
	client    *redis.Client
	processor Processor
	workers   int

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewQueue(client *redis.Client, processor Processor, workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		client:    client,
		processor: processor,
		workers:   workers,
		stopCh:    make(chan struct{}),
	}
}

// Enqueue stores the job blob and pushes its id onto the queue.
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = DefaultMaxRetries
	}
	job.CreatedAt = time.Now()

	data, err := job.Marshal()
	if err != nil {
		return err
	}

	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err(); err != nil {
		return err
	}
	return q.client.LPush(ctx, JobQueueKey, job.ID).Err()
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}
	q.running = true

	log.Printf("[ExportQueue] Starting %d workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Println("[ExportQueue] All workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		jobID, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, 2*time.Second).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			log.Printf("[ExportQueue] Worker %d pop error: %v", id, err)
			time.Sleep(time.Second)
			continue
		}

		q.handle(ctx, id, jobID)
	}
}

func (q *Queue) handle(ctx context.Context, workerID int, jobID string) {
	defer q.client.LRem(ctx, JobProcessingKey, 1, jobID)

	data, err := q.client.Get(ctx, JobKeyPrefix+jobID).Bytes()
	if err != nil {
		log.Printf("[ExportQueue] Worker %d: job %s payload missing: %v", workerID, jobID, err)
		return
	}

	job, err := UnmarshalJob(data)
	if err != nil {
		log.Printf("[ExportQueue] Worker %d: job %s payload corrupt: %v", workerID, jobID, err)
		return
	}

	if err := q.processor.Process(ctx, job); err != nil {
		job.RetryCount++
		if job.RetryCount <= job.MaxRetries {
			log.Printf("[ExportQueue] Job %s failed (attempt %d/%d), requeueing: %v",
				jobID, job.RetryCount, job.MaxRetries, err)
			if rerr := q.requeue(ctx, job); rerr != nil {
				// A dropped requeue leaves the row in processing until
				// the poller times it out; make the drop visible.
				log.Printf("[ExportQueue] Could not requeue job %s: %v", jobID, rerr)
			}
			return
		}
		log.Printf("[ExportQueue] Job %s exhausted retries: %v", jobID, err)
	}
}

func (q *Queue) requeue(ctx context.Context, job *Job) error {
	data, err := job.Marshal()
	if err != nil {
		return err
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err(); err != nil {
		return err
	}
	return q.client.LPush(ctx, JobQueueKey, job.ID).Err()
}
