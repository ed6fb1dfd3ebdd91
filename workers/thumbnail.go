package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/camden-git/portfoliobackend/logging"
	"github.com/camden-git/portfoliobackend/metrics"
)

// ThumbnailJob asks for the thumbnail of one stored original.
type ThumbnailJob struct {
	OriginalKey string
}

// ThumbnailProcessor does the actual work for a job.
type ThumbnailProcessor interface {
	RegenerateThumbnail(ctx context.Context, originalKey string) error
}

type ThumbnailGenerator struct {
	JobQueue  chan ThumbnailJob
	Processor ThumbnailProcessor
	Log       *logging.Logger
	Metrics   *metrics.Metrics
	Timeout   time.Duration
	Wg        sync.WaitGroup
	StopChan  chan struct{}
	Pending   map[string]bool
	Mutex     sync.Mutex

	stopOnce sync.Once
}

func NewThumbnailGenerator(processor ThumbnailProcessor, log *logging.Logger, m *metrics.Metrics, queueSize, numWorkers int) *ThumbnailGenerator {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	if log == nil {
		log = logging.Nop()
	}

	gen := &ThumbnailGenerator{
		JobQueue:  make(chan ThumbnailJob, queueSize),
		Processor: processor,
		Log:       log,
		Metrics:   m,
		Timeout:   time.Minute,
		StopChan:  make(chan struct{}),
		Pending:   make(map[string]bool),
	}

	gen.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go gen.worker(i)
	}
	log.Info(log.WithFields(context.Background(), map[string]any{"workers": numWorkers, "queue_size": queueSize}),
		"started thumbnail workers")

	return gen
}

func (tg *ThumbnailGenerator) worker(id int) {
	defer tg.Wg.Done()
	for {
		select {
		case job := <-tg.JobQueue:
			tg.processJob(id, job)
			tg.Mutex.Lock()
			delete(tg.Pending, job.OriginalKey)
			tg.Mutex.Unlock()

		case <-tg.StopChan:
			return
		}
	}
}

func (tg *ThumbnailGenerator) processJob(workerID int, job ThumbnailJob) {
	ctx, cancel := context.WithTimeout(context.Background(), tg.Timeout)
	defer cancel()
	ctx = tg.Log.WithFields(ctx, map[string]any{"worker": workerID, "key": job.OriginalKey})

	if err := tg.run(ctx, job); err != nil {
		tg.Log.Error(ctx, "thumbnail generation failed", err)
		tg.Metrics.ObserveThumbnailJob(metrics.ResultError)
		return
	}
	tg.Log.Info(ctx, "thumbnail generated")
	tg.Metrics.ObserveThumbnailJob(metrics.ResultSuccess)
}

func (tg *ThumbnailGenerator) run(ctx context.Context, job ThumbnailJob) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while generating thumbnail: %v", p)
		}
	}()
	return tg.Processor.RegenerateThumbnail(ctx, job.OriginalKey)
}

// QueueJob enqueues the job unless the generator is stopped, the same key
// is already pending or the queue is full.
func (tg *ThumbnailGenerator) QueueJob(job ThumbnailJob) bool {
	tg.Mutex.Lock()
	defer tg.Mutex.Unlock()

	select {
	case <-tg.StopChan:
		tg.Metrics.ObserveThumbnailJob(metrics.ResultDropped)
		return false
	default:
	}
	if tg.Pending[job.OriginalKey] {
		return false
	}

	select {
	case tg.JobQueue <- job:
		tg.Pending[job.OriginalKey] = true
		tg.Metrics.ObserveThumbnailJob(metrics.ResultQueued)
		return true
	default:
		tg.Log.Warn(tg.Log.WithField(context.Background(), "key", job.OriginalKey), "thumbnail job queue full", nil)
		tg.Metrics.ObserveThumbnailJob(metrics.ResultDropped)
		return false
	}
}

// PendingCount returns the number of queued or running jobs.
func (tg *ThumbnailGenerator) PendingCount() int {
	tg.Mutex.Lock()
	defer tg.Mutex.Unlock()
	return len(tg.Pending)
}

func (tg *ThumbnailGenerator) Stop() {
	tg.stopOnce.Do(func() {
		tg.Mutex.Lock()
		close(tg.StopChan)
		tg.Mutex.Unlock()
		tg.Wg.Wait()

		// Jobs still buffered will never run.
		tg.Mutex.Lock()
	drain:
		for {
			select {
			case job := <-tg.JobQueue:
				delete(tg.Pending, job.OriginalKey)
			default:
				break drain
			}
		}
		tg.Mutex.Unlock()
		tg.Log.Info(context.Background(), "all thumbnail workers stopped")
	})
}
