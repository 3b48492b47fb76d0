package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/pkg/config"
	"github.com/alimgiray/formpilot/pkg/logger"
)

const defaultStopGracePeriod = 30 * time.Second

// Recoverer puts jobs interrupted by a previous process back in the queue
type Recoverer interface {
	RecoverInterrupted(ctx context.Context, jobType models.JobType) (int64, error)
}

// WorkerManager manages the background workers
type WorkerManager struct {
	workers   []Worker
	jobs      JobQueue
	recoverer Recoverer
	processor RuleProcessor
	cfg       config.WorkerConfig
	stopGrace time.Duration
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(jobs JobQueue, recoverer Recoverer, processor RuleProcessor, cfg config.WorkerConfig) *WorkerManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerManager{
		workers:   make([]Worker, 0),
		jobs:      jobs,
		recoverer: recoverer,
		processor: processor,
		cfg:       cfg,
		stopGrace: defaultStopGracePeriod,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// StartAll requeues interrupted jobs and starts the configured workers
func (wm *WorkerManager) StartAll() error {
	if wm.recoverer != nil {
		n, err := wm.recoverer.RecoverInterrupted(wm.ctx, models.JobTypeEmailRules)
		if err != nil {
			return fmt.Errorf("failed to recover interrupted jobs: %w", err)
		}
		if n > 0 {
			logger.WithField("jobs", n).Warn("Requeued interrupted email rules jobs")
		}
	}

	count := wm.cfg.EmailRuleWorkers
	if count <= 0 {
		count = 1
	}

	for i := 0; i < count; i++ {
		worker := NewEmailRulesWorker(fmt.Sprintf("email-rules-%d", i+1), wm.jobs, wm.processor, wm.cfg.PollInterval)
		wm.workers = append(wm.workers, worker)
		wm.startWorker(worker)
	}

	logger.WithField("workers", len(wm.workers)).Info("Started workers")
	return nil
}

// StopAll gracefully stops all workers. A job already running is given the
// grace period to finish before its context is cancelled.
func (wm *WorkerManager) StopAll() error {
	logger.Info("Stopping all workers...")

	for _, worker := range wm.workers {
		if err := worker.Stop(); err != nil {
			logger.WithFields(logrus.Fields{
				"worker_id": worker.GetWorkerID(),
				"error":     err.Error(),
			}).Error("Error stopping worker")
		}
	}

	done := make(chan struct{})
	go func() {
		wm.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(wm.stopGrace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		logger.WithField("grace_period", wm.stopGrace.String()).Warn("Workers still busy, cancelling in-flight jobs")
		wm.cancel()
		<-done
	}
	wm.cancel()

	logger.Info("All workers stopped")
	return nil
}

func (wm *WorkerManager) startWorker(worker Worker) {
	wm.wg.Add(1)
	go func() {
		defer wm.wg.Done()
		if err := worker.Start(wm.ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithFields(logrus.Fields{
				"worker_id": worker.GetWorkerID(),
				"error":     err.Error(),
			}).Error("Worker stopped with error")
		}
	}()
}

// GetWorkerStatus returns whether each worker is running
func (wm *WorkerManager) GetWorkerStatus() map[string]bool {
	status := make(map[string]bool, len(wm.workers))
	for _, worker := range wm.workers {
		status[worker.GetWorkerID()] = worker.IsRunning()
	}
	return status
}
