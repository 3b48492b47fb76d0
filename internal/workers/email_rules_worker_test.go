package workers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alimgiray/formpilot/internal/models"
	"github.com/alimgiray/formpilot/internal/services"
	"github.com/alimgiray/formpilot/pkg/config"
)

type memoryQueue struct {
	mu        sync.Mutex
	pending   []*models.Job
	completed map[string]string
	failed    map[string]string
	recovered int
	// context errors seen by status writes
	statusErrs []error
}

func newMemoryQueue(jobs ...*models.Job) *memoryQueue {
	return &memoryQueue{
		pending:   jobs,
		completed: make(map[string]string),
		failed:    make(map[string]string),
	}
}

func (q *memoryQueue) GetNextPendingJob(ctx context.Context, jobType models.JobType, workerID string) (*models.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	job.MarkStarted(workerID)
	return job, nil
}

func (q *memoryQueue) CompleteJob(ctx context.Context, job *models.Job, result string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.MarkCompleted(result)
	q.completed[job.ID] = result
	q.statusErrs = append(q.statusErrs, ctx.Err())
	return nil
}

func (q *memoryQueue) FailJob(ctx context.Context, job *models.Job, message string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.MarkFailed(message)
	q.failed[job.ID] = message
	q.statusErrs = append(q.statusErrs, ctx.Err())
	return nil
}

func (q *memoryQueue) RecoverInterrupted(ctx context.Context, jobType models.JobType) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.recovered++
	return 0, nil
}

func (q *memoryQueue) done() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completed) + len(q.failed)
}

type stubProcessor struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (p *stubProcessor) ProcessEmailRules(ctx context.Context, formID, submissionID string, raw map[string]any) (*services.ProcessResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, submissionID)
	if err, ok := p.fail[submissionID]; ok {
		return nil, err
	}
	return &services.ProcessResult{ProcessedRuleCount: 2, QueuedEmailCount: 1}, nil
}

// blockingProcessor holds each run until release is closed and returns
// ctx.Err() as the run's error.
type blockingProcessor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingProcessor) ProcessEmailRules(ctx context.Context, formID, submissionID string, raw map[string]any) (*services.ProcessResult, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
	case <-ctx.Done():
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &services.ProcessResult{ProcessedRuleCount: 1, QueuedEmailCount: 1}, nil
}

func newJob(submissionID string) *models.Job {
	job := models.NewJob("form-1", models.JobTypeEmailRules)
	job.SubmissionID = &submissionID
	return job
}

func TestEmailRulesWorker_ProcessesQueue(t *testing.T) {
	ok := newJob("sub-1")
	broken := newJob("sub-2")
	queue := newMemoryQueue(ok, broken)
	processor := &stubProcessor{fail: map[string]error{"sub-2": errors.New("rules unavailable")}}

	worker := NewEmailRulesWorker("email-rules-1", queue, processor, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- worker.Start(ctx) }()

	require.Eventually(t, func() bool { return queue.done() == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, worker.IsRunning())

	require.NoError(t, worker.Stop())
	require.NoError(t, worker.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.False(t, worker.IsRunning())

	assert.Equal(t, []string{"sub-1", "sub-2"}, processor.calls)
	assert.Equal(t, models.JobStatusCompleted, ok.Status)
	assert.Equal(t, models.JobStatusFailed, broken.Status)
	assert.Equal(t, "rules unavailable", queue.failed[broken.ID])

	var summary services.ProcessResult
	require.NoError(t, json.Unmarshal([]byte(queue.completed[ok.ID]), &summary))
	assert.Equal(t, 2, summary.ProcessedRuleCount)
	assert.Equal(t, 1, summary.QueuedEmailCount)
}

func TestWorkerManager_StartStop(t *testing.T) {
	queue := newMemoryQueue(newJob("sub-1"))
	processor := &stubProcessor{}

	manager := NewWorkerManager(queue, queue, processor, config.WorkerConfig{EmailRuleWorkers: 2, PollInterval: 10 * time.Millisecond})
	require.NoError(t, manager.StartAll())

	require.Eventually(t, func() bool { return queue.done() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, queue.recovered)

	status := manager.GetWorkerStatus()
	assert.Len(t, status, 2)
	assert.Contains(t, status, "email-rules-1")
	assert.Contains(t, status, "email-rules-2")

	require.NoError(t, manager.StopAll())
	for id, running := range manager.GetWorkerStatus() {
		assert.False(t, running, id)
	}
}

func TestWorkerManager_StopAllLetsRunningJobFinish(t *testing.T) {
	job := newJob("sub-1")
	queue := newMemoryQueue(job)
	processor := &blockingProcessor{started: make(chan struct{}), release: make(chan struct{})}

	manager := NewWorkerManager(queue, queue, processor, config.WorkerConfig{EmailRuleWorkers: 1, PollInterval: 10 * time.Millisecond})
	require.NoError(t, manager.StartAll())

	select {
	case <-processor.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not picked up")
	}

	stopped := make(chan struct{})
	go func() {
		assert.NoError(t, manager.StopAll())
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("StopAll returned while a job was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(processor.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not stop")
	}

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	require.Len(t, queue.statusErrs, 1)
	assert.NoError(t, queue.statusErrs[0])
}

func TestWorkerManager_StopAllCancelsAfterGracePeriod(t *testing.T) {
	job := newJob("sub-1")
	queue := newMemoryQueue(job)
	processor := &blockingProcessor{started: make(chan struct{}), release: make(chan struct{})}

	manager := NewWorkerManager(queue, queue, processor, config.WorkerConfig{EmailRuleWorkers: 1, PollInterval: 10 * time.Millisecond})
	manager.stopGrace = 20 * time.Millisecond
	require.NoError(t, manager.StartAll())

	select {
	case <-processor.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not picked up")
	}

	require.NoError(t, manager.StopAll())

	// The run is cut short but its failure is still written
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, context.Canceled.Error(), queue.failed[job.ID])
	require.Len(t, queue.statusErrs, 1)
	assert.NoError(t, queue.statusErrs[0])
}
