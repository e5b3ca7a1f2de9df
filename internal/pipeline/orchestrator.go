package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/uidoc/internal/config"
	"github.com/dgallion1/uidoc/internal/pathstore"
)

// ErrStopped is returned by Submit once the orchestrator has been stopped.
var ErrStopped = errors.New("pipeline stopped")

const maxCleanupInterval = 5 * time.Minute

// Orchestrator runs compile jobs on a fixed pool of workers fed by a bounded
// queue. Jobs stay queryable until they have been idle for the job TTL.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	compiler *Compiler
	ps       *pathstore.Client
	log      *slog.Logger
	cfg      config.Config

	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator wires the job queue to compiler. ps may be nil when no
// pathstore is configured.
func NewOrchestrator(cfg config.Config, compiler *Compiler, ps *pathstore.Client, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		compiler: compiler,
		ps:       ps,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches the workers and the job cleanup loop. They run until ctx
// is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go o.runWorker(ctx, i)
	}
	o.wg.Add(1)
	go o.runCleanup(ctx, cleanupInterval(o.cfg.JobTTL))
}

func (o *Orchestrator) runWorker(ctx context.Context, id int) {
	defer o.wg.Done()
	w := NewWorker(o.compiler, o.log.With("worker", id), o.cfg.PDFFallbackPdftotext)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			w.Process(ctx, job)
		}
	}
}

func (o *Orchestrator) runCleanup(ctx context.Context, every time.Duration) {
	defer o.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := o.jobs.Cleanup(); n > 0 {
				o.log.Debug("expired jobs removed", "count", n, "remaining", o.jobs.Len())
			}
		}
	}
}

// cleanupInterval sweeps twice per TTL, at most every five minutes.
func cleanupInterval(ttl time.Duration) time.Duration {
	every := ttl / 2
	if every <= 0 || every > maxCleanupInterval {
		every = maxCleanupInterval
	}
	return every
}

// Stop cancels the workers and waits for them. Jobs still queued are left
// as they are. Stop may be called more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit records job and queues it. A full queue fails the job at once.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.Fail("queue_full", Diagnostic{Class: ClassInternal, Message: "job queue is full"})
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

func (o *Orchestrator) GetJob(id string) *Job { return o.jobs.Get(id) }

func (o *Orchestrator) QueueDepth() int { return len(o.queue) }

// Compiler returns the compiler shared by the workers and the API.
func (o *Orchestrator) Compiler() *Compiler { return o.compiler }

// PathstoreClient returns the document store client, or nil.
func (o *Orchestrator) PathstoreClient() *pathstore.Client { return o.ps }
