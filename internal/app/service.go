// Package service is the application facade over the pipeline. Transports
// (HTTP, CLI, MCP) call it; it owns path storage and async jobs.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/auralearn/internal/adapters/mq/queue"
	"github.com/okian/auralearn/internal/adapters/mq/worker"
	"github.com/okian/auralearn/internal/adapters/repository"
	"github.com/okian/auralearn/internal/domain/dedupe"
	"github.com/okian/auralearn/internal/domain/model"
	"github.com/okian/auralearn/internal/domain/pipeline"
	"github.com/okian/auralearn/internal/domain/ports"
	"github.com/okian/auralearn/pkg/logger"
	"github.com/okian/auralearn/pkg/metrics"
)

// PathResult is a built learning path plus the id it was stored under.
type PathResult struct {
	model.EducationOutcome
	PathID string `json:"path_id,omitempty"`
}

// RefineRequest names the path to refine either by id or inline.
type RefineRequest struct {
	PathID       string               `json:"path_id,omitempty"`
	LearningPath *model.LearningPath  `json:"learning_path,omitempty"`
	Goal         string               `json:"goal"`
	Feedback     model.FeedbackRecord `json:"feedback"`
}

// SubmitOutcome tells how a job submission was handled.
type SubmitOutcome int

const (
	Accepted SubmitOutcome = iota
	Duplicate
)

// Service implements the operations exposed by every transport.
type Service struct {
	mu sync.RWMutex

	retriever ports.Retriever
	pipeline  *pipeline.Pipeline
	store     repository.Store
	deduper   dedupe.Deduper
	jobQueue  *queue.InMemoryQueue
	pool      *worker.Pool
	closers   []io.Closer

	workerCount int
	queueSize   int
	dedupeSize  int
	pipeOpts    []pipeline.Option
	now         func() time.Time

	jobsMu sync.RWMutex
	jobs   map[string]*model.JobRecord

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of job workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the job queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the job id cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStore sets the path store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithPipelineOptions forwards options to the pipeline.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(s *Service) {
		s.pipeOpts = append(s.pipeOpts, opts...)
	}
}

// WithCloser registers a resource released by Stop.
func WithCloser(c io.Closer) Option {
	return func(s *Service) {
		if c != nil {
			s.closers = append(s.closers, c)
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service over the given gateways.
func New(retriever ports.Retriever, gen ports.Generator, opts ...Option) *Service {
	s := &Service{
		retriever:   retriever,
		workerCount: 4,
		queueSize:   1000,
		dedupeSize:  10_000,
		now:         func() time.Time { return time.Now().UTC() },
		jobs:        make(map[string]*model.JobRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.pipeline = pipeline.New(retriever, gen, s.pipeOpts...)
	return s
}

// Start launches the job workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobQueue, s.pipeline, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains queued jobs and releases resources.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.started {
		if err := s.pool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		s.started = false
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	s.logger.Info(ctx, "service stopped")
	return errors.Join(errs...)
}

// RunPipeline executes a full run and stores a successful path.
func (s *Service) RunPipeline(ctx context.Context, goal string) (*model.RunResult, error) {
	res, err := s.pipeline.Run(ctx, goal)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) persist(ctx context.Context, res *model.RunResult) error {
	if res.Status != model.StatusSuccess || res.LearningPlan.LearningPath == nil {
		return nil
	}
	rec, err := s.store.Save(ctx, res.Goal.RawInput, *res.LearningPlan.LearningPath)
	if err != nil {
		return fmt.Errorf("store path: %w", err)
	}
	res.PathID = rec.ID
	return nil
}

// BuildLearningPath runs extraction and structuring for goal alone.
func (s *Service) BuildLearningPath(ctx context.Context, goal string) (PathResult, error) {
	goal = strings.TrimSpace(goal)
	out, err := s.pipeline.BuildLearningPath(ctx, model.GoalContext{RawInput: goal, InterpretedGoal: goal})
	if err != nil {
		return PathResult{}, err
	}
	res := PathResult{EducationOutcome: out}
	if out.Status == model.StatusSuccess && out.LearningPath != nil {
		rec, err := s.store.Save(ctx, goal, *out.LearningPath)
		if err != nil {
			return PathResult{}, fmt.Errorf("store path: %w", err)
		}
		res.PathID = rec.ID
	}
	return res, nil
}

// Refine refines a stored or inline path. With a path id the result is
// stored as a proposal; the stored path only changes on Commit.
func (s *Service) Refine(ctx context.Context, req RefineRequest) (model.RefinementResult, error) {
	var path model.LearningPath
	switch {
	case req.PathID != "":
		rec, err := s.store.Get(ctx, req.PathID)
		if err != nil {
			return model.RefinementResult{}, err
		}
		path = rec.Path
		if strings.TrimSpace(req.Goal) == "" {
			req.Goal = rec.Goal
		}
	case req.LearningPath != nil:
		path = req.LearningPath.Clone()
	default:
		return model.RefinementResult{}, ErrMissingPath
	}

	res, err := s.pipeline.Refine(ctx, path, req.Feedback, req.Goal)
	if err != nil {
		return model.RefinementResult{}, err
	}
	if req.PathID != "" {
		p, err := s.store.Propose(ctx, req.PathID, res.RefinedPath)
		if err != nil {
			return model.RefinementResult{}, err
		}
		res.PathID = p.PathID
		res.ProposalID = p.ID
	}
	return res, nil
}

// Commit makes a stored proposal the current path.
func (s *Service) Commit(ctx context.Context, pathID, proposalID string) (repository.Record, error) {
	return s.store.Commit(ctx, pathID, proposalID)
}

// Path returns a stored path.
func (s *Service) Path(ctx context.Context, id string) (repository.Record, error) {
	return s.store.Get(ctx, id)
}

// Search queries the knowledge store directly.
func (s *Service) Search(ctx context.Context, query string) ([]model.RetrievedDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	return s.retriever.Search(ctx, query)
}

// SubmitJob queues an asynchronous run. A job id seen before is
// acknowledged as a duplicate without a second run. When the queue is full
// the id is released so the client can retry it.
func (s *Service) SubmitJob(ctx context.Context, id, goal string) (model.JobRecord, SubmitOutcome, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return model.JobRecord{}, Accepted, ErrNotStarted
	}
	if strings.TrimSpace(goal) == "" {
		return model.JobRecord{}, Accepted, pipeline.ErrEmptyGoal
	}
	if id == "" {
		id = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordJobDuplicate()
		s.logger.Debug(ctx, "duplicate job", logger.String("job_id", id))
		rec, err := s.Job(ctx, id)
		if err != nil {
			// evicted from the job table but still in the id cache
			rec = model.JobRecord{Job: model.Job{ID: id, Goal: goal}, Status: model.JobDone}
		}
		return rec, Duplicate, nil
	}

	now := s.now()
	rec := &model.JobRecord{
		Job:       model.Job{ID: id, Goal: goal, SubmittedAt: now},
		Status:    model.JobQueued,
		UpdatedAt: now,
	}
	s.jobsMu.Lock()
	s.jobs[id] = rec
	snapshot := *rec
	s.jobsMu.Unlock()

	if err := s.jobQueue.Enqueue(ctx, rec.Job); err != nil {
		s.jobsMu.Lock()
		delete(s.jobs, id)
		s.jobsMu.Unlock()
		s.deduper.Unrecord(ctx, id)
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return model.JobRecord{}, Accepted, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.JobRecord{}, Accepted, err
	}
	return snapshot, Accepted, nil
}

// Job returns the state of a submitted job.
func (s *Service) Job(_ context.Context, id string) (model.JobRecord, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	rec, ok := s.jobs[id]
	if !ok {
		return model.JobRecord{}, fmt.Errorf("job %s: %w", id, ErrJobNotFound)
	}
	return *rec, nil
}

// Started implements worker.Recorder.
func (s *Service) Started(_ context.Context, id string) {
	s.updateJob(id, func(r *model.JobRecord) { r.Status = model.JobRunning })
}

// Finished implements worker.Recorder.
func (s *Service) Finished(ctx context.Context, id string, res *model.RunResult, err error) {
	if err == nil {
		err = s.persist(ctx, res)
	}
	s.updateJob(id, func(r *model.JobRecord) {
		if err != nil {
			r.Status = model.JobFailed
			r.Error = err.Error()
			return
		}
		r.Status = model.JobDone
		r.Result = res
	})
}

func (s *Service) updateJob(id string, fn func(*model.JobRecord)) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	rec, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(rec)
	rec.UpdatedAt = s.now()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"storedPaths": s.store.Count(ctx),
	}

	s.jobsMu.RLock()
	byStatus := make(map[model.JobStatus]int)
	for _, j := range s.jobs {
		byStatus[j.Status]++
	}
	stats["jobs"] = byStatus
	s.jobsMu.RUnlock()

	if s.started {
		stats["queueLength"] = s.jobQueue.Len()
		stats["seenJobIDs"] = s.deduper.Size()
		metrics.UpdateQueueSize(s.jobQueue.Len())
	}
	return stats
}
