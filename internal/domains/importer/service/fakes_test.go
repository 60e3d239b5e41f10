package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"

	"product-importer-backend/internal/domains/importer/model"
	productModel "product-importer-backend/internal/domains/product/model"
	"product-importer-backend/internal/infrastructure/storage"
	"product-importer-backend/internal/shared"
)

// fakeTx satisfies pgx.Tx for code that only needs transaction scoping.
// Unoverridden methods panic via the embedded nil interface, which is what we
// want: the fakes below never issue SQL.
type fakeTx struct {
	pgx.Tx
}

func (t *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }
func (t *fakeTx) Commit(ctx context.Context) error          { return nil }
func (t *fakeTx) Rollback(ctx context.Context) error        { return nil }

type fakeDB struct{}

func (fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

// fakeProductRepo is an in-memory catalog keyed by normalized SKU.
type fakeProductRepo struct {
	mu       sync.Mutex
	byNorm   map[string]*productModel.Product
	nextID   int64
	failSKUs map[string]bool // normalized SKUs whose writes fail
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		byNorm:   map[string]*productModel.Product{},
		failSKUs: map[string]bool{},
	}
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id int64) (*productModel.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byNorm {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) FindBySKUNorm(ctx context.Context, skuNorm string) (*productModel.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byNorm[skuNorm]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) FindBySKUNormTx(ctx context.Context, tx pgx.Tx, skuNorm string) (*productModel.Product, error) {
	return r.FindBySKUNorm(ctx, skuNorm)
}

func (r *fakeProductRepo) Insert(ctx context.Context, p *productModel.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSKUs[p.SKUNorm] {
		return fmt.Errorf("forced insert failure for %s", p.SKUNorm)
	}
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.byNorm[p.SKUNorm] = &cp
	return nil
}

func (r *fakeProductRepo) InsertTx(ctx context.Context, tx pgx.Tx, p *productModel.Product) error {
	return r.Insert(ctx, p)
}

func (r *fakeProductRepo) Update(ctx context.Context, p *productModel.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSKUs[p.SKUNorm] {
		return fmt.Errorf("forced update failure for %s", p.SKUNorm)
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	r.byNorm[p.SKUNorm] = &cp
	return nil
}

func (r *fakeProductRepo) UpdateTx(ctx context.Context, tx pgx.Tx, p *productModel.Product) error {
	return r.Update(ctx, p)
}

func (r *fakeProductRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for norm, p := range r.byNorm {
		if p.ID == id {
			delete(r.byNorm, norm)
			return nil
		}
	}
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, filter productModel.ListProductsFilter) ([]*productModel.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*productModel.Product
	for _, p := range r.byNorm {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

// fakeJobRepo is an in-memory job store with the same terminal-status guard
// as the Postgres implementation. afterSave runs after each successful save,
// letting tests flip the stored status between checkpoints.
type fakeJobRepo struct {
	mu        sync.Mutex
	jobs      map[string]*model.ImportJob
	nextID    int64
	saveCount int
	afterSave func(saveCount int, stored *model.ImportJob)
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*model.ImportJob{}}
}

func (r *fakeJobRepo) Create(ctx context.Context, job *model.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	job.ID = r.nextID
	job.CreatedAt = time.Now().UTC()
	job.UpdatedAt = job.CreatedAt
	cp := *job
	r.jobs[job.JobID] = &cp
	return nil
}

func (r *fakeJobRepo) GetByJobID(ctx context.Context, jobID string) (*model.ImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.jobs[jobID]
	if !ok {
		return nil, nil
	}
	cp := *stored
	return &cp, nil
}

func (r *fakeJobRepo) List(ctx context.Context, limit, offset int) ([]*model.ImportJob, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ImportJob
	for _, j := range r.jobs {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (r *fakeJobRepo) Save(ctx context.Context, job *model.ImportJob) error {
	r.mu.Lock()
	stored, ok := r.jobs[job.JobID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("job %s does not exist", job.JobID)
	}
	if stored.Status.IsTerminal() {
		r.mu.Unlock()
		return model.ErrJobTerminal
	}
	cp := *job
	cp.UpdatedAt = time.Now().UTC()
	r.jobs[job.JobID] = &cp
	r.saveCount++
	count := r.saveCount
	hook := r.afterSave
	r.mu.Unlock()

	if hook != nil {
		hook(count, r.jobs[job.JobID])
	}
	return nil
}

func (r *fakeJobRepo) Cancel(ctx context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.jobs[jobID]
	if !ok {
		return model.ErrJobNotFound
	}
	if stored.Status.IsTerminal() {
		return model.ErrJobTerminal
	}
	now := time.Now().UTC()
	stored.Status = model.StatusCancelled
	stored.CompletedAt = &now
	return nil
}

func (r *fakeJobRepo) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, j := range r.jobs {
		if j.Status.IsTerminal() && j.CompletedAt != nil && j.CompletedAt.Before(cutoff) {
			delete(r.jobs, id)
			deleted++
		}
	}
	return deleted, nil
}

// memFileSource keeps stored files in memory.
type memFileSource struct {
	files map[string][]byte
}

func newMemFileSource() *memFileSource {
	return &memFileSource{files: map[string][]byte{}}
}

func (s *memFileSource) Save(ctx context.Context, key string, r io.Reader, maxSize int64) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return 0, storage.ErrFileTooLarge
	}
	s.files[key] = data
	return int64(len(data)), nil
}

func (s *memFileSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.files[key]
	if !ok {
		return nil, storage.ErrFileNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memFileSource) Remove(ctx context.Context, key string) error {
	delete(s.files, key)
	return nil
}

// capturePublisher records every published progress event in order.
type capturePublisher struct {
	mu     sync.Mutex
	events []model.ProgressEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event model.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) Events() []model.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.ProgressEvent, len(p.events))
	copy(out, p.events)
	return out
}

// captureDispatcher records dispatched catalog events.
type captureDispatcher struct {
	mu     sync.Mutex
	events []dispatchedEvent
}

type dispatchedEvent struct {
	eventType string
	payload   shared.ProductEventPayload
}

func (d *captureDispatcher) Dispatch(ctx context.Context, eventType string, payload shared.ProductEventPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, dispatchedEvent{eventType: eventType, payload: payload})
}

func (d *captureDispatcher) Events() []dispatchedEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]dispatchedEvent, len(d.events))
	copy(out, d.events)
	return out
}

// stubEnqueuer records enqueued tasks without touching Redis.
type stubEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (e *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(e.tasks)), Type: task.Type()}, nil
}
