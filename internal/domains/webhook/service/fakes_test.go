package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	"product-importer-backend/internal/domains/webhook/model"
)

// fakeRepo is an in-memory subscription store.
type fakeRepo struct {
	mu       sync.Mutex
	webhooks map[int64]*model.Webhook
	nextID   int64
	results  map[int64]model.DeliveryResult
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		webhooks: map[int64]*model.Webhook{},
		results:  map[int64]model.DeliveryResult{},
	}
}

func (r *fakeRepo) Create(ctx context.Context, w *model.Webhook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	w.ID = r.nextID
	w.CreatedAt = time.Now().UTC()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	r.webhooks[w.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (*model.Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.webhooks[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context, limit, offset int) ([]*model.Webhook, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Webhook
	for _, w := range r.webhooks {
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeRepo) Update(ctx context.Context, w *model.Webhook) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.webhooks[w.ID]; !ok {
		return model.ErrWebhookNotFound
	}
	cp := *w
	cp.UpdatedAt = time.Now().UTC()
	r.webhooks[w.ID] = &cp
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.webhooks[id]; !ok {
		return model.ErrWebhookNotFound
	}
	delete(r.webhooks, id)
	return nil
}

func (r *fakeRepo) ListEnabledByEventType(ctx context.Context, eventType string) ([]*model.Webhook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Webhook
	for _, w := range r.webhooks {
		if w.Enabled && w.Subscribed(eventType) {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) UpdateDeliveryResult(ctx context.Context, id int64, result model.DeliveryResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.webhooks[id]
	if !ok {
		return model.ErrWebhookNotFound
	}
	r.results[id] = result
	w.LastTriggeredAt = &result.At
	w.LastResponseStatus = result.Status
	w.LastResponseTimeMs = result.DurationMs
	w.LastError = result.Error
	return nil
}

// memCache implements pkg/cache.Cache in memory, ignoring TTLs.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *memCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Good enough for the subscriber cache's "prefix:*" patterns.
	prefix := pattern
	if n := len(pattern); n > 0 && pattern[n-1] == '*' {
		prefix = pattern[:n-1]
	}
	for k := range c.items {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.items, k)
		}
	}
	return nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }

// stubEnqueuer records enqueued tasks with their options.
type stubEnqueuer struct {
	mu    sync.Mutex
	tasks []enqueuedTask
	err   error
}

type enqueuedTask struct {
	task *asynq.Task
	opts []asynq.Option
}

func (e *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, enqueuedTask{task: task, opts: opts})
	return &asynq.TaskInfo{ID: fmt.Sprintf("task-%d", len(e.tasks)), Type: task.Type()}, nil
}

func (e *stubEnqueuer) all() []enqueuedTask {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]enqueuedTask, len(e.tasks))
	copy(out, e.tasks)
	return out
}
