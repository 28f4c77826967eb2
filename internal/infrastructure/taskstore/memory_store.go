package taskstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	domain "github.com/yash-jain-1224/crm-dashboard/internal/domain/upload"
)

// MemoryStore keeps upload tasks in process memory. Tasks are lost on restart
// and are not visible to other processes.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task

	now   func() time.Time
	newID func() string
}

type Option func(*MemoryStore)

func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *MemoryStore) {
		s.newID = newID
	}
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		tasks: make(map[string]*domain.Task),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, entity crm.Kind, total int) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	task := domain.NewTask(id, entity, total, s.now())
	s.tasks[id] = &task
	return task.Clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, taskID string) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return task.Clone(), nil
}

func (s *MemoryStore) Start(ctx context.Context, taskID string) error {
	return s.update(taskID, func(task *domain.Task, now time.Time) error {
		return task.Start(now)
	})
}

func (s *MemoryStore) ApplyBatch(ctx context.Context, taskID string, batch domain.BatchResult) error {
	return s.update(taskID, func(task *domain.Task, _ time.Time) error {
		return task.Apply(batch)
	})
}

func (s *MemoryStore) Complete(ctx context.Context, taskID string) error {
	return s.update(taskID, func(task *domain.Task, now time.Time) error {
		return task.Complete(now)
	})
}

func (s *MemoryStore) Fail(ctx context.Context, taskID string, reason string) error {
	return s.update(taskID, func(task *domain.Task, now time.Time) error {
		return task.Fail(now, reason)
	})
}

// Evict drops finished tasks whose completion is older than retention and
// returns how many were removed. Queued and processing tasks are kept.
func (s *MemoryStore) Evict(now time.Time, retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-retention)
	removed := 0
	for id, task := range s.tasks {
		if !task.Status.Terminal() || task.CompletedAt == nil {
			continue
		}
		if task.CompletedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *MemoryStore) update(taskID string, mutate func(*domain.Task, time.Time) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}

	// Mutate a copy so a rejected update leaves the stored task untouched.
	next := task.Clone()
	if err := mutate(&next, s.now()); err != nil {
		return err
	}
	*task = next
	return nil
}
