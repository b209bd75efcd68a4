package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/huangang/feedback360/internal/models"
)

type memoryRepository struct {
	mu    sync.RWMutex
	items map[string]models.Assessment
	order []string
}

// NewMemoryRepository returns a process-local repository. Contents are lost on restart.
func NewMemoryRepository() AssessmentRepository {
	return &memoryRepository{items: make(map[string]models.Assessment)}
}

func (r *memoryRepository) Create(_ context.Context, a models.Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[a.ID]; exists {
		return fmt.Errorf("assessment %s already exists", a.ID)
	}
	r.items[a.ID] = a.Clone()
	r.order = append(r.order, a.ID)
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (models.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return models.Assessment{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return a.Clone(), nil
}

func (r *memoryRepository) ListAll(_ context.Context) ([]models.Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Assessment, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.items[r.order[i]].Clone())
	}
	return out, nil
}

func (r *memoryRepository) AppendSubmission(ctx context.Context, id string, sub models.FeedbackSubmission) (models.Assessment, error) {
	return r.Update(ctx, id, func(a models.Assessment) (models.Assessment, error) {
		return applySubmission(a, sub)
	})
}

func (r *memoryRepository) Update(_ context.Context, id string, mutate func(models.Assessment) (models.Assessment, error)) (models.Assessment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return models.Assessment{}, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	next, err := mutate(current.Clone())
	if err != nil {
		return models.Assessment{}, err
	}
	next.ID = current.ID
	r.items[id] = next.Clone()
	return next, nil
}
