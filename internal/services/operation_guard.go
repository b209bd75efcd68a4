package services

import (
	"fmt"
	"sync"

	"github.com/huangang/feedback360/internal/models"
)

// OperationGuard admits at most one in-flight operation per key.
type OperationGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewOperationGuard() *OperationGuard {
	return &OperationGuard{inFlight: make(map[string]struct{})}
}

// Acquire marks key busy and returns its release func, or ErrBusy if key is already held.
// The release func is safe to call more than once.
func (g *OperationGuard) Acquire(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[key]; busy {
		return nil, fmt.Errorf("%w: %s", models.ErrBusy, key)
	}
	g.inFlight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, key)
			g.mu.Unlock()
		})
	}, nil
}

func (g *OperationGuard) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[key]
	return busy
}

func operationKey(op, id string) string {
	return op + ":" + id
}
