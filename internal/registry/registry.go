package registry

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/alisaviation/metricboard/internal/models"
)

// Registry is the in-memory source catalog: pure bookkeeping, no I/O. Duplicate
// names are permitted and treated as distinct sources.
type Registry struct {
	mu       sync.Mutex
	sources  []models.Source
	onChange func()
}

func NewRegistry() *Registry {
	return &Registry{}
}

// SetOnChange registers a presentation-layer callback invoked after every
// add/remove. Not part of the core contract; may be nil.
func (r *Registry) SetOnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

func (r *Registry) Add(kind models.SourceKind, name string) (models.Source, error) {
	if name == "" {
		return models.Source{}, fmt.Errorf("source name must not be empty")
	}

	src := models.Source{ID: uuid.NewString(), Kind: kind, Name: name}

	r.mu.Lock()
	r.sources = append(r.sources, src)
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
	return src, nil
}

// Restore re-inserts an already-identified source, used when seeding from a
// persistent catalog. The change callback is not invoked.
func (r *Registry) Restore(src models.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, src)
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	removed := false
	for i, src := range r.sources {
		if src.ID == id {
			r.sources = append(r.sources[:i], r.sources[i+1:]...)
			removed = true
			break
		}
	}
	fn := r.onChange
	r.mu.Unlock()

	if removed && fn != nil {
		fn()
	}
	return removed
}

// List returns the sources in registration order.
func (r *Registry) List() []models.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Source, len(r.sources))
	copy(out, r.sources)
	return out
}
