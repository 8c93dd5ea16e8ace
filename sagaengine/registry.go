package sagaengine

import "ordersaga/step"

// Registry is the immutable, ordered catalogue of step.Definitions for one
// saga type (spec §4.1). Ordering determines both forward execution order
// and reverse compensation order; it never changes after construction.
type Registry struct {
	steps []step.Definition
	index map[string]int
}

// NewRegistry builds a Registry from steps in forward execution order.
// Step names must be unique; NewRegistry panics on a duplicate, since a
// malformed registry is a programming error discovered at startup, not a
// runtime condition callers should handle.
func NewRegistry(steps ...step.Definition) *Registry {
	index := make(map[string]int, len(steps))
	for i, s := range steps {
		if _, exists := index[s.Name()]; exists {
			panic("sagaengine: duplicate step name " + s.Name())
		}
		index[s.Name()] = i
	}
	return &Registry{steps: steps, index: index}
}

// Len returns the number of registered steps.
func (r *Registry) Len() int { return len(r.steps) }

// At returns the step at forward index i.
func (r *Registry) At(i int) step.Definition { return r.steps[i] }

// ByName returns the step registered under name, and whether it exists.
func (r *Registry) ByName(name string) (step.Definition, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.steps[i], true
}

// Names returns the registered step names in forward order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.steps))
	for i, s := range r.steps {
		out[i] = s.Name()
	}
	return out
}
