package cipher

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps operation names to operations. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	ops     map[string]Operation
	metrics *Metrics
}

// NewRegistry returns an empty registry. A nil m disables metrics.
func NewRegistry(m *Metrics) *Registry {
	return &Registry{ops: make(map[string]Operation), metrics: m}
}

// Default is the registry populated with the built-in operations at init.
var Default = NewRegistry(DefaultMetrics)

// Register adds op to the registry
func (r *Registry) Register(op Operation) error {
	if op == nil {
		return fmt.Errorf("cannot register nil operation")
	}

	name := op.Name()
	if name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[name]; exists {
		return fmt.Errorf("operation %s is already registered", name)
	}

	r.ops[name] = op
	return nil
}

func (r *Registry) mustRegister(ops ...Operation) {
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			panic(err)
		}
	}
}

// Get retrieves an operation by name
func (r *Registry) Get(name string) (Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, exists := r.ops[name]
	return op, exists
}

// List returns all registered operations sorted by name
func (r *Registry) List() []Operation {
	return r.filter(func(Operation) bool { return true })
}

// ListByType returns operations of the given type sorted by name
func (r *Registry) ListByType(opType OperationType) []Operation {
	return r.filter(func(op Operation) bool { return op.Type() == opType })
}

func (r *Registry) filter(keep func(Operation) bool) []Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ops := make([]Operation, 0, len(r.ops))
	for _, op := range r.ops {
		if keep(op) {
			ops = append(ops, op)
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Name() < ops[j].Name()
	})

	return ops
}

// Unregister removes an operation from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.ops, name)
}

// Execute looks up name and runs it on input, recording the outcome in the
// registry's metrics.
func (r *Registry) Execute(ctx context.Context, name string, input []byte, params map[string]interface{}) ([]byte, error) {
	op, ok := r.Get(name)
	if !ok {
		r.metrics.observe(name, len(input), ErrUnknownOperation)
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}

	out, err := op.Execute(ctx, input, params)
	r.metrics.observe(name, len(input), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOperation retrieves an operation from the default registry
func GetOperation(name string) (Operation, bool) {
	return Default.Get(name)
}

// ListOperations returns every operation in the default registry
func ListOperations() []Operation {
	return Default.List()
}
