package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/logic"
)

// Registry manages the available component kinds: the built-in catalogue
// and the custom blocks registered at runtime.
type Registry struct {
	mu      sync.RWMutex
	kinds   map[string]*domain.Kind
	aliases map[string]string
	order   []string // built-ins, in catalogue order
}

// NewRegistry creates a registry seeded with the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{
		kinds:   make(map[string]*domain.Kind),
		aliases: make(map[string]string, len(builtinAliases)),
	}
	for _, k := range builtins() {
		r.kinds[k.Name] = k
		r.order = append(r.order, k.Name)
	}
	for alias, name := range builtinAliases {
		r.aliases[alias] = name
	}
	return r
}

func (r *Registry) resolve(name string) string {
	if n, ok := r.aliases[name]; ok {
		return n
	}
	return name
}

// Lookup returns the kind registered under name or one of its aliases.
func (r *Registry) Lookup(name string) (*domain.Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.kinds[r.resolve(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrKindNotFound, name)
	}
	return k, nil
}

// Resolve maps a legacy alias to its canonical kind name. Other names are
// returned unchanged.
func (r *Registry) Resolve(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(name)
}

// Builtin returns the built-in kind registered under name or one of its
// aliases.
func (r *Registry) Builtin(name string) (*domain.Kind, bool) {
	k, err := r.Lookup(name)
	if err != nil || !k.Builtin {
		return nil, false
	}
	return k, true
}

// Register adds a custom kind. Names are unique: a name already taken by a
// kind or an alias is rejected.
func (r *Registry) Register(k *domain.Kind) error {
	if k == nil || strings.TrimSpace(k.Name) == "" {
		return fmt.Errorf("%w: kind name is required", domain.ErrValidation)
	}
	if k.Inputs < 0 || k.Outputs < 0 {
		return fmt.Errorf("%w: kind %q has a negative arity", domain.ErrValidation, k.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.aliases[k.Name]; ok {
		return fmt.Errorf("%w: %w: %s", domain.ErrValidation, domain.ErrDuplicateKind, k.Name)
	}
	if _, ok := r.kinds[k.Name]; ok {
		return fmt.Errorf("%w: %w: %s", domain.ErrValidation, domain.ErrDuplicateKind, k.Name)
	}
	r.kinds[k.Name] = k
	return nil
}

// RegisterBlock validates and registers a custom block.
func (r *Registry) RegisterBlock(name string, inputs, outputs int, prog *logic.Program) (*domain.Kind, error) {
	k, err := domain.NewCustomKind(name, inputs, outputs, prog)
	if err != nil {
		return nil, err
	}
	if err := r.Register(k); err != nil {
		return nil, err
	}
	return k, nil
}

// Unregister removes a custom kind. Built-ins cannot be removed.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.kinds[r.resolve(name)]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrKindNotFound, name)
	}
	if k.Builtin {
		return fmt.Errorf("%w: %s", domain.ErrBuiltinKind, k.Name)
	}
	delete(r.kinds, k.Name)
	return nil
}

// List returns the built-ins in catalogue order followed by the custom
// blocks sorted by name.
func (r *Registry) List() []*domain.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Kind, 0, len(r.kinds))
	for _, n := range r.order {
		out = append(out, r.kinds[n])
	}
	var custom []*domain.Kind
	for _, k := range r.kinds {
		if !k.Builtin {
			custom = append(custom, k)
		}
	}
	sort.Slice(custom, func(i, j int) bool { return custom[i].Name < custom[j].Name })
	return append(out, custom...)
}
