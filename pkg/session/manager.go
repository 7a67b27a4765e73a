package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/breadboard/internal/logging"
	"github.com/aretw0/breadboard/internal/runtime"
	"github.com/aretw0/breadboard/pkg/adapters/memory"
	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/codec"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/ports"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultLockTTL bounds how long a distributed session lock survives a
// crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// live is a loaded session.
type live struct {
	id         string
	graph      *circuit.Graph
	simulating bool
}

// Manager owns the live circuits, one per session. Operations on a session
// are serialized; distinct sessions proceed in parallel. Every edit is
// written back to the store so a restarted process finds its circuits again.
type Manager struct {
	store  ports.CircuitStore
	kinds  *registry.Registry
	engine *runtime.Engine

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // refcounted, removed when unused

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger

	smu      sync.RWMutex
	sessions map[string]*live

	flight singleflight.Group
	jmu    sync.RWMutex
	jobs   map[string]*Job
	byKey  map[string]string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a session manager. A nil store keeps circuits in
// memory only; nil kinds and engine get the defaults.
func NewManager(store ports.CircuitStore, kinds *registry.Registry, engine *runtime.Engine, opts ...Option) *Manager {
	if store == nil {
		store = memory.NewStore()
	}
	if kinds == nil {
		kinds = registry.NewRegistry()
	}
	if engine == nil {
		engine = runtime.NewEngine()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		store:    store,
		kinds:    kinds,
		engine:   engine,
		locks:    make(map[string]*lockEntry),
		lockTTL:  DefaultLockTTL,
		logger:   logging.NewNop(),
		sessions: make(map[string]*live),
		jobs:     make(map[string]*Job),
		byKey:    make(map[string]string),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close cancels running truth table jobs and waits for them.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

// Kinds returns the component registry.
func (m *Manager) Kinds() *registry.Registry { return m.kinds }

// Store returns the underlying circuit store.
func (m *Manager) Store() ports.CircuitStore { return m.store }

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}
	return fn(ctx)
}

// load returns the live session, restoring it from the store when this
// process has not seen it yet. Callers hold the session lock.
func (m *Manager) load(ctx context.Context, id string) (*live, error) {
	m.smu.RLock()
	s, ok := m.sessions[id]
	m.smu.RUnlock()
	if ok {
		return s, nil
	}

	data, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCircuitNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	frag, err := codec.Decode(data, m.kinds, codec.Restore(), codec.WithLogger(m.logger))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	if err := m.register(frag.Kinds); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	g := circuit.New()
	if err := g.Merge(frag.Components, frag.Connections); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}

	s = &live{id: id, graph: g}
	m.smu.Lock()
	m.sessions[id] = s
	m.smu.Unlock()
	m.logger.Debug("session restored", "session_id", id, "components", g.Len())
	return s, nil
}

// register adds the custom blocks carried by a document. A block registered
// concurrently under the same name is reused.
func (m *Manager) register(kinds []*domain.Kind) error {
	for _, k := range kinds {
		if err := m.kinds.Register(k); err != nil && !errors.Is(err, domain.ErrDuplicateKind) {
			return err
		}
	}
	return nil
}

func (m *Manager) persist(ctx context.Context, s *live) error {
	data, err := codec.Encode(s.graph)
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, s.id, data); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.id, err)
	}
	return nil
}

// view runs fn on a loaded session without persisting anything.
func (m *Manager) view(ctx context.Context, id string, fn func(*live) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		s, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		return fn(s)
	})
}

// edit runs fn on a copy of a loaded session, propagates once when the
// simulation is running, and saves the result. The copy replaces the live
// session only once it is saved, so a failed edit changes nothing.
func (m *Manager) edit(ctx context.Context, id string, fn func(*live) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		s, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		staged := &live{id: s.id, graph: s.graph.Clone(), simulating: s.simulating}
		if err := fn(staged); err != nil {
			return err
		}
		if staged.simulating {
			if _, err := m.engine.Step(ctx, staged.graph); err != nil {
				return err
			}
		}
		if err := m.persist(ctx, staged); err != nil {
			return err
		}
		*s = *staged
		return nil
	})
}

// Create starts a new empty circuit under a fresh id.
func (m *Manager) Create(ctx context.Context) (*Snapshot, error) {
	return m.Open(ctx, uuid.NewString())
}

// Open returns the session, creating an empty circuit if none exists.
func (m *Manager) Open(ctx context.Context, id string) (*Snapshot, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session id cannot be empty", domain.ErrValidation)
	}
	var snap *Snapshot
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		s, err := m.load(ctx, id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			s = &live{id: id, graph: circuit.New()}
			if err := m.persist(ctx, s); err != nil {
				return fmt.Errorf("failed to initialize session: %w", err)
			}
			m.smu.Lock()
			m.sessions[id] = s
			m.smu.Unlock()
			m.logger.Info("session created", "session_id", id)
		} else if err != nil {
			return err
		}
		snap = snapshot(s)
		return nil
	})
	return snap, err
}

// Snapshot returns the current view of a session.
func (m *Manager) Snapshot(ctx context.Context, id string) (*Snapshot, error) {
	var snap *Snapshot
	err := m.view(ctx, id, func(s *live) error {
		snap = snapshot(s)
		return nil
	})
	return snap, err
}

// Delete forgets the session and removes it from the store.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.smu.Lock()
		delete(m.sessions, id)
		m.smu.Unlock()
		m.dropJobs(id)
		return m.store.Delete(ctx, id)
	})
}

// List returns the stored session ids.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Clear removes every component and connection of a session.
func (m *Manager) Clear(ctx context.Context, id string) error {
	return m.edit(ctx, id, func(s *live) error {
		s.graph.Clear()
		return nil
	})
}
