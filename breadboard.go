package breadboard

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/breadboard/internal/adapters/file"
	redisStore "github.com/aretw0/breadboard/internal/adapters/redis"
	"github.com/aretw0/breadboard/internal/config"
	"github.com/aretw0/breadboard/internal/logging"
	"github.com/aretw0/breadboard/internal/runtime"
	"github.com/aretw0/breadboard/pkg/adapters/memory"
	redisLock "github.com/aretw0/breadboard/pkg/adapters/redis"
	"github.com/aretw0/breadboard/pkg/circuit"
	"github.com/aretw0/breadboard/pkg/codec"
	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/aretw0/breadboard/pkg/observability"
	"github.com/aretw0/breadboard/pkg/persistence/middleware"
	"github.com/aretw0/breadboard/pkg/ports"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/aretw0/breadboard/pkg/session"
)

// Version is the release of the module. Builds override it with
// -ldflags "-X github.com/aretw0/breadboard.Version=...".
var Version = "0.1.0-dev"

// Simulator wires the registry, the engine, a circuit store and the session
// manager together.
type Simulator struct {
	Registry *registry.Registry
	Engine   *runtime.Engine
	Store    ports.CircuitStore
	Sessions *session.Manager
	Metrics  *observability.Metrics

	logger *slog.Logger
	closer func() error
}

// Option configures the Simulator.
type Option func(*Simulator)

// WithLogger sets a structured logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore injects a circuit store, bypassing the configured backend.
func WithStore(store ports.CircuitStore) Option {
	return func(s *Simulator) {
		s.Store = store
	}
}

// WithMetrics enables the Prometheus collectors.
func WithMetrics() Option {
	return func(s *Simulator) {
		s.Metrics = observability.NewMetrics()
	}
}

// New builds a Simulator from a configuration.
func New(cfg config.Config, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		Registry: registry.NewRegistry(),
		logger:   logging.NewNop(),
		closer:   func() error { return nil },
	}
	for _, opt := range opts {
		opt(s)
	}

	var sessionOpts []session.Option
	if s.Store == nil {
		switch cfg.Store.Backend {
		case config.BackendMemory:
			s.Store = memory.NewStore()
		case config.BackendFile:
			s.Store = file.New(cfg.Store.Dir)
		case config.BackendRedis:
			rs := redisStore.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
				redisStore.WithPrefix(cfg.Store.Redis.Prefix),
				redisStore.WithTTL(cfg.Store.Redis.TTL),
			)
			s.closer = rs.Close
			// Replicas sharing the store must also share the session locks.
			sessionOpts = append(sessionOpts,
				session.WithLocker(redisLock.NewLocker(rs.Client(), cfg.Store.Redis.Prefix)))
		}
	}

	if cfg.Store.Encryption.Key != "" {
		mw, err := encryption(cfg.Store.Encryption)
		if err != nil {
			_ = s.closer()
			return nil, err
		}
		s.Store = middleware.Chain(s.Store, mw)
	}

	hooks := observability.LogHooks(s.logger)
	if s.Metrics != nil {
		hooks = observability.Combine(s.Metrics.Hooks(), hooks)
	}
	s.Engine = runtime.NewEngine(
		runtime.WithMaxPasses(cfg.Engine.MaxPasses),
		runtime.WithMaxInputs(cfg.Engine.MaxInputs),
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(hooks),
	)
	sessionOpts = append(sessionOpts, session.WithLogger(s.logger))
	s.Sessions = session.NewManager(s.Store, s.Registry, s.Engine, sessionOpts...)

	s.logger.Debug("simulator ready",
		"store", cfg.Store.Backend,
		"max_passes", s.Engine.MaxPasses(),
		"max_inputs", s.Engine.MaxInputs(),
	)
	return s, nil
}

func encryption(cfg config.EncryptionConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("store.encryption.key: %w", err)
	}
	ec := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.encryption.fallback_keys[%d]: %w", i, err)
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(ec)
}

// Logger returns the logger shared by the components.
func (s *Simulator) Logger() *slog.Logger { return s.logger }

// Close stops running truth table jobs and releases the store.
func (s *Simulator) Close() error {
	s.Sessions.Close()
	return s.closer()
}

// Decode reads a circuit document into a fresh graph, keeping its ids.
// Custom blocks carried by the document are registered.
func (s *Simulator) Decode(data []byte) (*circuit.Graph, *codec.Fragment, error) {
	frag, err := codec.Decode(data, s.Registry, codec.Restore(), codec.WithLogger(s.logger))
	if err != nil {
		return nil, nil, err
	}
	for _, k := range frag.Kinds {
		if _, err := s.Registry.Lookup(k.Name); err == nil {
			continue
		}
		if err := s.Registry.Register(k); err != nil {
			return nil, nil, err
		}
	}
	g := circuit.New()
	if err := g.Merge(frag.Components, frag.Connections); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", domain.ErrFormat, err)
	}
	return g, frag, nil
}

// TruthTableFile enumerates the circuit stored in a document file.
func (s *Simulator) TruthTableFile(ctx context.Context, path string) (*domain.TruthTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read circuit: %w", err)
	}
	g, _, err := s.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s.Engine.Enumerate(ctx, g)
}
