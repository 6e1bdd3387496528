package pathway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/internal/runtime"
	"github.com/aretw0/pathway/pkg/adapters/memory"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
	"github.com/aretw0/pathway/pkg/session"
)

type (
	// MediaController pauses media when an overlay router opens.
	MediaController = runtime.MediaController
	// Interpolator renders node text against learner variables.
	Interpolator = runtime.Interpolator
	// Outcome describes the effect of a navigation step.
	Outcome = runtime.Outcome
)

// Engine is the high-level entry point for playback and editing.
type Engine struct {
	stores       ports.Stores
	navigator    *runtime.Navigator
	sessions     *session.Manager
	locker       ports.DistributedLocker
	hooks        domain.LifecycleHooks
	media        MediaController
	interpolator Interpolator
	strict       bool
	logger       *slog.Logger
	now          func() time.Time
	newID        func() string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStores sets the persistence ports. Every port must be set.
func WithStores(stores ports.Stores) Option {
	return func(e *Engine) {
		e.stores = stores
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithMediaController sets the controller paused when an overlay opens.
func WithMediaController(media MediaController) Option {
	return func(e *Engine) {
		e.media = media
	}
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLocker serializes sessions across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithStrictConditions makes failing router conditions block choices.
func WithStrictConditions(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithInterpolator sets the renderer of node text. Defaults to text/template.
func WithInterpolator(interp Interpolator) Option {
	return func(e *Engine) {
		e.interpolator = interp
	}
}

// WithIDGenerator overrides the generator of completion ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// New initializes an Engine. Without WithStores every port is kept in memory.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		logger:       logging.NewNop(),
		media:        runtime.NopMedia{},
		interpolator: runtime.DefaultInterpolator,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.stores.IsZero() {
		eng.stores = memory.NewStoresWithClock(eng.now)
	}
	if missing := eng.stores.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("incomplete stores: missing %s", strings.Join(missing, ", "))
	}

	eng.navigator = runtime.NewNavigator(
		runtime.WithLogger(eng.logger),
		runtime.WithMediaController(eng.media),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithStrictChoices(eng.strict),
		runtime.WithClock(eng.now),
	)

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.stores.Cursors, sessionOpts...)

	return eng, nil
}

// Stores returns the ports the engine persists through.
func (e *Engine) Stores() ports.Stores {
	return e.stores
}

// Watch returns a channel of changed module ids when the module repository supports it.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.stores.Modules.(ports.ModuleWatcher); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("module repository does not support watching")
}

func (e *Engine) loadModule(ctx context.Context, moduleID string) (*domain.Module, error) {
	m, err := e.stores.Modules.GetModule(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load module %s: %w", moduleID, err)
	}
	return m, nil
}
