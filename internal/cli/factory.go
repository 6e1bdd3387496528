package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/pathway"
	"github.com/aretw0/pathway/internal/config"
	"github.com/aretw0/pathway/pkg/adapters/file"
	"github.com/aretw0/pathway/pkg/adapters/memory"
	"github.com/aretw0/pathway/pkg/adapters/redis"
	"github.com/aretw0/pathway/pkg/adapters/sqlite"
	"github.com/aretw0/pathway/pkg/observability"
	"github.com/aretw0/pathway/pkg/persistence/middleware"
	"github.com/aretw0/pathway/pkg/ports"
)

// Backend is the set of stores built from a config, with the module directory it was
// seeded from.
type Backend struct {
	Stores ports.Stores
	Files  *file.Repository
	Locker ports.DistributedLocker

	kind    config.Backend
	closers []func() error
}

// Close releases database handles and connections.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// OpenBackend builds the stores selected by cfg.Storage. Module documents always come
// from cfg.Modules.Dir:
//   - memory: modules are read from the directory, everything else lives in memory.
//   - redis: cursors and learner data live in Redis, sessions are locked across replicas.
//   - sqlite: documents are imported into the database, which then serves modules,
//     rules and completions. Cursors and learner state stay in memory.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	files := file.New(cfg.Modules.Dir, file.WithLogger(logger))
	mem := memory.NewStores()
	b := &Backend{Files: files, Stores: mem, kind: cfg.Storage.Backend}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		b.Stores.Modules = files
		if err := SeedRules(ctx, files, mem); err != nil {
			return nil, err
		}

	case config.BackendRedis:
		rc := cfg.Storage.Redis
		opts := []redis.Option{redis.WithPrefix(rc.Prefix)}
		if rc.TTL > 0 {
			opts = append(opts, redis.WithTTL(rc.TTL))
		}
		store := redis.New(rc.Addr, rc.Password, rc.DB, opts...)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", rc.Addr, err)
		}
		b.closers = append(b.closers, store.Close)
		b.Stores.Modules = files
		b.Stores.Learners = store
		b.Stores.Progress = store
		b.Stores.Completions = store
		b.Stores.Cursors = store
		b.Locker = redis.NewLocker(store.Client(), rc.Prefix)
		if err := SeedRules(ctx, files, mem); err != nil {
			_ = b.Close()
			return nil, err
		}

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		b.Stores.Modules = db
		b.Stores.Variables = db
		b.Stores.Conditions = db
		b.Stores.Completions = db
		if err := Import(ctx, files, b.Stores); err != nil {
			_ = b.Close()
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if enc := cfg.Storage.Encryption; enc.Enabled() {
		active, fallback, err := enc.Keys()
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Stores.Learners = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		})(b.Stores.Learners)
		logger.Info("learner state encryption enabled", "fallback_keys", len(fallback))
	}

	logger.Info("storage ready", "backend", cfg.Storage.Backend, "modules_dir", cfg.Modules.Dir)
	return b, nil
}

// NewEngine builds an engine over the backend following cfg.
func NewEngine(cfg *config.Config, b *Backend, logger *slog.Logger, opts ...pathway.Option) (*pathway.Engine, error) {
	base := []pathway.Option{
		pathway.WithStores(b.Stores),
		pathway.WithLogger(logger),
		pathway.WithStrictConditions(cfg.Engine.StrictConditions),
		pathway.WithLifecycleHooks(observability.Combine(
			observability.LoggingHooks(logger),
			observability.MetricsHooks(),
		)),
	}
	if b.Locker != nil {
		base = append(base, pathway.WithLocker(b.Locker))
	}
	eng, err := pathway.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return eng, nil
}

// SeedRules copies the variables and conditions of every document in files into rules.
func SeedRules(ctx context.Context, files *file.Repository, rules ports.Stores) error {
	ids, err := listDocuments(ctx, files)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := SeedModuleRules(ctx, files, rules, id); err != nil {
			return err
		}
	}
	return nil
}

// SeedModuleRules copies the variables and conditions of one document.
func SeedModuleRules(ctx context.Context, files *file.Repository, rules ports.Stores, id string) error {
	doc, err := files.Document(ctx, id)
	if err != nil {
		return err
	}
	return saveRules(ctx, doc, rules)
}

// Import copies every document in files, module and rules, into stores.
func Import(ctx context.Context, files *file.Repository, stores ports.Stores) error {
	ids, err := listDocuments(ctx, files)
	if err != nil {
		return err
	}
	for _, id := range ids {
		doc, err := files.Document(ctx, id)
		if err != nil {
			return err
		}
		if err := stores.Modules.UpsertModule(ctx, doc.Module); err != nil {
			return fmt.Errorf("failed to import module %s: %w", id, err)
		}
		if err := saveRules(ctx, doc, stores); err != nil {
			return err
		}
	}
	return nil
}

func saveRules(ctx context.Context, doc *file.Document, stores ports.Stores) error {
	for _, v := range doc.Variables {
		if err := stores.Variables.SaveVariable(ctx, v); err != nil {
			return fmt.Errorf("failed to save variable %s: %w", v.ID, err)
		}
	}
	for _, c := range doc.Conditions {
		if err := stores.Conditions.SaveCondition(ctx, c); err != nil {
			return fmt.Errorf("failed to save condition %s: %w", c.ID, err)
		}
	}
	return nil
}

// listDocuments lists module ids, treating a missing directory as empty.
func listDocuments(ctx context.Context, files *file.Repository) ([]string, error) {
	if _, err := os.Stat(files.Dir()); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	ids, err := files.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules in %s: %w", files.Dir(), err)
	}
	return ids, nil
}
