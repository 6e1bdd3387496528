package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/loam"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
)

// Repository implements ports.ModuleRepository and ports.ModuleWatcher over a
// directory of module documents. Documents are read and written through a loam
// repository rooted at the directory, opened on first use so that a missing
// directory reads as empty.
type Repository struct {
	dir    string
	logger *slog.Logger

	mu   sync.Mutex
	docs *loam.TypedRepository[map[string]any]
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used by Watch.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// New creates a repository rooted at dir.
func New(dir string, opts ...Option) *Repository {
	r := &Repository{dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the root directory.
func (r *Repository) Dir() string {
	return r.dir
}

// store opens the loam repository, creating the directory when create is set. It
// returns nil without error when the directory does not exist and create is unset.
func (r *Repository) store(create bool) (*loam.TypedRepository[map[string]any], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.docs != nil {
		return r.docs, nil
	}

	if _, err := os.Stat(r.dir); errors.Is(err, fs.ErrNotExist) {
		if !create {
			return nil, nil
		}
		if err := os.MkdirAll(r.dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to ensure module directory: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(r.dir)
	if err != nil {
		return nil, fmt.Errorf("invalid module directory: %w", err)
	}
	// Documents are plain files: no git history, and writes land in the directory itself.
	repo, err := loam.Init(abs, loam.WithVersioning(false), loam.WithForceTemp(false))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam at %s: %w", abs, err)
	}
	r.docs = loam.NewTypedRepository[map[string]any](repo)
	return r.docs, nil
}

// locate returns the extension of the document of id, or "" when none exists.
func (r *Repository) locate(id string) (string, error) {
	if id == "" || filepath.Base(id) != id || strings.HasPrefix(id, ".") {
		return "", nil
	}
	for _, ext := range Extensions {
		if info, err := os.Stat(filepath.Join(r.dir, id+ext)); err == nil {
			if !info.IsDir() {
				return ext, nil
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", nil
}

// Document loads the full document of a module, including variables and conditions.
// The file name is the module id.
func (r *Repository) Document(ctx context.Context, id string) (*Document, error) {
	ext, err := r.locate(id)
	if err != nil {
		return nil, fmt.Errorf("failed to locate module %s: %w", id, err)
	}
	docs, err := r.store(false)
	if err != nil {
		return nil, err
	}
	if ext == "" || docs == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrModuleNotFound, id)
	}

	// loam resolves the bare id to the file on disk.
	model, err := docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	raw, _ := normalize(model.Data).(map[string]any)
	if len(raw) == 0 {
		return nil, fmt.Errorf("parse %s%s: empty document", id, ext)
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s%s: %w", id, ext, err)
	}
	doc.bind(id)
	return doc, nil
}

func (r *Repository) GetModule(ctx context.Context, id string) (*domain.Module, error) {
	doc, err := r.Document(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.Module, nil
}

// UpsertModule rewrites the module in place, keeping the document's variables and
// conditions and its format. New modules are written as YAML.
func (r *Repository) UpsertModule(ctx context.Context, m *domain.Module) error {
	if m == nil || m.ID == "" {
		return fmt.Errorf("module missing ID")
	}
	if filepath.Base(m.ID) != m.ID || strings.HasPrefix(m.ID, ".") {
		return fmt.Errorf("invalid module id %q", m.ID)
	}

	ext, err := r.locate(m.ID)
	if err != nil {
		return fmt.Errorf("failed to locate module %s: %w", m.ID, err)
	}
	doc := &Document{}
	if ext == "" {
		ext = ".yaml"
	} else if existing, err := r.Document(ctx, m.ID); err == nil {
		doc = existing
	}
	doc.Module = m.Clone()

	data, err := doc.fields()
	if err != nil {
		return fmt.Errorf("failed to encode module %s: %w", m.ID, err)
	}
	docs, err := r.store(true)
	if err != nil {
		return err
	}
	err = docs.Save(ctx, &loam.DocumentModel[map[string]any]{
		ID:   m.ID + ext,
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("failed to save module %s: %w", m.ID, err)
	}
	return nil
}

// ListModules returns the ids of every document in the directory, sorted.
func (r *Repository) ListModules(ctx context.Context) ([]string, error) {
	docs, err := r.store(false)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		return []string{}, nil
	}
	models, err := docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}

	seen := map[string]bool{}
	ids := []string{}
	for _, model := range models {
		name := filepath.ToSlash(model.ID)
		if strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if seen[id] {
			continue
		}
		// Only ids backed by a document file in a supported format count.
		if ext, err := r.locate(id); err != nil || ext == "" {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch emits the id of every document written, created, renamed or removed in the
// directory until ctx is done. The channel is closed afterwards.
func (r *Repository) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("module watcher: %w", err)
	}
	if err := w.Add(r.dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("module watcher add %s: %w", r.dir, err)
	}

	changes := make(chan string, 16)
	go func() {
		defer close(changes)
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				name := filepath.Base(ev.Name)
				if !supported(name) || strings.HasPrefix(name, ".") {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
					!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
					continue
				}
				id := stem(name)
				r.logger.DebugContext(ctx, "module changed", "module_id", id, "op", ev.Op.String())
				select {
				case changes <- id:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.logger.WarnContext(ctx, "module watcher error", "err", err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return changes, nil
}
