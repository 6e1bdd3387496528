package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/pathway/internal/config"
	"github.com/aretw0/pathway/internal/metrics"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/graph"
)

// Reload refreshes module id after its document changed on disk. Rules are saved
// again and, on the sqlite backend, the module itself is re-imported. Documents that
// fail graph validation are still loaded; problems are logged.
func (b *Backend) Reload(ctx context.Context, id string, logger *slog.Logger) error {
	doc, err := b.Files.Document(ctx, id)
	if errors.Is(err, domain.ErrModuleNotFound) {
		logger.InfoContext(ctx, "module document removed", "module_id", id)
		return nil
	}
	if err != nil {
		return err
	}

	for _, verr := range graph.ValidateModuleGraph(doc.Module.Nodes, doc.Module.Edges) {
		logger.WarnContext(ctx, "reloaded module has graph errors", "module_id", id, "node_id", verr.NodeID, "err", verr.Message)
	}

	if b.kind == config.BackendSQLite {
		if err := b.Stores.Modules.UpsertModule(ctx, doc.Module); err != nil {
			return fmt.Errorf("failed to import module %s: %w", id, err)
		}
	}
	if err := saveRules(ctx, doc, b.Stores); err != nil {
		return err
	}
	metrics.ModuleReloads.Inc()
	logger.InfoContext(ctx, "module reloaded", "module_id", id, "nodes", len(doc.Module.Nodes))
	return nil
}

// WatchModules reloads changed module documents until ctx is done. onReload, when set,
// is called with the id of each module after it was reloaded.
func WatchModules(ctx context.Context, b *Backend, logger *slog.Logger, onReload func(id string)) error {
	events, err := b.Files.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", b.Files.Dir(), err)
	}
	logger.InfoContext(ctx, "watching module documents", "dir", b.Files.Dir())

	go func() {
		for id := range events {
			if err := b.Reload(ctx, id, logger); err != nil {
				logger.ErrorContext(ctx, "module reload failed", "module_id", id, "err", err)
				continue
			}
			if onReload != nil {
				onReload(id)
			}
		}
	}()
	return nil
}
