package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pathway/internal/metrics"
	"github.com/aretw0/pathway/pkg/domain"
)

// LoggingHooks logs every lifecycle event at info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_enter",
				"module_id", e.ModuleID,
				"user_id", e.UserID,
				"node_id", e.NodeID,
				"type", e.NodeType,
			)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_leave", "module_id", e.ModuleID, "user_id", e.UserID, "node_id", e.NodeID)
		},
		OnOverlayOpen: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "overlay_open", "module_id", e.ModuleID, "user_id", e.UserID, "node_id", e.NodeID)
		},
		OnCompleted: func(ctx context.Context, e *domain.CompletionEvent) {
			logger.InfoContext(ctx, "completed", "module_id", e.ModuleID, "user_id", e.UserID, "node_id", e.LastNodeID)
		},
	}
}

// MetricsHooks counts node visits, overlays and completions.
func MetricsHooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			metrics.NodeVisits.WithLabelValues(e.ModuleID, string(e.NodeType)).Inc()
		},
		OnOverlayOpen: func(_ context.Context, e *domain.NodeEvent) {
			metrics.OverlaysOpened.WithLabelValues(e.ModuleID).Inc()
		},
		OnCompleted: func(_ context.Context, e *domain.CompletionEvent) {
			metrics.Completions.WithLabelValues(e.ModuleID).Inc()
		},
	}
}

// Combine fans every event out to all hooks, in order. Nil callbacks are skipped.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnNodeEnter = chainNode(out.OnNodeEnter, h.OnNodeEnter)
		out.OnNodeLeave = chainNode(out.OnNodeLeave, h.OnNodeLeave)
		out.OnOverlayOpen = chainNode(out.OnOverlayOpen, h.OnOverlayOpen)
		out.OnCompleted = chainCompleted(out.OnCompleted, h.OnCompleted)
	}
	return out
}

func chainNode(a, b func(context.Context, *domain.NodeEvent)) func(context.Context, *domain.NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainCompleted(a, b func(context.Context, *domain.CompletionEvent)) func(context.Context, *domain.CompletionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.CompletionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
