package registry

import (
	"context"
	"errors"

	"github.com/vk/realityserver/internal/ctxlog"
)

// RunGlobalReset runs every reset listener in registration order. A failing
// listener does not stop the ones after it; their errors are joined.
func (r *Registry) RunGlobalReset(ctx context.Context) error {
	return r.runLifecycle(ctx, LifecycleReset)
}

// RunGlobalShutdown runs every shutdown listener in registration order.
func (r *Registry) RunGlobalShutdown(ctx context.Context) error {
	return r.runLifecycle(ctx, LifecycleShutdown)
}

func (r *Registry) runLifecycle(ctx context.Context, kind LifecycleKind) error {
	listeners := r.subs.lifecycleFor(kind)
	ctxlog.FromContext(ctx).Debug("Running lifecycle listeners.", "kind", kind, "count", len(listeners))

	var errs []error
	for _, fn := range listeners {
		dispatchTotal.WithLabelValues(string(kind)).Inc()
		if err := invoke(ctx, string(kind), func() error { return fn(ctx) }); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
