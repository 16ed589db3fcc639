package registry

import (
	"context"
	"fmt"

	"github.com/vk/realityserver/internal/ctxlog"
)

// invoke runs a subscriber or host callback. A panic or error is logged and
// counted under kind and returned, so the caller can move on to the next
// subscriber.
func invoke(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s callback panicked: %v", kind, rec)
		}
		if err != nil {
			callbackFailuresTotal.WithLabelValues(kind).Inc()
			ctxlog.FromContext(ctx).Warn("Callback failed.", "kind", kind, "error", err)
		}
	}()
	return fn()
}
