package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/breadboard/pkg/domain"
)

// LogHooks logs stabilization failures and truth table runs.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStabilize: func(ctx context.Context, e *domain.StabilizeEvent) {
			if !e.Stable {
				logger.WarnContext(ctx, "circuit did not stabilize", "passes", e.Passes)
			}
		},
		OnEnumerate: func(ctx context.Context, e *domain.EnumerateEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "truth table failed", "inputs", e.Inputs, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "truth table",
				"inputs", e.Inputs,
				"slots", e.Slots,
				"unstable", e.Unstable,
				"duration", e.Duration,
			)
		},
	}
}

// Combine fans every event out to each set of hooks, in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		if h.OnPass != nil {
			out.OnPass = chain(out.OnPass, h.OnPass)
		}
		if h.OnStabilize != nil {
			out.OnStabilize = chain(out.OnStabilize, h.OnStabilize)
		}
		if h.OnEnumerate != nil {
			out.OnEnumerate = chain(out.OnEnumerate, h.OnEnumerate)
		}
	}
	return out
}

func chain[E any](first, next func(context.Context, E)) func(context.Context, E) {
	if first == nil {
		return next
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}
