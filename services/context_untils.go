package services

import (
	"context"
	"time"
)

func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

// boundedContext detaches ctx from request cancellation and caps it with
// timeout. Used for work that must outlive the HTTP request.
func boundedContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return context.WithTimeout(persistentContext(ctx), timeout)
}
