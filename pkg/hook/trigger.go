package hook

import (
	"context"
)

type triggerKey struct{}

// WithTrigger records the id of the resource which caused the work done
// under ctx, so resources created from it can name their trigger.
func WithTrigger(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, triggerKey{}, id)
}

func TriggerFrom(ctx context.Context) uint64 {
	id, _ := ctx.Value(triggerKey{}).(uint64)
	return id
}
