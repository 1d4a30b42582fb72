package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// sharedFetchTimeout bounds a fetch that several callers wait on
const sharedFetchTimeout = 30 * time.Second

// sharedFetch runs fn once per key for all concurrent callers. fn gets a context that keeps
// ctx's values but not its cancellation, so one caller going away does not fail the others;
// each caller still stops waiting when its own ctx is done.
func sharedFetch(ctx context.Context, group *singleflight.Group, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		return fn(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}
