package refresh

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	scopes []string
}

func (r *recorder) handle(_ context.Context, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes = append(r.scopes, scope)
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.scopes...)
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	t.Parallel()

	bus := New()
	var a, b recorder
	bus.Subscribe("dashboard", a.handle)
	bus.Subscribe("chart", b.handle)

	bus.Publish(context.Background(), "tg:1")
	bus.Publish(context.Background(), "tg:2")
	bus.Wait()

	require.ElementsMatch(t, []string{"tg:1", "tg:2"}, a.got())
	require.ElementsMatch(t, []string{"tg:1", "tg:2"}, b.got())
	require.Equal(t, []string{"chart", "dashboard"}, bus.Subscribers())
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	bus := New()
	var rec recorder
	unsubscribe := bus.Subscribe("view", rec.handle)
	unsubscribe()
	unsubscribe()

	bus.Publish(context.Background(), "tg:1")
	bus.Wait()
	require.Empty(t, rec.got())
	require.Empty(t, bus.Subscribers())
}

func TestResubscribeReplaces(t *testing.T) {
	t.Parallel()

	bus := New()
	var first, second recorder
	stale := bus.Subscribe("view", first.handle)
	bus.Subscribe("view", second.handle)

	// Removing the replaced registration leaves the new one in place.
	stale()
	require.Equal(t, []string{"view"}, bus.Subscribers())

	bus.Publish(context.Background(), "tg:9")
	bus.Wait()
	require.Empty(t, first.got())
	require.Equal(t, []string{"tg:9"}, second.got())
}

func TestPublishSurvivesCancelAndPanic(t *testing.T) {
	t.Parallel()

	bus := New()
	bus.Subscribe("broken", func(context.Context, string) { panic("boom") })

	var ctxErr error
	var mu sync.Mutex
	bus.Subscribe("ctx", func(ctx context.Context, _ string) {
		mu.Lock()
		defer mu.Unlock()
		ctxErr = ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, "tg:1")
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NoError(t, ctxErr, "handlers are detached from the publisher's cancellation")
}
