package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/loghealer-client/auth"
	"github.com/stretchr/testify/require"
)

func TestReadyGate_FirstResolveWins(t *testing.T) {
	g := auth.NewReadyGate()

	_, resolved := g.Value()
	require.False(t, resolved)

	require.True(t, g.Resolve(true))
	require.False(t, g.Resolve(false))

	v, resolved := g.Value()
	require.True(t, resolved)
	require.True(t, v)
}

func TestReadyGate_EarlyAndLateWaitersAgree(t *testing.T) {
	g := auth.NewReadyGate()

	var wg sync.WaitGroup
	results := make([]bool, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := g.Wait(context.Background())
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	g.Resolve(false)
	wg.Wait()

	late, err := g.Wait(context.Background())
	require.NoError(t, err)
	for _, v := range results {
		require.Equal(t, late, v)
	}

	select {
	case <-g.Done():
	default:
		t.Fatal("Done should be closed after Resolve")
	}
}

func TestReadyGate_WaitHonoursContext(t *testing.T) {
	g := auth.NewReadyGate()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
