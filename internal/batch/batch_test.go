package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codenav/codenav/internal/naverr"
	"github.com/codenav/codenav/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hintsNamed(n int) []types.LocationHint {
	hints := make([]types.LocationHint, n)
	for i := range hints {
		hints[i] = types.LocationHint{SymbolName: fmt.Sprintf("Symbol%03d", i)}
	}
	return hints
}

func echoResolver(ctx context.Context, hint types.LocationHint) (*types.SymbolInfo, error) {
	return &types.SymbolInfo{Symbol: types.Symbol{Name: hint.SymbolName}}, nil
}

func TestResolvePreservesInputOrder(t *testing.T) {
	const badSlot = 17
	o := New(func(ctx context.Context, hint types.LocationHint) (*types.SymbolInfo, error) {
		if hint.SymbolName == "" {
			return nil, errors.New("empty symbol name")
		}
		return echoResolver(ctx, hint)
	}, 10)

	for run := 0; run < 100; run++ {
		hints := hintsNamed(40)
		hints[badSlot] = types.LocationHint{}

		results := o.Resolve(context.Background(), hints)
		require.Len(t, results, 40)
		for i, res := range results {
			assert.Equal(t, i, res.Index)
			if i == badSlot {
				require.True(t, res.Failed())
				assert.Nil(t, res.Info)
				continue
			}
			require.NotNil(t, res.Info)
			assert.Equal(t, fmt.Sprintf("Symbol%03d", i), res.Info.Symbol.Name)
		}
	}
}

func TestResolveFailureIsolation(t *testing.T) {
	boom := errors.New("no such symbol")
	o := New(func(ctx context.Context, hint types.LocationHint) (*types.SymbolInfo, error) {
		if hint.SymbolName == "Symbol003" || hint.SymbolName == "Symbol007" {
			return nil, boom
		}
		return echoResolver(ctx, hint)
	}, 4)

	results := o.Resolve(context.Background(), hintsNamed(10))
	for i, res := range results {
		if i == 3 || i == 7 {
			assert.True(t, res.Failed())
			assert.ErrorIs(t, res.Err, boom)
			assert.Nil(t, res.Info)
		} else {
			assert.False(t, res.Failed(), "item %d must not be affected by sibling failures", i)
		}
	}
}

func TestResolvePanicDamagesOnlyItsSlot(t *testing.T) {
	o := New(func(ctx context.Context, hint types.LocationHint) (*types.SymbolInfo, error) {
		if hint.SymbolName == "Symbol005" {
			panic("resolver exploded")
		}
		return echoResolver(ctx, hint)
	}, 3)

	results := o.Resolve(context.Background(), hintsNamed(12))
	for i, res := range results {
		if i == 5 {
			require.True(t, res.Failed())
			assert.Contains(t, res.Err.Error(), "resolver panic")
		} else {
			assert.False(t, res.Failed())
		}
	}
}

func TestResolveConcurrencyNeverExceedsBound(t *testing.T) {
	const bound = 5
	var active, peak int64

	o := New(func(ctx context.Context, hint types.LocationHint) (*types.SymbolInfo, error) {
		current := atomic.AddInt64(&active, 1)
		for {
			observed := atomic.LoadInt64(&peak)
			if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return echoResolver(ctx, hint)
	}, bound)

	results := o.Resolve(context.Background(), hintsNamed(50))
	require.Len(t, results, 50)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(bound))
	assert.Greater(t, atomic.LoadInt64(&peak), int64(1), "pool should actually run concurrently")
}

func TestResolveFewerHintsThanWorkers(t *testing.T) {
	o := New(echoResolver, 64)
	results := o.Resolve(context.Background(), hintsNamed(3))
	require.Len(t, results, 3)
	for _, res := range results {
		assert.False(t, res.Failed())
	}
}

func TestResolveEmptyInput(t *testing.T) {
	o := New(echoResolver, 4)
	assert.Empty(t, o.Resolve(context.Background(), nil))
}

func TestResolveNilInfoNilErrorBecomesError(t *testing.T) {
	o := New(func(ctx context.Context, hint types.LocationHint) (*types.SymbolInfo, error) {
		return nil, nil
	}, 2)

	results := o.Resolve(context.Background(), hintsNamed(1))
	require.True(t, results[0].Failed())
	assert.Contains(t, results[0].Err.Error(), "no result and no error")
}

func TestResolveCancellationMarksRemainingSlots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var once sync.Once
	release := make(chan struct{})
	o := New(func(ctx context.Context, hint types.LocationHint) (*types.SymbolInfo, error) {
		once.Do(func() {
			cancel()
			close(release)
		})
		<-release
		return echoResolver(ctx, hint)
	}, 2)

	results := o.Resolve(ctx, hintsNamed(30))
	require.Len(t, results, 30)

	completed, cancelled := 0, 0
	for _, res := range results {
		switch {
		case res.Info != nil:
			completed++
		case naverr.IsCancelled(res.Err):
			cancelled++
		default:
			t.Fatalf("slot %d: neither completed nor cancelled: %v", res.Index, res.Err)
		}
	}
	assert.Greater(t, completed, 0)
	assert.Greater(t, cancelled, 0, "cancellation must leave distinguishable unprocessed slots")
}

func TestResolveZeroConcurrencyUsesDefault(t *testing.T) {
	o := New(echoResolver, 0)
	results := o.Resolve(context.Background(), hintsNamed(8))
	require.Len(t, results, 8)
	for _, res := range results {
		assert.False(t, res.Failed())
	}
}
