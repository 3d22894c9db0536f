package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJitterDeliversTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	j := NewJitter(ctx, 1000)
	for i := 0; i < 10; i++ {
		select {
		case <-j.Chan():
		case <-time.After(time.Second):
			t.Fatal("jitter did not deliver a tick in time")
		}
	}
}

func TestJitterClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	j := NewJitter(ctx, 10)
	j.Take()
	cancel()

	select {
	case _, ok := <-drain(j.Chan()):
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("jitter channel was not closed after cancel")
	}
}

func drain(ch <-chan struct{}) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for range ch {
		}
	}()
	return out
}
