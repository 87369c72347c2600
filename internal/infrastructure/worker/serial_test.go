package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fxconvert-service/internal/application"

	"github.com/stretchr/testify/require"
)

type countingSubmitter struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
	err      error
	panicOn  int32
}

func (c *countingSubmitter) Submit(ctx context.Context, _ application.Submission) error {
	n := c.calls.Add(1)
	if n == c.panicOn {
		panic("boom")
	}
	cur := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		prev := c.maxSeen.Load()
		if cur <= prev || c.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return c.err
}

func startSerial(t *testing.T, svc submitter) *Serial {
	t.Helper()
	w := NewSerial(svc, 4)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Start(ctx)
	return w
}

func TestSerial_RunsOneAtATime(t *testing.T) {
	svc := &countingSubmitter{}
	w := startSerial(t, svc)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, w.Submit(context.Background(), application.Submission{}))
		}()
	}
	wg.Wait()

	require.Equal(t, int32(20), svc.calls.Load())
	require.Equal(t, int32(1), svc.maxSeen.Load())
}

func TestSerial_ReturnsServiceError(t *testing.T) {
	want := errors.New("rejected")
	w := startSerial(t, &countingSubmitter{err: want})
	require.ErrorIs(t, w.Submit(context.Background(), application.Submission{}), want)
}

func TestSerial_RecoversPanic(t *testing.T) {
	w := startSerial(t, &countingSubmitter{panicOn: 1})

	require.ErrorContains(t, w.Submit(context.Background(), application.Submission{}), "panic")
	require.NoError(t, w.Submit(context.Background(), application.Submission{}))
}

func TestSerial_CallerContextCanceled(t *testing.T) {
	w := NewSerial(&countingSubmitter{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing consumes the queue, so the caller only ever sees its own context.
	_ = w.Submit(ctx, application.Submission{})
	require.ErrorIs(t, w.Submit(ctx, application.Submission{}), context.Canceled)
}
