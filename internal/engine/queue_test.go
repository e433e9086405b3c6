package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestQueue_EnqueueDequeue(t *testing.T) {
	q := newRequestQueue()

	ok := q.Enqueue(request{id: "req-1", kind: RequestTap, x: 1, y: 2})
	require.True(t, ok, "enqueue should succeed")

	got, ok := q.TryDequeue()
	require.True(t, ok, "dequeue should succeed")
	assert.Equal(t, "req-1", got.id)
	assert.Equal(t, RequestTap, got.kind)
	assert.Equal(t, 1.0, got.x)
}

func TestRequestQueue_FIFO(t *testing.T) {
	q := newRequestQueue()

	for _, id := range []string{"A", "B", "C"} {
		q.Enqueue(request{id: id})
	}

	for _, want := range []string{"A", "B", "C"} {
		r, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, r.id)
	}
}

func TestRequestQueue_TryDequeue_Empty(t *testing.T) {
	q := newRequestQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestRequestQueue_WaitSignals(t *testing.T) {
	q := newRequestQueue()

	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Enqueue(request{id: "late"})
	}()

	select {
	case <-q.Wait():
		r, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, "late", r.id)
	case <-time.After(time.Second):
		t.Fatal("Wait did not signal")
	}
}

func TestRequestQueue_Close(t *testing.T) {
	q := newRequestQueue()
	q.Enqueue(request{id: "pending"})

	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(request{id: "after"}), "enqueue after close should fail")
	assert.False(t, q.Drained(), "pending request still queued")

	select {
	case <-q.Wait():
	default:
		t.Fatal("Wait channel should be closed")
	}

	_, ok := q.TryDequeue()
	require.True(t, ok)
	assert.True(t, q.Drained())
}

func TestRequestQueue_Len(t *testing.T) {
	q := newRequestQueue()
	assert.Equal(t, 0, q.Len())

	q.Enqueue(request{id: "1"})
	q.Enqueue(request{id: "2"})
	assert.Equal(t, 2, q.Len())

	q.TryDequeue()
	assert.Equal(t, 1, q.Len())
}

func TestRequestQueue_ThreadSafe(t *testing.T) {
	q := newRequestQueue()
	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				q.Enqueue(request{kind: RequestTap})
			}
		}()
	}
	wg.Wait()

	count := 0
	for {
		if _, ok := q.TryDequeue(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, producers*perProducer, count)
}

func TestRequestKind_String(t *testing.T) {
	assert.Equal(t, "tap", RequestTap.String())
	assert.Equal(t, "reset", RequestReset.String())
	assert.Equal(t, "reload", RequestReload.String())
	assert.Equal(t, "unknown", RequestKind(0).String())
}
