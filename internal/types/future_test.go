package types

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func resolveAfter[R any, K comparable](f *Future[R, K], d time.Duration, r Result[R, K]) {
	go func() {
		time.Sleep(d)
		f.Resolve(r)
	}()
}

func TestFuture_Get(t *testing.T) {
	t.Run("successful result", func(t *testing.T) {
		future := NewFuture[string, int]()
		resolveAfter(future, 20*time.Millisecond, Result[string, int]{Value: "success", Key: 42})

		value, key, err := future.Get()
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if value != "success" {
			t.Errorf("expected value 'success', got %v", value)
		}
		if key != 42 {
			t.Errorf("expected key 42, got %v", key)
		}
	})

	t.Run("error result", func(t *testing.T) {
		future := NewFuture[string, int]()
		expectedErr := errors.New("task failed")
		future.Resolve(Result[string, int]{Key: 10, Error: expectedErr})

		value, key, err := future.Get()
		if !errors.Is(err, expectedErr) {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %v", value)
		}
		if key != 10 {
			t.Errorf("expected key 10, got %v", key)
		}
	})

	t.Run("multiple Get calls return same result", func(t *testing.T) {
		future := NewFuture[int, string]()
		resolveAfter(future, 0, Result[int, string]{Value: 123, Key: "test"})

		value1, key1, err1 := future.Get()
		value2, key2, err2 := future.Get()
		if value1 != value2 || key1 != key2 || err1 != err2 {
			t.Errorf("Get calls returned different results")
		}
	})
}

func TestFuture_ResolveOnce(t *testing.T) {
	future := NewFuture[int, int64]()

	if !future.Resolve(Result[int, int64]{Value: 1, Key: 1}) {
		t.Fatal("first Resolve should report true")
	}
	if future.Resolve(Result[int, int64]{Value: 2, Key: 2, Error: errors.New("late")}) {
		t.Error("second Resolve should report false")
	}

	value, key, err := future.Get()
	if value != 1 || key != 1 || err != nil {
		t.Errorf("later Resolve changed the result: %d, %d, %v", value, key, err)
	}
}

func TestFuture_GetWithContext(t *testing.T) {
	t.Run("result before deadline", func(t *testing.T) {
		future := NewFuture[int, int]()
		resolveAfter(future, 10*time.Millisecond, Result[int, int]{Value: 7, Key: 1})

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		value, _, err := future.GetWithContext(ctx)
		if err != nil || value != 7 {
			t.Errorf("got %d, %v; want 7, nil", value, err)
		}
	})

	t.Run("deadline before result", func(t *testing.T) {
		future := NewFuture[int, int]()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		value, key, err := future.GetWithContext(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
		if value != 0 || key != 0 {
			t.Errorf("expected zero values, got %d, %d", value, key)
		}
		if time.Since(start) > 500*time.Millisecond {
			t.Error("GetWithContext did not honor the deadline")
		}
	})

	t.Run("already resolved wins over cancelled context", func(t *testing.T) {
		future := NewFuture[int, int]()
		future.Resolve(Result[int, int]{Value: 3})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Either branch may be chosen by select; both outcomes are valid, but a
		// resolved value must never be mixed with a context error.
		value, _, err := future.GetWithContext(ctx)
		if err == nil && value != 3 {
			t.Errorf("resolved value lost: %d", value)
		}
		if err != nil && value != 0 {
			t.Errorf("context error returned with value %d", value)
		}
	})
}

func TestFuture_TryGet(t *testing.T) {
	future := NewFuture[string, int]()

	if _, _, _, ready := future.TryGet(); ready {
		t.Fatal("unresolved future should not be ready")
	}

	future.Resolve(Result[string, int]{Value: "done", Key: 5})

	value, key, err, ready := future.TryGet()
	if !ready {
		t.Fatal("resolved future should be ready")
	}
	if value != "done" || key != 5 || err != nil {
		t.Errorf("unexpected result %q, %d, %v", value, key, err)
	}
}

func TestFuture_DoneAndIsReady(t *testing.T) {
	future := NewFuture[int, int]()
	if future.IsReady() {
		t.Fatal("new future should not be ready")
	}

	select {
	case <-future.Done():
		t.Fatal("Done closed before Resolve")
	default:
	}

	resolveAfter(future, 10*time.Millisecond, Result[int, int]{Value: 1})

	select {
	case <-future.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Resolve")
	}
	if !future.IsReady() {
		t.Error("future should be ready after Done")
	}
}

func TestFuture_ConcurrentAccess(t *testing.T) {
	future := NewFuture[int, int]()

	const readers = 20
	var wg sync.WaitGroup
	results := make([]int, readers)
	for i := range readers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, _ := future.Get()
			results[i] = v
		}()
	}

	var resolvers sync.WaitGroup
	for i := range 5 {
		resolvers.Add(1)
		go func() {
			defer resolvers.Done()
			future.Resolve(Result[int, int]{Value: 100 + i})
		}()
	}
	resolvers.Wait()
	wg.Wait()

	first := results[0]
	for i, v := range results {
		if v != first {
			t.Errorf("reader %d saw %d, reader 0 saw %d", i, v, first)
		}
	}
	if first < 100 || first > 104 {
		t.Errorf("unexpected value %d", first)
	}
}

func TestWorkerContext(t *testing.T) {
	if _, ok := WorkerFromContext(context.Background()); ok {
		t.Error("background context should carry no worker")
	}

	ctx := WithWorker(context.Background(), WorkerInfo{Pool: "main", ID: 3})
	w, ok := WorkerFromContext(ctx)
	if !ok || w.Pool != "main" || w.ID != 3 {
		t.Errorf("got %+v, %v", w, ok)
	}
}
