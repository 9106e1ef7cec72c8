// internal/cache/compute_test.go
package cache

import (
	"errors"
	"sync"
	"testing"
)

func TestGetOrComputeMemoizes(t *testing.T) {
	c := NewComputeCache[int]()

	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute("k", compute)
		if err != nil {
			t.Fatalf("GetOrCompute failed: %v", err)
		}
		if v != 42 {
			t.Errorf("expected 42, got %d", v)
		}
	}

	if calls != 1 {
		t.Errorf("expected 1 compute, got %d", calls)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cached entry, got %d", c.Len())
	}
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	c := NewComputeCache[int]()
	wantErr := errors.New("boom")

	if _, err := c.GetOrCompute("k", func() (int, error) { return 0, wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("failed compute must not be cached")
	}

	v, err := c.GetOrCompute("k", func() (int, error) { return 7, nil })
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	if v != 7 {
		t.Errorf("expected 7 after retry, got %d", v)
	}
}

func TestReset(t *testing.T) {
	c := NewComputeCache[string]()

	if _, err := c.GetOrCompute("k", func() (string, error) { return "v", nil }); err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	c.Reset()

	if c.Len() != 0 {
		t.Errorf("expected empty cache after reset, got %d entries", c.Len())
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after reset")
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := NewComputeCache[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrCompute("k", func() (int, error) { return 99, nil })
			if err != nil {
				t.Errorf("GetOrCompute failed: %v", err)
				return
			}
			if v != 99 {
				t.Errorf("expected 99, got %d", v)
			}
		}()
	}
	wg.Wait()

	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}
