package randutil

import (
	"sort"
	"sync"
	"testing"
)

func TestNew_Deterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 10; i++ {
		if a.Intn(100) != b.Intn(100) {
			t.Fatal("expected identical sequences for the same seed")
		}
	}
}

func TestBetween(t *testing.T) {
	src := New(1)
	for i := 0; i < 200; i++ {
		v := Between(src, 15, 44)
		if v < 15 || v > 44 {
			t.Fatalf("Between(15, 44) = %d out of range", v)
		}
	}
	if got := Between(src, 5, 5); got != 5 {
		t.Errorf("Between(5, 5) = %d, want 5", got)
	}
}

func TestSample(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	src := New(7)

	got := Sample(src, items, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, v := range got {
		if seen[v] {
			t.Errorf("duplicate item %q", v)
		}
		seen[v] = true
	}

	if all := Sample(src, items, 10); len(all) != 5 {
		t.Errorf("expected sample capped at 5, got %d", len(all))
	}
	if none := Sample(src, items, -1); len(none) != 0 {
		t.Errorf("expected empty sample, got %v", none)
	}

	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	for i := range items {
		if items[i] != sorted[i] {
			t.Fatal("input slice was modified")
		}
	}
}

func TestPick(t *testing.T) {
	items := []int{10, 20, 30}
	v := Pick(New(3), items)
	if v != 10 && v != 20 && v != 30 {
		t.Errorf("Pick returned %d", v)
	}
}

func TestLockedSource_Concurrent(t *testing.T) {
	src := New(9)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = src.Intn(10)
				_ = src.Float64()
			}
		}()
	}
	wg.Wait()
}
