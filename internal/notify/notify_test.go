package notify

import (
	"fmt"
	"sync"
	"testing"
)

// TestPushAssignsIncreasingIDs verifies IDs start at 1 and are never reused.
func TestPushAssignsIncreasingIDs(t *testing.T) {
	c := NewCenter(10)

	a := c.Push(KindNewPR, "Bench 100 kg")
	b := c.Push(KindInfo, "synced")
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("ids = %d, %d, want 1, 2", a.ID, b.ID)
	}

	if !c.Dismiss(b.ID) {
		t.Fatal("Dismiss returned false for an existing id")
	}
	d := c.Push(KindInfo, "again")
	if d.ID != 3 {
		t.Errorf("id after dismiss = %d, want 3", d.ID)
	}
}

// TestCentersAreIndependent verifies each Center owns its own counter.
func TestCentersAreIndependent(t *testing.T) {
	a, b := NewCenter(0), NewCenter(0)
	a.Push(KindInfo, "x")
	a.Push(KindInfo, "y")
	if n := b.Push(KindInfo, "z"); n.ID != 1 {
		t.Errorf("second center first id = %d, want 1", n.ID)
	}
}

// TestDismiss verifies removal and the not-found result.
func TestDismiss(t *testing.T) {
	c := NewCenter(10)
	c.Push(KindInfo, "one")
	two := c.Push(KindInfo, "two")
	c.Push(KindInfo, "three")

	if !c.Dismiss(two.ID) {
		t.Fatal("expected dismiss to succeed")
	}
	if c.Dismiss(two.ID) {
		t.Error("second dismiss of the same id should fail")
	}
	if c.Dismiss(99) {
		t.Error("dismiss of unknown id should fail")
	}

	list := c.List()
	if len(list) != 2 || list[0].Message != "one" || list[1].Message != "three" {
		t.Errorf("list = %+v", list)
	}
}

// TestCapacityDropsOldest verifies the bound keeps the newest notifications.
func TestCapacityDropsOldest(t *testing.T) {
	c := NewCenter(3)
	for i := 1; i <= 5; i++ {
		c.Push(KindInfo, fmt.Sprintf("n%d", i))
	}

	list := c.List()
	if len(list) != 3 {
		t.Fatalf("got %d notifications, want 3", len(list))
	}
	for i, want := range []int64{3, 4, 5} {
		if list[i].ID != want {
			t.Errorf("list[%d].ID = %d, want %d", i, list[i].ID, want)
		}
	}
}

// TestListReturnsCopy verifies callers cannot mutate the center through List.
func TestListReturnsCopy(t *testing.T) {
	c := NewCenter(5)
	c.Push(KindInfo, "first")

	list := c.List()
	list[0].Message = "changed"
	if got := c.List()[0].Message; got != "first" {
		t.Errorf("message = %q, want first", got)
	}
}

// TestConcurrentPushUniqueIDs verifies IDs stay unique under concurrent pushes.
func TestConcurrentPushUniqueIDs(t *testing.T) {
	const workers, each = 8, 50
	c := NewCenter(workers * each)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				c.Push(KindNewPR, "pr")
			}
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, n := range c.List() {
		if seen[n.ID] {
			t.Fatalf("duplicate id %d", n.ID)
		}
		seen[n.ID] = true
	}
	if len(seen) != workers*each {
		t.Errorf("got %d unique ids, want %d", len(seen), workers*each)
	}
}
