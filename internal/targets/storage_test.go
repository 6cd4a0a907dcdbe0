package targets

import (
	"testing"
	"time"
)

func TestNewStore(t *testing.T) {
	s := NewStore()
	if s == nil {
		t.Fatal("NewStore() returned nil")
	}
	list := s.GetList()
	if len(list) != 0 {
		t.Errorf("new store should be empty, got %d targets", len(list))
	}
}

func TestStore_PutGet(t *testing.T) {
	s := NewStore()
	target := New(7, Point{X: 10, Y: 10}, 100, time.Now())
	s.Put(target)

	if got := s.Get(7); got != target {
		t.Errorf("Get(7) = %v, want %v", got, target)
	}
	if got := s.Get(8); got != nil {
		t.Errorf("Get(8) = %v, want nil", got)
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	s.Put(New(1, Point{}, 100, time.Now()))

	if !s.Remove(1) {
		t.Error("Remove(1) = false, want true")
	}
	if s.Remove(1) {
		t.Error("second Remove(1) = true, want false")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestStore_Remove_Nonexistent(t *testing.T) {
	s := NewStore()
	// Should not panic
	if s.Remove(999) {
		t.Error("Remove(999) = true, want false")
	}
}

func TestStore_GetList_OrderedByID(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Put(New(3, Point{}, 100, now))
	s.Put(New(1, Point{}, 100, now))
	s.Put(New(2, Point{}, 100, now))

	list := s.GetList()
	if len(list) != 3 {
		t.Fatalf("GetList() returned %d targets, want 3", len(list))
	}
	for i, target := range list {
		if target.ID != i+1 {
			t.Errorf("list[%d].ID = %d, want %d", i, target.ID, i+1)
		}
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.Put(New(1, Point{}, 100, now))
	s.Put(New(2, Point{}, 100, now))

	s.Clear()

	if s.Len() != 0 {
		t.Errorf("after Clear(), got %d targets, want 0", s.Len())
	}
}
