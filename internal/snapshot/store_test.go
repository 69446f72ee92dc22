package snapshot

import (
	"testing"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

func TestStoreEmptyNotReady(t *testing.T) {
	s := NewStore()
	if s.Ready() {
		t.Error("fresh store should not be ready")
	}
	if !s.BuiltAt().IsZero() {
		t.Error("fresh store BuiltAt should be zero")
	}
	if s.Count() != 0 {
		t.Errorf("fresh store Count = %d, want 0", s.Count())
	}
	if s.List() != nil {
		t.Error("fresh store List should be nil")
	}
	if _, ok := s.Get("anyone"); ok {
		t.Error("fresh store Get should miss")
	}
}

func TestStoreSwapAndGet(t *testing.T) {
	s := NewStore()
	s.Swap([]models.LatestPlayerSnapshot{
		{PlayerID: "1", Name: "Alice", Elo: 1600},
		{PlayerID: "2", Name: "Bob", Elo: 1450},
	})

	if !s.Ready() {
		t.Fatal("store should be ready after Swap")
	}
	if s.BuiltAt().IsZero() {
		t.Error("BuiltAt should be set after Swap")
	}
	if s.Count() != 2 {
		t.Errorf("Count = %d, want 2", s.Count())
	}

	snap, ok := s.Get("1")
	if !ok {
		t.Fatal("Get(1) missed")
	}
	if snap.Name != "Alice" || snap.Elo != 1600 {
		t.Errorf("Get(1) = %+v", snap)
	}
	if _, ok := s.Get("999"); ok {
		t.Error("Get of unknown player should miss")
	}
}

func TestStoreSwapReplacesWholeSet(t *testing.T) {
	s := NewStore()
	s.Swap([]models.LatestPlayerSnapshot{{PlayerID: "old", Name: "Old"}})
	s.Swap([]models.LatestPlayerSnapshot{{PlayerID: "new", Name: "New"}})

	if _, ok := s.Get("old"); ok {
		t.Error("player from the previous set survived the swap")
	}
	if _, ok := s.Get("new"); !ok {
		t.Error("player from the current set missing")
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
}

func TestStoreListSorted(t *testing.T) {
	s := NewStore()
	s.Swap([]models.LatestPlayerSnapshot{
		{PlayerID: "3", Name: "Carol"},
		{PlayerID: "2", Name: "Alice"},
		{PlayerID: "1", Name: "Alice"},
	})

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("List returned %d entries, want 3", len(list))
	}
	if list[0].PlayerID != "1" || list[1].PlayerID != "2" || list[2].PlayerID != "3" {
		t.Errorf("order = %s, %s, %s; want name then id ascending",
			list[0].PlayerID, list[1].PlayerID, list[2].PlayerID)
	}
}
