package intervals

import "testing"

func TestStoreLookups(t *testing.T) {
	var s Store[string]
	s.Set(10, "ten")
	s.Set(0, "zero")
	s.Set(5, "five")

	if v, ok := s.Get(5); !ok || v != "five" {
		t.Errorf("Get(5) = %q, %v; want five, true", v, ok)
	}
	if _, ok := s.Get(3); ok {
		t.Error("Get(3) should miss")
	}

	k, v, ok := s.AtOrBelow(7)
	if !ok || k != 5 || v != "five" {
		t.Errorf("AtOrBelow(7) = %d, %q, %v; want 5, five, true", k, v, ok)
	}
	k, v, ok = s.AtOrBelow(5)
	if !ok || k != 5 || v != "five" {
		t.Errorf("AtOrBelow(5) = %d, %q, %v; want exact match", k, v, ok)
	}
	if _, _, ok := s.AtOrBelow(-1); ok {
		t.Error("AtOrBelow(-1) should miss")
	}

	k, v, ok = s.AtOrAbove(6)
	if !ok || k != 10 || v != "ten" {
		t.Errorf("AtOrAbove(6) = %d, %q, %v; want 10, ten, true", k, v, ok)
	}
	if _, _, ok := s.AtOrAbove(11); ok {
		t.Error("AtOrAbove(11) should miss")
	}
}

func TestStoreValuesInKeyOrder(t *testing.T) {
	var s Store[int]
	for _, k := range []int{9, 2, 7, 4} {
		s.Set(k, k*k)
	}
	want := []int{4, 16, 49, 81}
	got := s.Values()
	if len(got) != len(want) {
		t.Fatalf("Values() len = %d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values()[%d] = %d; want %d", i, got[i], want[i])
		}
	}
}

func TestStoreSetOverwrites(t *testing.T) {
	var s Store[string]
	s.Set(3, "a")
	s.Set(3, "b")
	if s.Len() != 1 {
		t.Fatalf("Len() = %d; want 1", s.Len())
	}
	if v, _ := s.Get(3); v != "b" {
		t.Errorf("Get(3) = %q; want b", v)
	}
}
