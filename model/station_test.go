package model

import "testing"

func TestStation_TakeBike(t *testing.T) {
	s := &Station{ID: 1, Capacity: 5, Bikes: 1}

	if !s.TakeBike() {
		t.Fatalf("expected TakeBike to succeed with 1 bike docked")
	}
	if s.Bikes != 0 {
		t.Fatalf("Bikes = %d, want 0", s.Bikes)
	}

	// Empty station: no-op failure, count must not go negative.
	if s.TakeBike() {
		t.Errorf("expected TakeBike to fail on an empty station")
	}
	if s.Bikes != 0 {
		t.Errorf("Bikes = %d after failed take, want 0", s.Bikes)
	}
}

func TestStation_ReturnBike(t *testing.T) {
	s := &Station{ID: 1, Capacity: 2, Bikes: 1}

	if !s.ReturnBike() {
		t.Fatalf("expected ReturnBike to succeed with a free dock")
	}
	if s.Bikes != 2 {
		t.Fatalf("Bikes = %d, want 2", s.Bikes)
	}

	// Full station: no-op failure, count must not exceed capacity.
	if s.ReturnBike() {
		t.Errorf("expected ReturnBike to fail on a full station")
	}
	if s.Bikes != 2 {
		t.Errorf("Bikes = %d after failed return, want 2", s.Bikes)
	}
}
