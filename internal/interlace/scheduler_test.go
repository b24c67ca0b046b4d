package interlace

import "testing"

func TestConsecutiveFieldsPartitionRows(t *testing.T) {
	const rows = 37
	s := New(true)
	if s.Field() != 0 {
		t.Fatalf("expected scheduler to start on field 0, got %d", s.Field())
	}

	visits := make([]int, rows)
	for tick := 0; tick < 2; tick++ {
		for row := 0; row < rows; row++ {
			if s.ShouldVisit(row) {
				visits[row]++
			}
		}
		s.Toggle()
	}
	for row, n := range visits {
		if n != 1 {
			t.Fatalf("expected row %d to be visited once across two ticks, got %d", row, n)
		}
	}
	if s.Field() != 0 {
		t.Fatalf("expected field 0 after two toggles, got %d", s.Field())
	}
}

func TestShouldVisit(t *testing.T) {
	cases := []struct {
		row, field int
		want       bool
	}{
		{0, 0, true},
		{1, 0, false},
		{1, 1, true},
		{22, 1, false},
		{23, 1, true},
	}
	for _, tc := range cases {
		if got := ShouldVisit(tc.row, tc.field); got != tc.want {
			t.Fatalf("ShouldVisit(%d, %d) = %v, want %v", tc.row, tc.field, got, tc.want)
		}
	}
}

func TestDisabledSchedulerVisitsEveryRow(t *testing.T) {
	s := New(false)
	for tick := 0; tick < 2; tick++ {
		for row := 0; row < 5; row++ {
			if !s.ShouldVisit(row) {
				t.Fatalf("expected disabled scheduler to visit row %d", row)
			}
		}
		s.Toggle()
	}
	if s.Enabled() {
		t.Fatalf("expected scheduler to report disabled")
	}
}
