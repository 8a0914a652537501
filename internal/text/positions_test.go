package text

import "testing"

func TestSpanContains(t *testing.T) {
	t.Parallel()

	s := Span{Start: 2, End: 5}

	cases := []struct {
		off  ByteOffset
		want bool
	}{
		{off: 1, want: false},
		{off: 2, want: true},
		{off: 4, want: true},
		{off: 5, want: false}, // half-open
		{off: -1, want: false},
	}
	for _, tc := range cases {
		if got := s.Contains(tc.off); got != tc.want {
			t.Errorf("Contains(%d) = %v, want %v", tc.off, got, tc.want)
		}
	}
}

func TestSpanIntersects(t *testing.T) {
	t.Parallel()

	a := Span{Start: 0, End: 4}

	cases := []struct {
		other Span
		want  bool
	}{
		{other: Span{Start: 2, End: 6}, want: true},
		{other: Span{Start: 4, End: 6}, want: false}, // touching does not intersect
		{other: Span{Start: 0, End: 0}, want: false},
		{other: Span{Start: 3, End: 4}, want: true},
	}
	for _, tc := range cases {
		if got := a.Intersects(tc.other); got != tc.want {
			t.Errorf("Intersects(%v) = %v, want %v", tc.other, got, tc.want)
		}
	}
}

func TestSpanValidate(t *testing.T) {
	t.Parallel()

	if err := (Span{Start: 3, End: 1}).Validate(); err == nil {
		t.Fatal("Validate() = nil for inverted span, want error")
	}
	if err := (Span{Start: -1, End: 1}).Validate(); err == nil {
		t.Fatal("Validate() = nil for negative start, want error")
	}
	if _, err := NewSpan(0, 0); err != nil {
		t.Fatalf("NewSpan(0, 0) error = %v", err)
	}
}

func TestSpanSlice(t *testing.T) {
	t.Parallel()

	src := []byte("let x = 1")
	if got := (Span{Start: 4, End: 5}).Slice(src); string(got) != "x" {
		t.Fatalf("Slice = %q, want %q", got, "x")
	}
	if got := (Span{Start: 0, End: 100}).Slice(src); got != nil {
		t.Fatalf("Slice past end = %q, want nil", got)
	}
}
