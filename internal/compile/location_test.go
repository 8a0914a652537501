package compile

import "testing"

func TestExtractLocation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msg  string
		want Location
		ok   bool
	}{
		{
			name: "simple",
			msg:  "parse error at line 3, col 7: unexpected token",
			want: Location{Line: 3, Col: 7},
			ok:   true,
		},
		{
			name: "embedded",
			msg:  "lowering failed: unbound name `y` at line 12, col 1",
			want: Location{Line: 12, Col: 1},
			ok:   true,
		},
		{
			name: "no location",
			msg:  "internal compiler error",
			ok:   false,
		},
		{
			name: "partial pattern",
			msg:  "at line twelve, col seven",
			ok:   false,
		},
		{
			name: "empty",
			msg:  "",
			ok:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractLocation(tc.msg)
			if ok != tc.ok {
				t.Fatalf("ExtractLocation(%q) ok = %v, want %v", tc.msg, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("ExtractLocation(%q) = %+v, want %+v", tc.msg, got, tc.want)
			}
		})
	}
}
