package version

import "testing"

func TestIsAtLeast(t *testing.T) {
	cases := []struct {
		name     string
		current  string
		minimum  string
		want     bool
	}{
		{"equal", "2.1.0", "2.1.0", true},
		{"patch above", "2.1.1", "2.1.0", true},
		{"patch below", "2.0.9", "2.1.0", false},
		{"major above", "3.0.0", "2.9.9", true},
		{"major below", "1.9.9", "2.0.0", false},
		{"shorter equal", "2.1", "2.1.0", true},
		{"longer equal", "2.1.0", "2.1", true},
		{"shorter below", "2", "2.0.1", false},
		{"double digit component", "2.10.0", "2.9.0", true},
		{"empty current", "", "2.0.0", false},
		{"empty minimum", "2.0.0", "", false},
		{"both empty", "", "", false},
		{"garbage component reads as zero", "2.x.5", "2.0.5", true},
		{"garbage below real component", "2.x.0", "2.1.0", false},
		{"negative component reads as zero", "2.-1.0", "2.0.0", true},
		{"whitespace tolerated", "2. 1 .0", "2.1.0", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsAtLeast(tc.current, tc.minimum); got != tc.want {
				t.Errorf("IsAtLeast(%q, %q) = %v, want %v", tc.current, tc.minimum, got, tc.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.1", "1.0.0", 1},
		{"2.1", "2.1.0", 0},
		{"1.2.3.4", "1.2.3", 1},
		{"10.0", "9.9", 1},
	}
	for _, tc := range cases {
		if got := Compare(tc.a, tc.b); got != tc.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
