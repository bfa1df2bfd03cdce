package evaluation

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		{"all found", []string{"a", "b"}, []string{"a", "b", "c"}, 3, 1},
		{"half found", []string{"a", "b"}, []string{"a", "x", "y"}, 3, 0.5},
		{"cut at k", []string{"a", "b"}, []string{"x", "a", "b"}, 2, 0.5},
		{"none found", []string{"a"}, []string{"x", "y"}, 2, 0},
		{"empty relevant", nil, []string{"a"}, 1, 0},
		{"empty retrieved", []string{"a"}, nil, 5, 0},
		{"zero k", []string{"a"}, []string{"a"}, 0, 0},
		{"duplicate relevant", []string{"a", "a", "b"}, []string{"a"}, 1, 0.5},
		{"duplicate retrieved", []string{"a", "b"}, []string{"a", "a"}, 2, 0.5},
		{"k beyond retrieved", []string{"a", "b", "c"}, []string{"c"}, 10, 1.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecallAtK(tt.relevant, tt.retrieved, tt.k); !approx(got, tt.want) {
				t.Errorf("RecallAtK = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMAPAtK(t *testing.T) {
	tests := []struct {
		name      string
		relevant  []string
		retrieved []string
		k         int
		want      float64
	}{
		// hits at 1 and 3: (1/1 + 2/3) / min(2, 3)
		{"two hits", []string{"a", "b"}, []string{"a", "x", "b"}, 3, (1 + 2.0/3) / 2},
		{"perfect", []string{"a", "b"}, []string{"a", "b"}, 2, 1},
		// one hit at 2, denominator min(3, 2) = 2
		{"denominator capped by k", []string{"a", "b", "c"}, []string{"x", "a"}, 2, 0.5 / 2},
		{"no hits", []string{"a"}, []string{"x", "y"}, 2, 0},
		{"empty relevant", nil, []string{"a"}, 1, 0},
		{"zero k", []string{"a"}, []string{"a"}, 0, 0},
		// duplicate "a" at 2 does not count again
		{"duplicate retrieved", []string{"a", "b"}, []string{"a", "a", "b"}, 3, (1 + 2.0/3) / 2},
		{"hit beyond k ignored", []string{"a"}, []string{"x", "y", "a"}, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MAPAtK(tt.relevant, tt.retrieved, tt.k); !approx(got, tt.want) {
				t.Errorf("MAPAtK = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMetricsBounded(t *testing.T) {
	relevant := []string{"a", "b", "c"}
	retrieved := []string{"c", "a", "z", "b", "a", "q"}
	for k := 1; k <= 8; k++ {
		r := RecallAtK(relevant, retrieved, k)
		m := MAPAtK(relevant, retrieved, k)
		if r < 0 || r > 1 || m < 0 || m > 1 {
			t.Errorf("k=%d: recall=%f map=%f out of [0,1]", k, r, m)
		}
	}
}
