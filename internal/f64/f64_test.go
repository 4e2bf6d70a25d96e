package f64

import (
	"math"
	"testing"
)

func TestArgMax(t *testing.T) {
	cases := []struct {
		x    []float64
		want []int
	}{
		{nil, nil},
		{[]float64{0.2}, []int{0}},
		{[]float64{0.2, 0.8, 0.5}, []int{1}},
		{[]float64{0.8, 0.2, 0.8}, []int{0, 2}},
		{[]float64{0.3 * 3, 0.9}, []int{0, 1}},
		{[]float64{math.Inf(-1), math.Inf(-1)}, []int{0, 1}},
	}

	for _, tc := range cases {
		got := ArgMax(tc.x)
		if len(got) != len(tc.want) {
			t.Errorf("ArgMax(%v) = %v, expected %v", tc.x, got, tc.want)
			continue
		}

		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("ArgMax(%v) = %v, expected %v", tc.x, got, tc.want)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	x := []float64{1, 3}
	if !Normalize(x) {
		t.Fatal("expected normalization to succeed")
	}

	if x[0] != 0.25 || x[1] != 0.75 {
		t.Errorf("unexpected normalized vector: %v", x)
	}

	zero := []float64{0, 0}
	if Normalize(zero) {
		t.Error("normalized a zero vector")
	}
}
