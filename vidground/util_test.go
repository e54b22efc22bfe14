package vidground

import (
	"testing"
)

func TestPad(t *testing.T) {
	check := func(xs []int, padLen int, expected []int) {
		res := Pad(xs, padLen, 7)
		if len(res) != len(expected) {
			t.Errorf("Pad(%v, %d) = %v; want %v", xs, padLen, res, expected)
			return
		}
		for i := range res {
			if res[i] != expected[i] {
				t.Errorf("Pad(%v, %d) = %v; want %v", xs, padLen, res, expected)
				return
			}
		}
	}
	check([]int{1, 2, 3}, -1, []int{1, 2, 3})
	check([]int{1, 2, 3}, 3, []int{1, 2, 3})
	check([]int{1, 2, 3}, 2, []int{1, 2})
	check([]int{1, 2, 3}, 5, []int{1, 2, 3, 7, 7})
	check(nil, 2, []int{7, 7})
}

func TestPadDoesNotMutate(t *testing.T) {
	xs := []int{1, 2, 3}
	res := Pad(xs, 5, 0)
	res[0] = 99
	if xs[0] != 1 {
		t.Errorf("Pad aliased its input")
	}
}

func TestPadFunc(t *testing.T) {
	xs := [][]int{{1}, {2}}
	res := PadFunc(xs, 4, func() []int { return make([]int, 1) })
	if len(res) != 4 {
		t.Fatalf("PadFunc length = %d; want 4", len(res))
	}
	res[2][0] = 5
	if res[3][0] != 0 {
		t.Errorf("PadFunc filler slots share storage")
	}
}

func TestClip(t *testing.T) {
	check := func(x, lo, hi, expected int) {
		if res := Clip(x, lo, hi); res != expected {
			t.Errorf("Clip(%d, %d, %d) = %d; want %d", x, lo, hi, res, expected)
		}
	}
	check(5, 0, 10, 5)
	check(-1, 0, 10, 0)
	check(11, 0, 10, 10)
	check(0, 0, 0, 0)
}
