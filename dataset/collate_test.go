package dataset

import (
	"errors"
	"testing"

	"github.com/vidgroundml/vidgroundml/vidground"
)

func TestCollateDictList(t *testing.T) {
	a := vidground.Example{
		"x": vidground.FromVector([]float64{1, 2}),
		"s": vidground.Scalar(5),
	}
	b := vidground.Example{
		"x": vidground.FromVector([]float64{3, 4}),
		"s": vidground.Scalar(6),
	}
	out, numDl, err := CollateDictList([]vidground.Example{a, b}, 4)
	if err != nil {
		t.Fatalf("CollateDictList: %v", err)
	}
	if numDl != 2 {
		t.Errorf("numDl = %d; want 2", numDl)
	}
	if !vidground.ShapeEquals(out["x"].Shape, []int{4, 2}) {
		t.Fatalf("x shape = %v; want [4 2]", out["x"].Shape)
	}
	// padded slots clone the first example
	if out["x"].At(2, 0) != 1 || out["x"].At(3, 1) != 2 {
		t.Errorf("padding should clone the first example: %v", out["x"].Data)
	}
	if !vidground.ShapeEquals(out["s"].Shape, []int{4}) {
		t.Errorf("s shape = %v; want [4]", out["s"].Shape)
	}
	if out["s"].Data[0] != 5 || out["s"].Data[1] != 6 || out["s"].Data[2] != 5 {
		t.Errorf("s = %v", out["s"].Data)
	}
}

func TestCollate(t *testing.T) {
	mk := func(v float64) vidground.Example {
		return vidground.Example{
			"x": vidground.FromVector([]float64{v, v}),
		}
	}
	out, err := Collate([]vidground.Example{mk(1), mk(2), mk(3)})
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}
	if !vidground.ShapeEquals(out["x"].Shape, []int{3, 2}) {
		t.Fatalf("x shape = %v; want [3 2]", out["x"].Shape)
	}
	if out["x"].At(2, 1) != 3 {
		t.Errorf("x = %v", out["x"].Data)
	}
}

func TestCollateShapeError(t *testing.T) {
	a := vidground.Example{"x": vidground.FromVector([]float64{1, 2})}
	b := vidground.Example{"x": vidground.FromVector([]float64{1, 2, 3})}
	_, err := Collate([]vidground.Example{a, b})
	if err == nil {
		t.Fatalf("expected shape error")
	}
	var se *ShapeError
	if !errors.As(err, &se) {
		t.Fatalf("error is %T; want *ShapeError", err)
	}
	if se.Key != "x" {
		t.Errorf("ShapeError key = %q; want x", se.Key)
	}
}

func TestCollateMissingKey(t *testing.T) {
	a := vidground.Example{"x": vidground.Scalar(1)}
	b := vidground.Example{"y": vidground.Scalar(2)}
	if _, err := Collate([]vidground.Example{a, b}); err == nil {
		t.Errorf("expected error on missing key")
	}
}
