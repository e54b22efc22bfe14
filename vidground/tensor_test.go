package vidground

import (
	"testing"
)

func TestTensorAtSet(t *testing.T) {
	x := NewTensor(2, 3)
	x.Set(5, 1, 2)
	if x.At(1, 2) != 5 {
		t.Errorf("At(1,2) = %v; want 5", x.At(1, 2))
	}
	if x.Data[5] != 5 {
		t.Errorf("row-major offset wrong: %v", x.Data)
	}
}

func TestTensorRow(t *testing.T) {
	x := FromMatrix([][]float64{{1, 2}, {3, 4}})
	row := x.Row(1)
	if row[0] != 3 || row[1] != 4 {
		t.Errorf("Row(1) = %v; want [3 4]", row)
	}
	row[0] = 9
	if x.At(1, 0) != 9 {
		t.Errorf("Row must be a view")
	}
}

func TestStack(t *testing.T) {
	a := FromVector([]float64{1, 2})
	b := FromVector([]float64{3, 4})
	out, err := Stack([]*Tensor{a, b})
	if err != nil {
		t.Fatalf("Stack: %v", err)
	}
	if !ShapeEquals(out.Shape, []int{2, 2}) {
		t.Fatalf("Stack shape = %v; want [2 2]", out.Shape)
	}
	if out.At(1, 0) != 3 {
		t.Errorf("Stack data wrong: %v", out.Data)
	}

	// scalars stack into a vector
	out, err = Stack([]*Tensor{Scalar(7), Scalar(8)})
	if err != nil {
		t.Fatalf("Stack scalars: %v", err)
	}
	if !ShapeEquals(out.Shape, []int{2}) {
		t.Errorf("Stack scalar shape = %v; want [2]", out.Shape)
	}

	_, err = Stack([]*Tensor{a, NewTensor(3)})
	if err == nil {
		t.Errorf("Stack should reject mismatched shapes")
	}
}

func TestCombineFirstAx(t *testing.T) {
	x := NewTensor(2, 3, 4)
	out := x.CombineFirstAx()
	if !ShapeEquals(out.Shape, []int{6, 4}) {
		t.Errorf("CombineFirstAx shape = %v; want [6 4]", out.Shape)
	}
}

func TestTransposeFirstTwo(t *testing.T) {
	x := FromMatrix([][]float64{{1, 2, 3}, {4, 5, 6}})
	out := x.TransposeFirstTwo()
	if !ShapeEquals(out.Shape, []int{3, 2}) {
		t.Fatalf("transpose shape = %v; want [3 2]", out.Shape)
	}
	if out.At(0, 1) != 4 || out.At(2, 0) != 3 {
		t.Errorf("transpose data wrong: %v", out.Data)
	}

	// with trailing dims
	y := NewTensor(2, 3, 2)
	for i := range y.Data {
		y.Data[i] = float64(i)
	}
	out = y.TransposeFirstTwo()
	if !ShapeEquals(out.Shape, []int{3, 2, 2}) {
		t.Fatalf("transpose shape = %v; want [3 2 2]", out.Shape)
	}
	// element (i=1, j=2, k=0) moves to (2, 1, 0)
	if out.At(2, 1, 0) != y.At(1, 2, 0) {
		t.Errorf("transpose moved blocks incorrectly")
	}
}

func TestTensorJSONRoundTrip(t *testing.T) {
	x := FromMatrix([][]float64{{1, 2}, {3, 4}})
	var y Tensor
	if err := y.UnmarshalJSON(JsonMarshal(x)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !x.Equals(&y) {
		t.Errorf("round trip mismatch: %v vs %v", x, y)
	}

	var bad Tensor
	if err := bad.UnmarshalJSON([]byte(`{"shape":[2,2],"data":[1]}`)); err == nil {
		t.Errorf("unmarshal should reject shape/data mismatch")
	}
}
