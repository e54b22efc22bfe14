package vidground

import (
	"encoding/json"
	"fmt"
)

// Tensor is a dense, row-major float64 array with an explicit shape.
// A zero-length shape denotes a scalar. It is the currency of the example
// pipeline: every value in an Example is a Tensor so that examples can be
// collated key-by-key into batches.
type Tensor struct {
	Shape []int
	Data  []float64
}

func shapeNumel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func ShapeEquals(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// NewTensor returns a zero-filled tensor of the given shape.
func NewTensor(shape ...int) *Tensor {
	return &Tensor{
		Shape: append([]int{}, shape...),
		Data:  make([]float64, shapeNumel(shape)),
	}
}

func Ones(shape ...int) *Tensor {
	t := NewTensor(shape...)
	for i := range t.Data {
		t.Data[i] = 1
	}
	return t
}

func Scalar(x float64) *Tensor {
	return &Tensor{Shape: []int{}, Data: []float64{x}}
}

func FromVector(xs []float64) *Tensor {
	t := NewTensor(len(xs))
	copy(t.Data, xs)
	return t
}

func FromInts(xs []int) *Tensor {
	t := NewTensor(len(xs))
	for i, x := range xs {
		t.Data[i] = float64(x)
	}
	return t
}

// FromMatrix copies a rectangular [][]float64. All rows must have the
// width of the first row.
func FromMatrix(rows [][]float64) *Tensor {
	if len(rows) == 0 {
		return NewTensor(0, 0)
	}
	width := len(rows[0])
	t := NewTensor(len(rows), width)
	for i, row := range rows {
		if len(row) != width {
			panic(fmt.Errorf("tensor: ragged matrix: row %d has %d columns, want %d", i, len(row), width))
		}
		copy(t.Data[i*width:(i+1)*width], row)
	}
	return t
}

func (t *Tensor) Numel() int {
	return len(t.Data)
}

func (t *Tensor) NDim() int {
	return len(t.Shape)
}

func (t *Tensor) Dim(i int) int {
	return t.Shape[i]
}

func (t *Tensor) offset(ix []int) int {
	if len(ix) != len(t.Shape) {
		panic(fmt.Errorf("tensor: index rank %d against shape %v", len(ix), t.Shape))
	}
	off := 0
	for i, x := range ix {
		if x < 0 || x >= t.Shape[i] {
			panic(fmt.Errorf("tensor: index %v out of range for shape %v", ix, t.Shape))
		}
		off = off*t.Shape[i] + x
	}
	return off
}

func (t *Tensor) At(ix ...int) float64 {
	return t.Data[t.offset(ix)]
}

func (t *Tensor) Set(v float64, ix ...int) {
	t.Data[t.offset(ix)] = v
}

// Item returns the value of a scalar tensor.
func (t *Tensor) Item() float64 {
	if len(t.Data) != 1 {
		panic(fmt.Errorf("tensor: Item on shape %v", t.Shape))
	}
	return t.Data[0]
}

func (t *Tensor) Clone() *Tensor {
	out := &Tensor{
		Shape: append([]int{}, t.Shape...),
		Data:  make([]float64, len(t.Data)),
	}
	copy(out.Data, t.Data)
	return out
}

// Reshape returns a view over the same data with a new shape.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	if shapeNumel(shape) != len(t.Data) {
		panic(fmt.Errorf("tensor: cannot reshape %v to %v", t.Shape, shape))
	}
	return &Tensor{Shape: append([]int{}, shape...), Data: t.Data}
}

// Row returns the flat data block at first-axis index i, as a view.
func (t *Tensor) Row(i int) []float64 {
	if len(t.Shape) == 0 {
		panic(fmt.Errorf("tensor: Row on scalar"))
	}
	stride := len(t.Data) / t.Shape[0]
	return t.Data[i*stride : (i+1)*stride]
}

func (t *Tensor) Sum() float64 {
	s := 0.0
	for _, x := range t.Data {
		s += x
	}
	return s
}

func (t *Tensor) Equals(o *Tensor) bool {
	if !ShapeEquals(t.Shape, o.Shape) {
		return false
	}
	for i := range t.Data {
		if t.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// Stack concatenates tensors of identical shape along a new leading
// dimension. Scalars stack into a vector.
func Stack(ts []*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("tensor: stack of zero tensors")
	}
	shape := ts[0].Shape
	for i, t := range ts {
		if !ShapeEquals(t.Shape, shape) {
			return nil, fmt.Errorf("tensor: stack shape mismatch: element %d has %v, want %v", i, t.Shape, shape)
		}
	}
	outShape := append([]int{len(ts)}, shape...)
	out := NewTensor(outShape...)
	stride := shapeNumel(shape)
	for i, t := range ts {
		copy(out.Data[i*stride:(i+1)*stride], t.Data)
	}
	return out, nil
}

// CombineFirstAx merges the first two dimensions: (a, b, rest...) becomes
// (a*b, rest...).
func (t *Tensor) CombineFirstAx() *Tensor {
	if len(t.Shape) < 2 {
		panic(fmt.Errorf("tensor: CombineFirstAx on shape %v", t.Shape))
	}
	shape := append([]int{t.Shape[0] * t.Shape[1]}, t.Shape[2:]...)
	return &Tensor{Shape: shape, Data: t.Data}
}

// TransposeFirstTwo swaps the first two dimensions, copying the data.
func (t *Tensor) TransposeFirstTwo() *Tensor {
	if len(t.Shape) < 2 {
		panic(fmt.Errorf("tensor: TransposeFirstTwo on shape %v", t.Shape))
	}
	a, b := t.Shape[0], t.Shape[1]
	rest := shapeNumel(t.Shape[2:])
	outShape := append([]int{b, a}, t.Shape[2:]...)
	out := NewTensor(outShape...)
	for i := 0; i < a; i++ {
		for j := 0; j < b; j++ {
			src := (i*b + j) * rest
			dst := (j*a + i) * rest
			copy(out.Data[dst:dst+rest], t.Data[src:src+rest])
		}
	}
	return out
}

type tensorJSON struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func (t *Tensor) MarshalJSON() ([]byte, error) {
	return json.Marshal(tensorJSON{Shape: t.Shape, Data: t.Data})
}

func (t *Tensor) UnmarshalJSON(b []byte) error {
	var tj tensorJSON
	if err := json.Unmarshal(b, &tj); err != nil {
		return err
	}
	if shapeNumel(tj.Shape) != len(tj.Data) {
		return fmt.Errorf("tensor: shape %v does not match %d values", tj.Shape, len(tj.Data))
	}
	t.Shape = tj.Shape
	t.Data = tj.Data
	return nil
}
