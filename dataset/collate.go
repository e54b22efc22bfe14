package dataset

import (
	"fmt"

	"github.com/vidgroundml/vidgroundml/vidground"
)

// ShapeError reports a per-key shape disagreement inside a batch.
type ShapeError struct {
	Key  string
	Want []int
	Got  []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("collate %s: shape %v does not match %v", e.Key, e.Got, e.Want)
}

// CollateDictList stacks a list of examples along a new leading axis,
// padding the list to padLen with clones of the first example. Returns
// the stacked example and the unpadded count.
func CollateDictList(dicts []vidground.Example, padLen int) (vidground.Example, int, error) {
	if len(dicts) == 0 {
		return nil, 0, fmt.Errorf("collate: empty example list")
	}
	numDl := len(dicts)
	padded := vidground.PadFunc(dicts, padLen, func() vidground.Example {
		return dicts[0].Clone()
	})
	out := make(vidground.Example, len(dicts[0]))
	for k := range dicts[0] {
		ts := make([]*vidground.Tensor, len(padded))
		for i, d := range padded {
			t, ok := d[k]
			if !ok {
				return nil, 0, fmt.Errorf("collate %s: missing in example %d", k, i)
			}
			ts[i] = t
		}
		stacked, err := vidground.Stack(ts)
		if err != nil {
			return nil, 0, &ShapeError{Key: k, Want: ts[0].Shape, Got: shapeOfMismatch(ts)}
		}
		out[k] = stacked
	}
	return out, numDl, nil
}

func shapeOfMismatch(ts []*vidground.Tensor) []int {
	for _, t := range ts[1:] {
		if !vidground.ShapeEquals(t.Shape, ts[0].Shape) {
			return t.Shape
		}
	}
	return ts[0].Shape
}

// Collate stacks a batch of examples into batch-major tensors. All
// examples must agree on keys and per-key shapes.
func Collate(batch []vidground.Example) (vidground.Example, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("collate: empty batch")
	}
	out := make(vidground.Example, len(batch[0]))
	for k, first := range batch[0] {
		ts := make([]*vidground.Tensor, len(batch))
		for i, ex := range batch {
			t, ok := ex[k]
			if !ok {
				return nil, fmt.Errorf("collate %s: missing in example %d", k, i)
			}
			if !vidground.ShapeEquals(t.Shape, first.Shape) {
				return nil, &ShapeError{Key: k, Want: first.Shape, Got: t.Shape}
			}
			ts[i] = t
		}
		stacked, err := vidground.Stack(ts)
		if err != nil {
			return nil, err
		}
		out[k] = stacked
	}
	return out, nil
}
