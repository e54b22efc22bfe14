package vidground

import (
	"testing"
)

func TestOverlaps(t *testing.T) {
	props := []Proposal{
		{0, 0, 10, 10, 0, 1, 0.9},
		{0, 0, 10, 10, 1, 1, 0.9},
		{100, 100, 110, 110, 0, 1, 0.9},
	}
	boxes := []Box{
		{0, 0, 10, 10, 0},
	}
	out := Overlaps(props, boxes)
	if !ShapeEquals(out.Shape, []int{3, 1}) {
		t.Fatalf("Overlaps shape = %v; want [3 1]", out.Shape)
	}
	if out.At(0, 0) != 1 {
		t.Errorf("identical box IoU = %v; want 1", out.At(0, 0))
	}
	// same box, different frame
	if out.At(1, 0) != 0 {
		t.Errorf("cross-frame IoU = %v; want 0", out.At(1, 0))
	}
	// disjoint
	if out.At(2, 0) != 0 {
		t.Errorf("disjoint IoU = %v; want 0", out.At(2, 0))
	}
}

func TestOverlapsPartial(t *testing.T) {
	props := []Proposal{{0, 0, 10, 10, 0, 1, 0.9}}
	boxes := []Box{{5, 0, 15, 10, 0}}
	// intersection 50, union 150
	iou := Overlaps(props, boxes).At(0, 0)
	if iou < 0.33 || iou > 0.34 {
		t.Errorf("partial IoU = %v; want ~1/3", iou)
	}
}
