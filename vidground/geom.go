package vidground

import (
	"github.com/mitroadmaps/gomapinfer/common"
)

func (p Proposal) Rectangle() common.Rectangle {
	return common.Rectangle{
		Min: common.Point{X: p[0], Y: p[1]},
		Max: common.Point{X: p[2], Y: p[3]},
	}
}

func (b Box) Rectangle() common.Rectangle {
	return common.Rectangle{
		Min: common.Point{X: b[0], Y: b[1]},
		Max: common.Point{X: b[2], Y: b[3]},
	}
}

// Overlaps computes the proposals x boxes IoU matrix. Pairs on different
// frames score zero; combine with FrmMask when matching positives.
func Overlaps(proposals []Proposal, boxes []Box) *Tensor {
	out := NewTensor(len(proposals), len(boxes))
	for i, p := range proposals {
		prect := p.Rectangle()
		for j, b := range boxes {
			if p.FrameIdx() != b.FrameIdx() {
				continue
			}
			out.Set(prect.IOU(b.Rectangle()), i, j)
		}
	}
	return out
}
