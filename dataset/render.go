package dataset

import (
	"fmt"

	"github.com/vidgroundml/vidgroundml/vidground"
)

var (
	gtColor    = [3]uint8{0, 255, 0}
	propColor  = [3]uint8{255, 255, 255}
	matchColor = [3]uint8{255, 255, 0}
)

// Proposals at or above this IoU against a valid gt box are drawn in
// the match color.
const matchIouThresh = 0.5

// bestGtOverlaps scores each proposal row by its best IoU against the
// valid gt boxes. Pairs on different frames score zero.
func bestGtOverlaps(props, gt, gtMask *vidground.Tensor) []float64 {
	rows := make([]vidground.Proposal, props.Dim(0))
	for i := range rows {
		copy(rows[i][:], props.Row(i))
	}
	best := make([]float64, len(rows))
	var boxes []vidground.Box
	for j := 0; j < gt.Dim(0); j++ {
		if gtMask != nil && gtMask.Data[j] == 0 {
			continue
		}
		var b vidground.Box
		copy(b[:], gt.Row(j))
		boxes = append(boxes, b)
	}
	if len(boxes) == 0 {
		return best
	}
	ious := vidground.Overlaps(rows, boxes)
	for i := range rows {
		for j := range boxes {
			if v := ious.At(i, j); v > best[i] {
				best[i] = v
			}
		}
	}
	return best
}

// RenderComposite draws the stitched example on a blank canvas: valid
// gt boxes in green, included proposals in white (yellow when they
// overlap a gt box), plus the target panel label. frameFname, when
// given, is a sample frame used to size one panel; otherwise the panel
// defaults to 720x405.
func RenderComposite(out vidground.Example, numPanels int, frameFname string) ([]byte, error) {
	width, height := 720, 405
	if frameFname != "" {
		dims, err := vidground.GetImageDimsFromFile(frameFname)
		if err != nil {
			return nil, err
		}
		width, height = dims[0], dims[1]
	}
	if numPanels < 1 {
		numPanels = 1
	}
	canvas := vidground.NewImage(width*numPanels, height)

	props, ok := out["pad_proposals"]
	if !ok || props.NDim() != 2 {
		return nil, fmt.Errorf("render: pad_proposals missing or not concatenated")
	}
	gt := out["pad_gt_bboxs"]
	gtMask := out["pad_gt_box_mask"]
	var best []float64
	if gt != nil {
		best = bestGtOverlaps(props, gt, gtMask)
	}

	pntMask := out["pad_pnt_mask"]
	for i := 0; i < props.Dim(0); i++ {
		if pntMask != nil && pntMask.Data[i] == 0 {
			continue
		}
		color := propColor
		if best != nil && best[i] >= matchIouThresh {
			color = matchColor
		}
		row := props.Row(i)
		canvas.DrawRectangle(int(row[0]), int(row[1]), int(row[2]), int(row[3]), 1, color)
	}
	if gt != nil {
		for i := 0; i < gt.Dim(0); i++ {
			if gtMask != nil && gtMask.Data[i] == 0 {
				continue
			}
			row := gt.Row(i)
			canvas.DrawRectangle(int(row[0]), int(row[1]), int(row[2]), int(row[3]), 2, gtColor)
		}
	}

	if t, ok := out["target_cmp"]; ok {
		canvas.DrawText(vidground.RichText{
			Text: fmt.Sprintf("target panel %d", int(t.Item())),
		})
	}
	return canvas.AsPNG(), nil
}
