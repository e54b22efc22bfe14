package dataset

import (
	"fmt"

	"github.com/vidgroundml/vidgroundml/vidground"
)

func intsOf(t *vidground.Tensor) []int {
	out := make([]int, len(t.Data))
	for i, x := range t.Data {
		out[i] = int(x)
	}
	return out
}

func sumInts(xs []int) int {
	s := 0
	for _, x := range xs {
		s += x
	}
	return s
}

// shiftPanels adds i*shift to the given columns of panel i, in place.
// t is (n, rows, width).
func shiftPanels(t *vidground.Tensor, cols []int, shift float64) {
	n, rows, width := t.Dim(0), t.Dim(1), t.Dim(2)
	for i := 0; i < n; i++ {
		delta := float64(i) * shift
		base := i * rows * width
		for r := 0; r < rows; r++ {
			for _, c := range cols {
				t.Data[base+r*width+c] += delta
			}
		}
	}
}

// reorderPanels interleaves per-video proposal blocks frame-first:
// (n, numFrms*nppf, rest...) becomes (numFrms*n*nppf, rest...) so that
// all panels of frame 0 come before any panel of frame 1. The model
// side assumes proposals are grouped by frame.
func reorderPanels(t *vidground.Tensor, numFrms, nppf int) *vidground.Tensor {
	n := t.Dim(0)
	rest := t.Shape[2:]
	view := t.Reshape(append([]int{n, numFrms, nppf}, rest...)...)
	tr := view.TransposeFirstTwo()
	return tr.Reshape(append([]int{numFrms * n * nppf}, rest...)...)
}

// gatherGtBoxes concatenates the first counts[i] gt rows of each panel
// and pads to maxGt rows. With no gt anywhere it falls back to the
// first row of panel 0 so downstream matching still sees one box.
func gatherGtBoxes(gt *vidground.Tensor, counts []int, maxGt int) (*vidground.Tensor, error) {
	width := gt.Dim(2)
	var rows [][]float64
	for i := 0; i < gt.Dim(0); i++ {
		panel := gt.Row(i)
		for j := 0; j < counts[i]; j++ {
			rows = append(rows, panel[j*width:(j+1)*width])
		}
	}
	if len(rows) == 0 {
		rows = [][]float64{gt.Row(0)[:width]}
	}
	if len(rows) > maxGt {
		return nil, fmt.Errorf("concat: %d gt boxes exceed max_gt_box %d", len(rows), maxGt)
	}
	out := vidground.NewTensor(maxGt, width)
	for i, row := range rows {
		copy(out.Row(i), row)
	}
	return out, nil
}

// gatherGtMask is the mask counterpart of gatherGtBoxes.
func gatherGtMask(mask *vidground.Tensor, counts []int, maxGt int) *vidground.Tensor {
	var vals []float64
	for i := 0; i < mask.Dim(0); i++ {
		panel := mask.Row(i)
		for j := 0; j < counts[i]; j++ {
			vals = append(vals, panel[j])
		}
	}
	if len(vals) == 0 {
		vals = []float64{mask.Row(0)[0]}
	}
	out := vidground.NewTensor(maxGt)
	copy(out.Data, vals)
	return out
}

// shiftSrlBoxes rebases the per-argument gt box indices of the target
// video onto the concatenated gt list: every linked index moves past
// the boxes of the videos stacked before the target position.
func shiftSrlBoxes(out vidground.Example, counts []int) {
	tcmp := int(out["target_cmp"].Item())
	newPos := float64(sumInts(counts[:tcmp]))
	boxes := out["srl_boxes"]
	lens := out["srl_boxes_lens"]
	for i := range boxes.Data {
		if lens.Data[i] > 0 {
			boxes.Data[i] += newPos
		}
	}
}

// concatFrmMask recomputes the proposal/gt frame mask over the
// concatenated proposal list and pads the gt axis.
func concatFrmMask(props *vidground.Tensor, gt *vidground.Tensor, numBox, maxGt int) *vidground.Tensor {
	numRows := props.Dim(0)
	propFrms := make([]float64, numRows)
	for i := 0; i < numRows; i++ {
		propFrms[i] = props.Row(i)[4]
	}
	gtFrms := make([]float64, numBox)
	for j := 0; j < numBox; j++ {
		gtFrms[j] = gt.Row(j)[4]
	}
	frmMask := FrmMask(propFrms, gtFrms)
	out := vidground.Ones(numRows, maxGt)
	for i := 0; i < numRows; i++ {
		for j := 0; j < numBox; j++ {
			out.Set(frmMask.At(i, j), i, j)
		}
	}
	return out
}

// applySpat stitches the sampled videos side by side on one canvas:
// box x coordinates shift by panel index times the canvas width, and
// the proposal-indexed tensors are re-grouped frame-first so the result
// looks like a single wide video.
func (d *Dataset) applySpat(out vidground.Example) error {
	cfg := d.Cfg
	counts := intsOf(out["num_box"])
	numBox := sumInts(counts)
	shift := float64(cfg.GetCanvasWidth())

	out["num_props"] = vidground.Scalar(out["num_props"].Sum())
	out["num_cmp"] = vidground.Scalar(1)

	props := out["pad_proposals"]
	shiftPanels(props, []int{0, 2}, shift)
	out["pad_proposals"] = reorderPanels(props, cfg.NumSampledFrm, cfg.NumPropPerFrm)

	gt := out["pad_gt_bboxs"]
	shiftPanels(gt, []int{0, 2}, shift)
	gtPad, err := gatherGtBoxes(gt, counts, cfg.MaxGtBox)
	if err != nil {
		return err
	}
	out["pad_gt_bboxs"] = gtPad
	out["pad_gt_box_mask"] = gatherGtMask(out["pad_gt_box_mask"], counts, cfg.MaxGtBox)

	shiftSrlBoxes(out, counts)

	out["num_box2"] = out["num_box"].Clone()
	out["num_box"] = vidground.Scalar(float64(numBox))

	out["pad_frm_mask"] = concatFrmMask(out["pad_proposals"], gtPad, numBox, cfg.MaxGtBox)
	out["pad_pnt_mask"] = reorderPanels(out["pad_pnt_mask"], cfg.NumSampledFrm, cfg.NumPropPerFrm)
	out["pad_region_feature"] = reorderPanels(out["pad_region_feature"], cfg.NumSampledFrm, cfg.NumPropPerFrm)

	out["seg_feature"] = out["seg_feature"].CombineFirstAx()
	out["seg_feature_for_frms"] = out["seg_feature_for_frms"].TransposeFirstTwo().CombineFirstAx()
	out["sample_idx"] = out["sample_idx"].CombineFirstAx()
	return nil
}

// applyTemp stitches the sampled videos end to end in time: frame
// indices shift by panel index times the per-video frame count, and the
// proposal-indexed tensors are concatenated in panel order.
func (d *Dataset) applyTemp(out vidground.Example) error {
	cfg := d.Cfg
	counts := intsOf(out["num_box"])
	numBox := sumInts(counts)
	shift := float64(cfg.NumSampledFrm)

	out["num_props"] = vidground.Scalar(out["num_props"].Sum())
	out["num_cmp"] = vidground.Scalar(1)

	props := out["pad_proposals"]
	shiftPanels(props, []int{4}, shift)
	out["pad_proposals"] = props.CombineFirstAx()

	gt := out["pad_gt_bboxs"]
	shiftPanels(gt, []int{4}, shift)
	gtPad, err := gatherGtBoxes(gt, counts, cfg.MaxGtBox)
	if err != nil {
		return err
	}
	out["pad_gt_bboxs"] = gtPad
	// the mask keeps a leading unit axis here, matching what the
	// temporal model head consumes
	out["pad_gt_box_mask"] = gatherGtMask(out["pad_gt_box_mask"], counts, cfg.MaxGtBox).Reshape(1, cfg.MaxGtBox)

	shiftSrlBoxes(out, counts)

	out["num_box2"] = out["num_box"].Clone()
	out["num_box"] = vidground.Scalar(float64(numBox))

	out["pad_frm_mask"] = concatFrmMask(out["pad_proposals"], gtPad, numBox, cfg.MaxGtBox)
	out["pad_pnt_mask"] = out["pad_pnt_mask"].CombineFirstAx()
	out["pad_region_feature"] = out["pad_region_feature"].CombineFirstAx()

	out["seg_feature"] = out["seg_feature"].CombineFirstAx()
	out["seg_feature_for_frms"] = out["seg_feature_for_frms"].CombineFirstAx()
	out["sample_idx"] = out["sample_idx"].CombineFirstAx()
	return nil
}
