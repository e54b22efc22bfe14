package dataset

import (
	"fmt"
	"math"

	"github.com/vidgroundml/vidgroundml/vidground"

	"gonum.org/v1/gonum/floats"
)

// SegmentBuilder assembles single-video examples from the read-only
// stores. One builder is shared by all loader workers; it holds no
// mutable state.
type SegmentBuilder struct {
	Cfg       *vidground.Config
	Annots    []vidground.SegmentRow
	Props     *vidground.ProposalStore
	Regions   vidground.RegionFeatureStore
	SegFeats  vidground.SegFeatureStore
	Captions  vidground.CaptionStore
	EntAnnots vidground.EntAnnotStore
}

func (b *SegmentBuilder) Len() int {
	return len(b.Annots)
}

// GetProps returns the padded proposals, the padded inclusion mask, and
// the number of proposals for an annotation row. A proposal is included
// when its confidence clears the threshold and, if background exclusion
// is on, its class is not background.
func (b *SegmentBuilder) GetProps(index int) ([]vidground.Proposal, []float64, int) {
	_, props := b.Props.Get(index)
	mask := make([]float64, len(props))
	for i, p := range props {
		include := p.Score() >= b.Cfg.PropThresh
		if b.Cfg.ExcludeBgdDet {
			include = include && p.Class() != 0
		}
		if include {
			mask[i] = 1
		}
	}
	maxProps := b.Cfg.MaxProposals()
	numProps := vidground.MinInt(len(props), maxProps)
	paddedProps := vidground.Pad(props, maxProps, vidground.Proposal{})
	paddedMask := vidground.Pad(mask, maxProps, 0)
	return paddedProps, paddedMask, numProps
}

// GetGTAnnots pads the ground-truth boxes (coordinates plus frame index)
// and their validity mask. Box/frame-index count mismatch indicates a
// corrupt annotation and is a hard error.
func (b *SegmentBuilder) GetGTAnnots(gt *vidground.GroundTruth) ([]vidground.Box, []float64, int, error) {
	if len(gt.Bboxes) != len(gt.FrameIdxs) {
		return nil, nil, 0, fmt.Errorf("gt annots: %d boxes but %d frame indices", len(gt.Bboxes), len(gt.FrameIdxs))
	}
	numBox := len(gt.Bboxes)
	boxes := make([]vidground.Box, numBox)
	for i, bb := range gt.Bboxes {
		boxes[i] = vidground.Box{bb[0], bb[1], bb[2], bb[3], float64(gt.FrameIdxs[i])}
	}
	mask := make([]float64, numBox)
	for i := range mask {
		mask[i] = 1
	}
	paddedBoxes := vidground.Pad(boxes, b.Cfg.MaxGtBox, vidground.Box{})
	paddedMask := vidground.Pad(mask, b.Cfg.MaxGtBox, 0)
	return paddedBoxes, paddedMask, numBox, nil
}

// FrmMask outer-compares two frame-index vectors: 1 where the proposal
// and the gt box lie on different frames (the pair must be excluded from
// positive matching), 0 where they share a frame.
func FrmMask(propFrms, gtFrms []float64) *vidground.Tensor {
	out := vidground.NewTensor(len(propFrms), len(gtFrms))
	for i, pf := range propFrms {
		for j, gf := range gtFrms {
			if pf != gf {
				out.Set(1, i, j)
			}
		}
	}
	return out
}

// GetFeatures loads the region features of a segment and the temporal
// features of its video. The region feature count must equal numProps;
// a mismatch means the stores are out of sync and is fatal for the row.
func (b *SegmentBuilder) GetFeatures(vidID, vidSegID string, numProps int, props []vidground.Proposal) ([][]float64, [][]float64, error) {
	region, err := b.Regions.Regions(vidSegID)
	if err != nil {
		return nil, nil, err
	}
	if len(region) != numProps {
		return nil, nil, fmt.Errorf("region features %s: %d rows but %d proposals", vidSegID, len(region), numProps)
	}
	if b.Cfg.AddPropToRegion {
		withProps := make([][]float64, len(region))
		for i, row := range region {
			ext := make([]float64, 0, len(row)+5)
			ext = append(ext, row...)
			ext = append(ext, props[i][:5]...)
			withProps[i] = ext
		}
		region = withProps
	}
	segRaw, err := b.SegFeats.Segment(vidID)
	if err != nil {
		return nil, nil, err
	}
	return region, segRaw, nil
}

func meanRows(rows [][]float64, lo, hi int) []float64 {
	acc := make([]float64, len(rows[0]))
	for i := lo; i < hi; i++ {
		floats.Add(acc, rows[i])
	}
	floats.Scale(1/float64(hi-lo), acc)
	return acc
}

// SegFeatForFrms resamples a clip's per-frame features into the fixed
// NumSegBins grid. Each bin center is mapped to a source index assuming
// the 2 fps extraction rate, then mean-pooled over a small +-ctx window.
// Also returns the global mean over the whole clip window. Inverted
// timestamps are swapped (a known data quirk); an empty window falls back
// to the single center index.
func (b *SegmentBuilder) SegFeatForFrms(segFeats [][]float64, timestamps [2]float64) ([][]float64, []float64, error) {
	numFrms := len(segFeats)
	if numFrms == 0 {
		return nil, nil, fmt.Errorf("segment features: empty feature sequence")
	}
	ctx := b.Cfg.CtxForSegFeats
	stTime, endTime := timestamps[0], timestamps[1]
	if stTime > endTime {
		stTime, endTime = endTime, stTime
	}
	durationClip := endTime - stTime

	centers := make([]int, vidground.NumSegBins)
	stIndices := make([]int, vidground.NumSegBins)
	endIndices := make([]int, vidground.NumSegBins)
	for i := range centers {
		frmTime := stTime + (durationClip/vidground.NumSegBins)*(float64(i)+0.5)
		centers[i] = vidground.Clip(int(frmTime*vidground.FeatSampleRate)-1, 0, numFrms-1)
		stIndices[i] = vidground.Clip(centers[i]-ctx-1, 0, numFrms)
		endIndices[i] = vidground.Clip(centers[i]+ctx+1, 0, numFrms)
	}

	var glob []float64
	last := vidground.NumSegBins - 1
	if stIndices[0] != endIndices[last] {
		glob = meanRows(segFeats, stIndices[0], endIndices[last])
	} else {
		// degenerate clip window, fall back to the single frame
		glob = append([]float64{}, segFeats[stIndices[0]]...)
	}

	frms := make([][]float64, vidground.NumSegBins)
	for i := range frms {
		if ctx != 0 {
			frms[i] = meanRows(segFeats, stIndices[i], endIndices[i])
		} else {
			frms[i] = append([]float64{}, segFeats[centers[i]]...)
		}
	}
	return frms, glob, nil
}

func propsTensor(props []vidground.Proposal) *vidground.Tensor {
	t := vidground.NewTensor(len(props), 7)
	for i, p := range props {
		copy(t.Row(i), p[:])
	}
	return t
}

func boxesTensor(boxes []vidground.Box) *vidground.Tensor {
	t := vidground.NewTensor(len(boxes), 5)
	for i, b := range boxes {
		copy(t.Row(i), b[:])
	}
	return t
}

func propFrames(props []vidground.Proposal, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = props[i].FrameIdx()
	}
	return out
}

func boxFrames(boxes []vidground.Box, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = boxes[i].FrameIdx()
	}
	return out
}

// BuildSegment assembles the example for one annotation row: padded
// proposals and gt boxes with their masks and counts, the padded region
// features, the frame mask, and the temporal feature tensors.
func (b *SegmentBuilder) BuildSegment(idx int) (vidground.Example, error) {
	if idx < 0 || idx >= len(b.Annots) {
		return nil, fmt.Errorf("build segment: index %d out of range", idx)
	}
	row := b.Annots[idx]

	paddedProps, pntMask, numProps := b.GetProps(row.Index)
	if numProps == 0 {
		return nil, fmt.Errorf("build segment %s: no proposals", row.VidSegID)
	}

	region, segRaw, err := b.GetFeatures(row.VidID, row.VidSegID, numProps, paddedProps)
	if err != nil {
		return nil, err
	}

	capInfo, ok := b.Captions[row.VidID]
	if !ok {
		return nil, fmt.Errorf("build segment: no captions for video %s", row.VidID)
	}
	if row.SegID < 0 || row.SegID >= len(capInfo.Timestamps) {
		return nil, fmt.Errorf("build segment %s: segment %d has no timestamps", row.VidID, row.SegID)
	}
	timestamps := capInfo.Timestamps[row.SegID]
	dur := capInfo.Duration

	numFrm := len(segRaw)
	if numFrm == 0 {
		return nil, fmt.Errorf("build segment %s: empty segment features", row.VidID)
	}
	featDim := len(segRaw[0])

	// clip-window frame positions, kept for downstream bookkeeping
	sampleIdx := vidground.NewTensor(2)
	for i, ts := range timestamps {
		x := math.RoundToEven(float64(numFrm) * ts / dur)
		sampleIdx.Data[i] = float64(vidground.Clip(int(x), 0, b.Cfg.TAttnSize))
	}

	// fixed-length temporal feature tensor: truncate or zero-fill
	segFeature := vidground.NewTensor(b.Cfg.TAttnSize, featDim)
	for i := 0; i < vidground.MinInt(b.Cfg.TAttnSize, numFrm); i++ {
		copy(segFeature.Row(i), segRaw[i])
	}

	segFrms, segGlob, err := b.SegFeatForFrms(segRaw, timestamps)
	if err != nil {
		return nil, err
	}

	gt, err := b.EntAnnots.Get(row.VidID, row.SegID)
	if err != nil {
		return nil, err
	}
	paddedBoxes, gtMask, numBox, err := b.GetGTAnnots(gt)
	if err != nil {
		return nil, err
	}

	frmMask := FrmMask(propFrames(paddedProps, numProps), boxFrames(paddedBoxes, numBox))
	maxProps := b.Cfg.MaxProposals()
	padFrmMask := vidground.Ones(maxProps, b.Cfg.MaxGtBox)
	for i := 0; i < numProps; i++ {
		for j := 0; j < numBox; j++ {
			padFrmMask.Set(frmMask.At(i, j), i, j)
		}
	}

	regionDim := len(region[0])
	padRegion := vidground.NewTensor(maxProps, regionDim)
	for i := 0; i < numProps; i++ {
		copy(padRegion.Row(i), region[i])
	}

	return vidground.Example{
		"seg_feature":               segFeature,
		"seg_feature_for_frms":      vidground.FromMatrix(segFrms),
		"seg_feature_for_frms_glob": vidground.FromVector(segGlob),
		"num_props":                 vidground.Scalar(float64(numProps)),
		"num_box":                   vidground.Scalar(float64(numBox)),
		"pad_proposals":             propsTensor(paddedProps),
		"pad_gt_bboxs":              boxesTensor(paddedBoxes),
		"pad_gt_box_mask":           vidground.FromVector(gtMask),
		"seg_id":                    vidground.Scalar(float64(row.SegID)),
		"idx":                       vidground.Scalar(float64(idx)),
		"ann_idx":                   vidground.Scalar(float64(idx)),
		"pad_region_feature":        padRegion,
		"pad_frm_mask":              padFrmMask,
		"pad_pnt_mask":              vidground.FromVector(pntMask),
		"sample_idx":                sampleIdx,
	}, nil
}
