package vidground

// Proposal is one candidate box from the upstream detector:
// (x1, y1, x2, y2, frame index, class id, confidence).
type Proposal [7]float64

func (p Proposal) FrameIdx() float64 { return p[4] }
func (p Proposal) Class() float64    { return p[5] }
func (p Proposal) Score() float64    { return p[6] }

// Box is a ground-truth box with its frame index:
// (x1, y1, x2, y2, frame index).
type Box [5]float64

func (b Box) FrameIdx() float64 { return b[4] }

// SegmentRow identifies one (video, sub-segment) pair in the annotation
// table. Index points into the proposal store.
type SegmentRow struct {
	VidID    string `json:"vid_id"`
	SegID    int    `json:"seg_id"`
	VidSegID string `json:"id"`
	Index    int    `json:"index"`
}

// ArgSpan is one labeled argument of an SRL frame together with the word
// positions it covers in the sentence.
type ArgSpan struct {
	Arg      string `json:"arg"`
	WordIdxs []int  `json:"word_idxs"`
}

// ArgBoxes links one argument to ground-truth box indices.
// HasBox is 1 when the box list is valid for this argument.
type ArgBoxes struct {
	Arg     string `json:"arg"`
	HasBox  int    `json:"has_box"`
	BoxIdxs []int  `json:"box_idxs"`
}

// ArgCandidates is an ordered candidate group: contrastive row indices
// keyed by the argument they were mined for. Order matters: eval takes a
// deterministic prefix of these groups.
type ArgCandidates struct {
	Arg  string `json:"arg"`
	Idxs []int  `json:"idxs"`
}

// SRLRow is one semantic-role-labeled verb occurrence.
type SRLRow struct {
	// index of the (video, segment) row this verb belongs to
	AnnInd    int      `json:"ann_ind"`
	LemmaVerb string   `json:"lemma_verb"`
	Words     []string `json:"words"`
	Tags      []string `json:"tags"`
	// argument word spans, in sentence order
	ReqPatIx []ArgSpan `json:"req_pat_ix"`
	// argument-to-box links
	ReqClsPats []ArgBoxes `json:"req_cls_pats_mask"`
	// sentence positions flagged as visual words
	VisualWordIdxs []int `json:"process_idx2"`
	// precomputed candidate groups, eval splits only
	DS4Inds     []ArgCandidates `json:"ds4_inds"`
	RandDS4Inds []ArgCandidates `json:"rand_ds4_inds"`
}

// GroundTruth holds the grounding annotation of one segment.
type GroundTruth struct {
	Bboxes    [][4]float64 `json:"bbox"`
	FrameIdxs []int        `json:"frm_idx"`
}

// CaptionInfo is the per-video timing annotation: total duration plus the
// [start, end] timestamps of each segment.
type CaptionInfo struct {
	Duration   float64      `json:"duration"`
	Timestamps [][2]float64 `json:"timestamps"`
}

// Example is the unit flowing through the pipeline: named tensors,
// extended by later stages via Update and stacked by the collator.
type Example map[string]*Tensor

func (e Example) Update(o Example) {
	for k, v := range o {
		e[k] = v
	}
}

func (e Example) Clone() Example {
	out := make(Example, len(e))
	for k, v := range e {
		out[k] = v.Clone()
	}
	return out
}
