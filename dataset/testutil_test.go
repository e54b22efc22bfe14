package dataset

import (
	"github.com/vidgroundml/vidgroundml/vidground"
)

// two tiny videos with one segment each: enough to exercise every
// getter path without touching the filesystem

func testConfig() *vidground.Config {
	return &vidground.Config{
		NumSampledFrm:   2,
		NumPropPerFrm:   2,
		PropThresh:      0.2,
		ExcludeBgdDet:   true,
		AddPropToRegion: true,
		MaxGtBox:        4,
		TAttnSize:       5,
		CtxForSegFeats:  1,
		MaxSeqLength:    6,
		IncludeSrlArgs:  []string{"ARG0", "ARG1", "ARG2", "ARGM-LOC"},
		SrlArgLength:    3,
		BoxPerSrlArg:    2,
		TrnSample:       "random",
		ValSample:       "random",
		TrnNumVidSample: 2,
		ValNumVidSample: 2,
		ConcType:        "sep",
		CSShuffle:       false,
		CanvasWidth:     720,
		BatchSize:       2,
		NumWorkers:      2,
	}
}

func testBuilder(cfg *vidground.Config) *SegmentBuilder {
	annots := []vidground.SegmentRow{
		{VidID: "v_a", SegID: 0, VidSegID: "v_a_segment_00", Index: 0},
		{VidID: "v_b", SegID: 0, VidSegID: "v_b_segment_00", Index: 1},
	}
	props := &vidground.ProposalStore{
		Counts: []int{4, 4},
		Boxes: [][]vidground.Proposal{
			{
				{0, 0, 10, 10, 0, 1, 0.9},
				{1, 1, 5, 5, 0, 1, 0.1},
				{20, 20, 40, 40, 1, 2, 0.8},
				{2, 2, 8, 8, 1, 1, 0.5},
			},
			{
				{5, 5, 15, 15, 0, 1, 0.7},
				{0, 0, 4, 4, 0, 0, 0.9},
				{30, 30, 50, 50, 1, 1, 0.6},
				{6, 6, 12, 12, 1, 2, 0.4},
			},
		},
	}
	regions := vidground.MemRegionStore{
		"v_a_segment_00": {{1, 1, 1}, {2, 2, 2}, {3, 3, 3}, {4, 4, 4}},
		"v_b_segment_00": {{5, 5, 5}, {6, 6, 6}, {7, 7, 7}, {8, 8, 8}},
	}
	segFeats := vidground.MemSegStore{
		"v_a": {{1, 0}, {2, 0}, {3, 0}, {4, 0}, {5, 0}, {6, 0}},
		"v_b": {{0, 1}, {0, 2}, {0, 3}, {0, 4}, {0, 5}, {0, 6}},
	}
	captions := vidground.CaptionStore{
		"v_a": {Duration: 3.0, Timestamps: [][2]float64{{0.5, 2.5}}},
		"v_b": {Duration: 3.0, Timestamps: [][2]float64{{0.5, 2.5}}},
	}
	entAnnots := vidground.EntAnnotStore{
		"v_a": {
			"0": &vidground.GroundTruth{
				Bboxes:    [][4]float64{{10, 10, 20, 20}, {30, 30, 40, 40}},
				FrameIdxs: []int{0, 1},
			},
		},
		"v_b": {
			"0": &vidground.GroundTruth{
				Bboxes:    [][4]float64{{15, 15, 25, 25}},
				FrameIdxs: []int{0},
			},
		},
	}
	return &SegmentBuilder{
		Cfg:       cfg,
		Annots:    annots,
		Props:     props,
		Regions:   regions,
		SegFeats:  segFeats,
		Captions:  captions,
		EntAnnots: entAnnots,
	}
}

func testSRLRows() []vidground.SRLRow {
	return []vidground.SRLRow{
		{
			AnnInd:    0,
			LemmaVerb: "play",
			Words:     []string{"the", "man", "plays", "a", "guitar"},
			Tags:      []string{"B-ARG0", "I-ARG0", "B-V", "B-ARG1", "I-ARG1"},
			ReqPatIx: []vidground.ArgSpan{
				{Arg: "ARG0", WordIdxs: []int{0, 1}},
				{Arg: "V", WordIdxs: []int{2}},
				{Arg: "ARG1", WordIdxs: []int{3, 4}},
			},
			ReqClsPats: []vidground.ArgBoxes{
				{Arg: "ARG0", HasBox: 1, BoxIdxs: []int{0}},
				{Arg: "V", HasBox: 0},
				{Arg: "ARG1", HasBox: 1, BoxIdxs: []int{1}},
			},
			VisualWordIdxs: []int{1, 4},
			DS4Inds:        []vidground.ArgCandidates{{Arg: "ARG0", Idxs: []int{1}}},
			RandDS4Inds:    []vidground.ArgCandidates{{Arg: "ARG0", Idxs: []int{1}}},
		},
		{
			AnnInd:    1,
			LemmaVerb: "run",
			Words:     []string{"a", "dog", "runs"},
			Tags:      []string{"B-ARG0", "I-ARG0", "B-V"},
			ReqPatIx: []vidground.ArgSpan{
				{Arg: "ARG0", WordIdxs: []int{0, 1}},
				{Arg: "V", WordIdxs: []int{2}},
			},
			ReqClsPats: []vidground.ArgBoxes{
				{Arg: "ARG0", HasBox: 1, BoxIdxs: []int{0}},
				{Arg: "V", HasBox: 0},
			},
			VisualWordIdxs: []int{1},
			DS4Inds:        []vidground.ArgCandidates{{Arg: "ARG0", Idxs: []int{0}}},
			RandDS4Inds:    []vidground.ArgCandidates{{Arg: "ARG0", Idxs: []int{0}}},
		},
	}
}

func testVocabs() (*vidground.Vocab, *vidground.ArgVocabs) {
	words := &vidground.Vocab{
		Stoi: map[string]int{
			"UNK": 0, "<pad>": 1, "the": 2, "man": 3, "plays": 4,
			"a": 5, "guitar": 6, "dog": 7, "runs": 8,
		},
	}
	args := &vidground.ArgVocabs{
		Arg: vidground.Vocab{
			Stoi: map[string]int{"UNK": 0, "<pad>": 1, "ARG0": 2, "V": 3, "ARG1": 4},
		},
		Tag: vidground.Vocab{
			Stoi: map[string]int{
				"UNK": 0, "<pad>": 1, "B-ARG0": 2, "I-ARG0": 3,
				"B-V": 4, "B-ARG1": 5, "I-ARG1": 6,
			},
		},
	}
	return words, args
}

func testDataset(t interface {
	Fatalf(format string, args ...interface{})
}, cfg *vidground.Config, split string) *Dataset {
	builder := testBuilder(cfg)
	words, args := testVocabs()
	ds, err := NewDataset(cfg, split, builder, testSRLRows(), NewSRLEncoder(cfg, words, args), &RandomGenerator{})
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return ds
}
