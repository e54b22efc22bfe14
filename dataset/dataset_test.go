package dataset

import (
	"testing"

	"github.com/vidgroundml/vidgroundml/vidground"
)

func TestNewDatasetValidation(t *testing.T) {
	cfg := testConfig()
	builder := testBuilder(cfg)
	words, args := testVocabs()
	encoder := NewSRLEncoder(cfg, words, args)

	if _, err := NewDataset(cfg, "nope", builder, testSRLRows(), encoder, &RandomGenerator{}); err == nil {
		t.Errorf("expected error on unknown split")
	}

	bad := testSRLRows()
	bad[0].AnnInd = 99
	if _, err := NewDataset(cfg, vidground.ValidSplit, builder, bad, encoder, &RandomGenerator{}); err == nil {
		t.Errorf("expected error on dangling ann_ind")
	}

	cfg.ConcType = "bogus"
	if _, err := NewDataset(cfg, vidground.ValidSplit, builder, testSRLRows(), encoder, &RandomGenerator{}); err == nil {
		t.Errorf("expected error on unknown conc_type")
	}
}

func TestSvsqUsesOneVideo(t *testing.T) {
	cfg := testConfig()
	cfg.ConcType = "svsq"
	ds := testDataset(t, cfg, vidground.ValidSplit)

	out, err := ds.Get(0, vidground.NewSeededRand(1))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out["num_cmp"].Item() != 1 {
		t.Errorf("num_cmp = %v; want 1", out["num_cmp"].Item())
	}
	if !vidground.ShapeEquals(out["pad_proposals"].Shape, []int{1, 4, 7}) {
		t.Errorf("pad_proposals shape = %v", out["pad_proposals"].Shape)
	}
	// language rides along like sep
	if !vidground.ShapeEquals(out["srl_boxes"].Shape, []int{1, cfg.SrlArgLength, cfg.BoxPerSrlArg}) {
		t.Errorf("srl_boxes shape = %v", out["srl_boxes"].Shape)
	}
}

func TestNoneConcType(t *testing.T) {
	cfg := testConfig()
	cfg.ConcType = "none"
	ds := testDataset(t, cfg, vidground.ValidSplit)

	// Get routes through the plain single-video path: no contrastive
	// sampling, no comparison axis
	out, err := ds.Get(0, vidground.NewSeededRand(1))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out["ann_idx"].Item() != 0 || out["sent_idx"].Item() != 0 {
		t.Errorf("ann_idx/sent_idx = %v/%v; want 0/0", out["ann_idx"].Item(), out["sent_idx"].Item())
	}
	if !vidground.ShapeEquals(out["pad_proposals"].Shape, []int{4, 7}) {
		t.Errorf("pad_proposals shape = %v", out["pad_proposals"].Shape)
	}
	if cfg.NumVidSample(vidground.ValidSplit) != 1 {
		t.Errorf("NumVidSample = %d; want 1", cfg.NumVidSample(vidground.ValidSplit))
	}
}

func TestSingleGetter(t *testing.T) {
	cfg := testConfig()
	ds := testDataset(t, cfg, vidground.ValidSplit)

	out, err := ds.Single(1)
	if err != nil {
		t.Fatalf("Single: %v", err)
	}
	if out["ann_idx"].Item() != 1 || out["sent_idx"].Item() != 1 {
		t.Errorf("ann_idx/sent_idx = %v/%v; want 1/1", out["ann_idx"].Item(), out["sent_idx"].Item())
	}
	// no comparison axis on the single path
	if !vidground.ShapeEquals(out["pad_proposals"].Shape, []int{4, 7}) {
		t.Errorf("pad_proposals shape = %v", out["pad_proposals"].Shape)
	}
	if !vidground.ShapeEquals(out["srl_boxes"].Shape, []int{cfg.SrlArgLength, cfg.BoxPerSrlArg}) {
		t.Errorf("srl_boxes shape = %v", out["srl_boxes"].Shape)
	}
}
