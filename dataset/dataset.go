package dataset

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/vidgroundml/vidgroundml/vidground"
)

// GetterKind selects how a verb index is turned into an example.
type GetterKind int

const (
	// single video, no contrastive sampling
	GetSimple GetterKind = iota
	// sampled videos kept separate, language appended to each
	GetSep
	// sampled videos stitched side by side on one canvas
	GetSpat
	// sampled videos stitched end to end in time
	GetTemp
)

func kindForConcType(concType string) (GetterKind, error) {
	switch concType {
	case "spat":
		return GetSpat, nil
	case "temp":
		return GetTemp, nil
	case "sep", "svsq":
		return GetSep, nil
	case "none":
		return GetSimple, nil
	}
	return 0, fmt.Errorf("dataset: unsupported conc_type %q", concType)
}

// Dataset produces training/eval examples for one split. It is
// read-only after construction; concurrent Get calls only need their
// own rng.
type Dataset struct {
	Cfg     *vidground.Config
	Split   string
	Builder *SegmentBuilder
	SRL     []vidground.SRLRow
	Encoder *SRLEncoder
	// word/detection lookups, populated by FromConfig for the serve
	// layer to hand to the training process
	Dicts *vidground.WordDicts

	sampler          *Sampler
	kind             GetterKind
	nvids            int
	appendEverywhere bool
}

func NewDataset(cfg *vidground.Config, split string, builder *SegmentBuilder, srl []vidground.SRLRow, encoder *SRLEncoder, gen CandidateGenerator) (*Dataset, error) {
	switch split {
	case vidground.TrainSplit, vidground.ValidSplit, vidground.TestSplit:
	default:
		return nil, fmt.Errorf("dataset: unknown split %q", split)
	}
	kind, err := kindForConcType(cfg.ConcType)
	if err != nil {
		return nil, err
	}
	sampler, err := NewSampler(cfg, split, gen)
	if err != nil {
		return nil, err
	}
	for i, row := range srl {
		if row.AnnInd < 0 || row.AnnInd >= builder.Len() {
			return nil, fmt.Errorf("dataset: srl row %d points at annotation %d of %d", i, row.AnnInd, builder.Len())
		}
	}
	return &Dataset{
		Cfg:              cfg,
		Split:            split,
		Builder:          builder,
		SRL:              srl,
		Encoder:          encoder,
		sampler:          sampler,
		kind:             kind,
		nvids:            cfg.NumVidSample(split),
		appendEverywhere: kind == GetSep,
	}, nil
}

func (d *Dataset) Len() int {
	return len(d.SRL)
}

// Get builds the example for one verb row. rng drives the contrastive
// sampling and the screen shuffle; eval callers should still pass a
// seeded rng even though eval sampling is deterministic.
func (d *Dataset) Get(idx int, rng *rand.Rand) (vidground.Example, error) {
	switch d.kind {
	case GetSimple:
		return d.composeSingle(idx)
	case GetSep:
		return d.composeNVid(idx, rng)
	case GetSpat:
		out, err := d.composeNVid(idx, rng)
		if err != nil {
			return nil, err
		}
		if err := d.applySpat(out); err != nil {
			return nil, err
		}
		return out, nil
	case GetTemp:
		out, err := d.composeNVid(idx, rng)
		if err != nil {
			return nil, err
		}
		if err := d.applyTemp(out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("dataset: unknown getter kind %d", d.kind)
}

// Single is the plain single-video getter, kept around for debugging
// and the render tool.
func (d *Dataset) Single(idx int) (vidground.Example, error) {
	return d.composeSingle(idx)
}

// annotation tables inside a sqlite export
const (
	annotTable = "annots"
	srlTable   = "srl_annots"
)

func loadRows(annFname, srlFname string) ([]vidground.SegmentRow, []vidground.SRLRow, error) {
	if strings.HasSuffix(annFname, ".sqlite3") {
		db, err := vidground.OpenAnnotDB(annFname)
		if err != nil {
			return nil, nil, err
		}
		defer db.Close()
		annots, err := db.Annotations(annotTable)
		if err != nil {
			return nil, nil, err
		}
		var srl []vidground.SRLRow
		if srlFname == annFname || srlFname == "" {
			srl, err = db.SRLAnnotations(srlTable)
		} else {
			srlDB, err2 := vidground.OpenAnnotDB(srlFname)
			if err2 != nil {
				return nil, nil, err2
			}
			defer srlDB.Close()
			srl, err = srlDB.SRLAnnotations(srlTable)
		}
		if err != nil {
			return nil, nil, err
		}
		return annots, srl, nil
	}

	annots, err := vidground.LoadAnnotations(annFname)
	if err != nil {
		return nil, nil, err
	}
	srl, err := vidground.LoadSRLAnnotations(srlFname)
	if err != nil {
		return nil, nil, err
	}
	return annots, srl, nil
}

// FromConfig loads every store the config names and assembles the
// dataset for a split. JSON files and sqlite exports are both accepted
// for the annotation tables.
func FromConfig(cfg *vidground.Config, split string, gen CandidateGenerator) (*Dataset, error) {
	annFname, srlFname := cfg.TrnAnnFile, cfg.TrnSrlFile
	if split != vidground.TrainSplit {
		annFname, srlFname = cfg.ValAnnFile, cfg.ValSrlFile
	}
	annots, srl, err := loadRows(annFname, srlFname)
	if err != nil {
		return nil, err
	}
	log.Printf("[dataset] %s: %d segments, %d verb rows", split, len(annots), len(srl))

	props, err := vidground.LoadProposals(cfg.ProposalFile)
	if err != nil {
		return nil, err
	}
	captions, err := vidground.LoadCaptions(cfg.CaptionFile)
	if err != nil {
		return nil, err
	}
	entAnnots, err := vidground.LoadEntAnnots(cfg.EntAnnotFile)
	if err != nil {
		return nil, err
	}
	dicts, err := vidground.LoadWordDicts(cfg.DicFile)
	if err != nil {
		return nil, err
	}
	argVocabs, err := vidground.LoadArgVocabs(cfg.ArgVocabFile)
	if err != nil {
		return nil, err
	}

	builder := &SegmentBuilder{
		Cfg:       cfg,
		Annots:    annots,
		Props:     props,
		Regions:   vidground.FileRegionStore{Root: cfg.FeatureRoot},
		SegFeats:  vidground.FileSegStore{Root: cfg.SegFeatureRoot},
		Captions:  captions,
		EntAnnots: entAnnots,
	}
	encoder := NewSRLEncoder(cfg, dicts.Words(), argVocabs)
	if gen == nil {
		gen = &RandomGenerator{}
	}
	ds, err := NewDataset(cfg, split, builder, srl, encoder, gen)
	if err != nil {
		return nil, err
	}
	ds.Dicts = dicts
	return ds, nil
}
