package vidground

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
)

// Fixed grid size of the temporally resampled segment features.
const NumSegBins = 10

// Segment features are extracted at 2 fps.
const FeatSampleRate = 2.0

// Splits.
const (
	TrainSplit = "train"
	ValidSplit = "valid"
	TestSplit  = "test"
)

// Config is the dataset configuration, decoded from JSON.
type Config struct {
	// data paths
	ProposalFile   string `json:"proposal_file"`
	FeatureRoot    string `json:"feature_root"`
	SegFeatureRoot string `json:"seg_feature_root"`
	TrnAnnFile     string `json:"trn_ann_file"`
	ValAnnFile     string `json:"val_ann_file"`
	TrnSrlFile     string `json:"trn_srl_file"`
	ValSrlFile     string `json:"val_srl_file"`
	CaptionFile    string `json:"caption_file"`
	EntAnnotFile   string `json:"ent_annot_file"`
	DicFile        string `json:"dic_file"`
	ArgVocabFile   string `json:"arg_vocab_file"`

	// proposal handling
	NumSampledFrm   int     `json:"num_sampled_frm"`
	NumPropPerFrm   int     `json:"num_prop_per_frm"`
	PropThresh      float64 `json:"prop_thresh"`
	ExcludeBgdDet   bool    `json:"exclude_bgd_det"`
	AddPropToRegion bool    `json:"add_prop_to_region"`
	MaxGtBox        int     `json:"max_gt_box"`

	// temporal features
	TAttnSize      int `json:"t_attn_size"`
	CtxForSegFeats int `json:"ctx_for_seg_feats"`

	// language
	MaxSeqLength   int      `json:"max_seq_length"`
	IncludeSrlArgs []string `json:"include_srl_args"`
	SrlArgLength   int      `json:"srl_arg_length"`
	BoxPerSrlArg   int      `json:"box_per_srl_arg"`

	// contrastive sampling
	TrnSample       string `json:"trn_sample"`
	ValSample       string `json:"val_sample"`
	TrnNumVidSample int    `json:"trn_num_vid_sample"`
	ValNumVidSample int    `json:"val_num_vid_sample"`
	ConcType        string `json:"conc_type"`
	CSShuffle       bool   `json:"cs_shuffle"`

	// concatenation canvas: proposals are assumed resized to this width
	CanvasWidth int `json:"canvas_width"`

	// loader
	BatchSize  int `json:"batch_size"`
	NumWorkers int `json:"num_workers"`
}

// MaxProposals is the padded proposal count per segment.
func (cfg *Config) MaxProposals() int {
	return cfg.NumSampledFrm * cfg.NumPropPerFrm
}

func (cfg *Config) GetCanvasWidth() int {
	if cfg.CanvasWidth == 0 {
		return 720
	}
	return cfg.CanvasWidth
}

// NumVidSample returns cs_nvids_sample for the split. svsq and none
// degenerate to a single video.
func (cfg *Config) NumVidSample(split string) int {
	if cfg.ConcType == "svsq" || cfg.ConcType == "none" {
		return 1
	}
	if split == TrainSplit {
		return cfg.TrnNumVidSample
	}
	return cfg.ValNumVidSample
}

func (cfg *Config) SampleType(split string) string {
	if split == TrainSplit {
		return cfg.TrnSample
	}
	return cfg.ValSample
}

// Validate fails fast on unsupported enum values and degenerate sizes
// before any data is touched.
func (cfg *Config) Validate() error {
	switch cfg.ConcType {
	case "spat", "temp", "sep", "svsq", "none":
	default:
		return fmt.Errorf("config: unsupported conc_type %q", cfg.ConcType)
	}
	switch cfg.TrnSample {
	case "random", "ds4", "ds4_random":
	default:
		return fmt.Errorf("config: unsupported trn_sample %q", cfg.TrnSample)
	}
	switch cfg.ValSample {
	case "random", "ds4":
	default:
		return fmt.Errorf("config: unsupported val_sample %q", cfg.ValSample)
	}
	if cfg.NumSampledFrm <= 0 || cfg.NumPropPerFrm <= 0 {
		return fmt.Errorf("config: num_sampled_frm and num_prop_per_frm must be positive")
	}
	if cfg.MaxGtBox <= 0 || cfg.TAttnSize <= 0 || cfg.MaxSeqLength <= 0 {
		return fmt.Errorf("config: max_gt_box, t_attn_size, max_seq_length must be positive")
	}
	if cfg.SrlArgLength <= 0 || cfg.BoxPerSrlArg <= 0 {
		return fmt.Errorf("config: srl_arg_length and box_per_srl_arg must be positive")
	}
	if cfg.TrnNumVidSample <= 0 || cfg.ValNumVidSample <= 0 {
		return fmt.Errorf("config: trn_num_vid_sample and val_num_vid_sample must be positive")
	}
	return nil
}

func LoadConfig(fname string) (*Config, error) {
	bytes, err := ioutil.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("config %s: %v", fname, err)
	}
	var cfg Config
	if err := json.Unmarshal(bytes, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %v", fname, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
