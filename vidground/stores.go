package vidground

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ProposalStore holds the precomputed detections, indexable by row
// position in the annotation table.
type ProposalStore struct {
	Counts []int        `json:"dets_num"`
	Boxes  [][]Proposal `json:"dets_labels"`
}

// Get returns the detection count and a copy of the first count boxes for
// a row. Copying keeps later coordinate shifts from touching the store.
func (s *ProposalStore) Get(index int) (int, []Proposal) {
	num := s.Counts[index]
	stored := s.Boxes[index]
	if num > len(stored) {
		num = len(stored)
	}
	props := make([]Proposal, num)
	copy(props, stored[:num])
	return num, props
}

func (s *ProposalStore) Len() int {
	return len(s.Counts)
}

func LoadProposals(fname string) (*ProposalStore, error) {
	var s ProposalStore
	if err := ReadJSONFile(fname, &s); err != nil {
		return nil, fmt.Errorf("proposal store %s: %v", fname, err)
	}
	if len(s.Counts) != len(s.Boxes) {
		return nil, fmt.Errorf("proposal store %s: %d counts but %d box rows", fname, len(s.Counts), len(s.Boxes))
	}
	return &s, nil
}

// RegionFeatureStore yields the per-proposal feature matrix of a segment.
type RegionFeatureStore interface {
	Regions(vidSegID string) ([][]float64, error)
}

// SegFeatureStore yields the per-frame temporal feature matrix of a
// video, RGB and motion channels concatenated.
type SegFeatureStore interface {
	Segment(vidID string) ([][]float64, error)
}

// FileRegionStore reads region features from Root/<vid_seg_id>.json.
type FileRegionStore struct {
	Root string
}

func (s FileRegionStore) Regions(vidSegID string) ([][]float64, error) {
	fname := filepath.Join(s.Root, vidSegID+".json")
	var feats [][]float64
	if err := ReadJSONFile(fname, &feats); err != nil {
		return nil, fmt.Errorf("region features %s: %v", fname, err)
	}
	return feats, nil
}

// FileSegStore reads Root/<id>_resnet.json and Root/<id>_bn.json where
// <id> is the video id without its "v_" prefix, and concatenates them
// channel-wise. Both files must exist.
type FileSegStore struct {
	Root string
}

func (s FileSegStore) Segment(vidID string) ([][]float64, error) {
	id := strings.TrimPrefix(vidID, "v_")
	rgbFname := filepath.Join(s.Root, id+"_resnet.json")
	motionFname := filepath.Join(s.Root, id+"_bn.json")
	var rgb, motion [][]float64
	if err := ReadJSONFile(rgbFname, &rgb); err != nil {
		return nil, fmt.Errorf("segment rgb features %s: %v", rgbFname, err)
	}
	if err := ReadJSONFile(motionFname, &motion); err != nil {
		return nil, fmt.Errorf("segment motion features %s: %v", motionFname, err)
	}
	return ConcatChannels(rgb, motion)
}

// ConcatChannels joins two per-frame feature matrices along the channel
// axis. Frame counts must agree.
func ConcatChannels(a, b [][]float64) ([][]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("segment features: %d rgb frames vs %d motion frames", len(a), len(b))
	}
	out := make([][]float64, len(a))
	for i := range a {
		row := make([]float64, 0, len(a[i])+len(b[i]))
		row = append(row, a[i]...)
		row = append(row, b[i]...)
		out[i] = row
	}
	return out, nil
}

// MemRegionStore and MemSegStore are in-memory stores, used in tests and
// by callers that already hold parsed arrays.
type MemRegionStore map[string][][]float64

func (s MemRegionStore) Regions(vidSegID string) ([][]float64, error) {
	feats, ok := s[vidSegID]
	if !ok {
		return nil, fmt.Errorf("region features: no entry for %s", vidSegID)
	}
	return feats, nil
}

type MemSegStore map[string][][]float64

func (s MemSegStore) Segment(vidID string) ([][]float64, error) {
	feats, ok := s[vidID]
	if !ok {
		return nil, fmt.Errorf("segment features: no entry for %s", vidID)
	}
	return feats, nil
}

// CaptionStore maps video id to its timing annotation.
type CaptionStore map[string]CaptionInfo

func LoadCaptions(fname string) (CaptionStore, error) {
	var s CaptionStore
	if err := ReadJSONFile(fname, &s); err != nil {
		return nil, fmt.Errorf("captions %s: %v", fname, err)
	}
	return s, nil
}

// EntAnnotStore maps video id -> segment id -> grounding annotation.
type EntAnnotStore map[string]map[string]*GroundTruth

func LoadEntAnnots(fname string) (EntAnnotStore, error) {
	var raw map[string]struct {
		Segments map[string]*GroundTruth `json:"segments"`
	}
	if err := ReadJSONFile(fname, &raw); err != nil {
		return nil, fmt.Errorf("grounding annotations %s: %v", fname, err)
	}
	s := make(EntAnnotStore, len(raw))
	for vid, entry := range raw {
		s[vid] = entry.Segments
	}
	return s, nil
}

func (s EntAnnotStore) Get(vidID string, segID int) (*GroundTruth, error) {
	segs, ok := s[vidID]
	if !ok {
		return nil, fmt.Errorf("grounding annotations: no video %s", vidID)
	}
	gt, ok := segs[fmt.Sprintf("%d", segID)]
	if !ok {
		return nil, fmt.Errorf("grounding annotations: no segment %d in video %s", segID, vidID)
	}
	return gt, nil
}

func LoadAnnotations(fname string) ([]SegmentRow, error) {
	var rows []SegmentRow
	if err := ReadJSONFile(fname, &rows); err != nil {
		return nil, fmt.Errorf("annotations %s: %v", fname, err)
	}
	return rows, nil
}

func LoadSRLAnnotations(fname string) ([]SRLRow, error) {
	var rows []SRLRow
	if err := ReadJSONFile(fname, &rows); err != nil {
		return nil, fmt.Errorf("srl annotations %s: %v", fname, err)
	}
	return rows, nil
}
