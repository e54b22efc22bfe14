package vidground

import (
	"fmt"
	"strconv"
)

// PadWordIndex is the vocabulary index reserved for padding.
const PadWordIndex = 1

// Vocab maps tokens to indices with an UNK fallback.
type Vocab struct {
	Stoi map[string]int `json:"stoi"`
	Itos []string       `json:"itos"`
	// UNK token, defaults to "UNK"
	Unk string `json:"unk"`
}

func (v *Vocab) IndexOf(w string) int {
	if ix, ok := v.Stoi[w]; ok {
		return ix
	}
	unk := v.Unk
	if unk == "" {
		unk = "UNK"
	}
	return v.Stoi[unk]
}

func (v *Vocab) Size() int {
	if len(v.Itos) > 0 {
		return len(v.Itos)
	}
	return len(v.Stoi)
}

func (v *Vocab) Validate() error {
	if len(v.Itos) > PadWordIndex && v.Itos[PadWordIndex] != "<pad>" {
		return fmt.Errorf("vocab: index %d is %q, want \"<pad>\"", PadWordIndex, v.Itos[PadWordIndex])
	}
	return nil
}

// WordDicts bundles the caption-word and detection-class vocabularies
// produced by the preprocessing step.
type WordDicts struct {
	// detection class names to raw indices
	Wtod map[string]int `json:"wtod"`
	// word index (as decimal string) to word
	IxToWord map[string]string `json:"ix_to_word"`

	// derived lookups
	Wtoi map[string]int `json:"-"`
	Itow map[int]string `json:"-"`
	Dtoi map[string]int `json:"-"`
}

func (d *WordDicts) build() error {
	d.Wtoi = make(map[string]int, len(d.IxToWord))
	d.Itow = make(map[int]string, len(d.IxToWord))
	for ixs, w := range d.IxToWord {
		ix, err := strconv.Atoi(ixs)
		if err != nil {
			return fmt.Errorf("word dict: bad index %q: %v", ixs, err)
		}
		d.Itow[ix] = w
		d.Wtoi[w] = ix
	}
	// detection classes are shifted by one so that 0 stays background
	d.Dtoi = make(map[string]int, len(d.Wtod))
	for w, i := range d.Wtod {
		d.Dtoi[w] = i + 1
	}
	return nil
}

// VocabSize counts words plus one unused slot, matching the embedding
// table the downstream model allocates.
func (d *WordDicts) VocabSize() int {
	return len(d.Itow) + 1
}

func (d *WordDicts) DetectSize() int {
	return len(d.Dtoi)
}

// Words exposes the caption-word lookup as a Vocab.
func (d *WordDicts) Words() *Vocab {
	return &Vocab{Stoi: d.Wtoi, Unk: "UNK"}
}

func LoadWordDicts(fname string) (*WordDicts, error) {
	var d WordDicts
	if err := ReadJSONFile(fname, &d); err != nil {
		return nil, fmt.Errorf("word dict %s: %v", fname, err)
	}
	if err := d.build(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ArgVocabs bundles the argument-role and tag vocabularies.
type ArgVocabs struct {
	Arg Vocab `json:"arg_vocab"`
	Tag Vocab `json:"arg_tag_vocab"`
}

func LoadArgVocabs(fname string) (*ArgVocabs, error) {
	var v ArgVocabs
	if err := ReadJSONFile(fname, &v); err != nil {
		return nil, fmt.Errorf("arg vocab %s: %v", fname, err)
	}
	if err := v.Arg.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}
