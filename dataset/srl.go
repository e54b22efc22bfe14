package dataset

import (
	"fmt"

	"github.com/vidgroundml/vidgroundml/vidground"
)

// SRLEncoder maps one semantic-role-labeled verb frame into index/mask
// tensors aligned to the word space (seq_length positions per argument)
// and the box space (box_per_srl_arg links per argument).
type SRLEncoder struct {
	Cfg   *vidground.Config
	Words *vidground.Vocab
	Args  *vidground.ArgVocabs

	visSet map[string]bool
}

func NewSRLEncoder(cfg *vidground.Config, words *vidground.Vocab, args *vidground.ArgVocabs) *SRLEncoder {
	visSet := make(map[string]bool, len(cfg.IncludeSrlArgs))
	for _, a := range cfg.IncludeSrlArgs {
		visSet[a] = true
	}
	return &SRLEncoder{Cfg: cfg, Words: words, Args: args, visSet: visSet}
}

// wordsToInts converts tokens to vocabulary indices (UNK fallback) and
// pads to padLen with the reserved pad index. The returned count is the
// unpadded length.
func wordsToInts(words []string, voc *vidground.Vocab, padLen int) ([]int, int) {
	out := make([]int, len(words))
	for i, w := range words {
		out[i] = voc.IndexOf(w)
	}
	return vidground.Pad(out, padLen, vidground.PadWordIndex), len(words)
}

func intsTensor2D(rows [][]int) *vidground.Tensor {
	if len(rows) == 0 {
		return vidground.NewTensor(0, 0)
	}
	t := vidground.NewTensor(len(rows), len(rows[0]))
	for i, row := range rows {
		dst := t.Row(i)
		for j, x := range row {
			dst[j] = float64(x)
		}
	}
	return t
}

// Encode builds the fixed-size SRL tensors for one verb frame.
func (e *SRLEncoder) Encode(row vidground.SRLRow) (vidground.Example, error) {
	srlArgLen := e.Cfg.SrlArgLength
	seqLen := e.Cfg.MaxSeqLength
	boxPer := e.Cfg.BoxPerSrlArg

	if len(row.ReqPatIx) == 0 {
		return nil, fmt.Errorf("srl encode: row has no argument spans")
	}

	srlArgs := make([]string, len(row.ReqPatIx))
	srlWordsInds := make([][]int, len(row.ReqPatIx))
	for i, span := range row.ReqPatIx {
		srlArgs[i] = span.Arg
		srlWordsInds[i] = span.WordIdxs
	}

	// 1 where the argument's role is in the configured visual set
	visMsk := make([]int, len(srlArgs))
	for i, arg := range srlArgs {
		if e.visSet[arg] {
			visMsk[i] = 1
		}
	}
	srlArgsVisualMsk := vidground.Pad(visMsk, srlArgLen, 0)

	// words of each argument span
	srlArgWords := make([][]string, len(srlWordsInds))
	for i, span := range srlWordsInds {
		words := make([]string, len(span))
		for j, ix := range span {
			if ix < 0 || ix >= len(row.Words) {
				return nil, fmt.Errorf("srl encode: word index %d out of range (%d words)", ix, len(row.Words))
			}
			words[j] = row.Words[ix]
		}
		srlArgWords[i] = words
	}

	// tags of the covered positions, via the tag vocabulary
	var tagSeq []string
	for _, span := range srlWordsInds {
		for _, ix := range span {
			if ix < 0 || ix >= len(row.Tags) {
				return nil, fmt.Errorf("srl encode: tag index %d out of range (%d tags)", ix, len(row.Tags))
			}
			tagSeq = append(tagSeq, row.Tags[ix])
		}
	}
	tagWordInd, _ := wordsToInts(tagSeq, &e.Args.Tag, seqLen)

	// locate the verb; a slot past srl_arg_len falls back to 0
	// (data-quality dependent, see the dataset notes)
	verbIndInSrl := -1
	for i, arg := range srlArgs {
		if arg == "V" {
			verbIndInSrl = i
			break
		}
	}
	if verbIndInSrl == -1 {
		return nil, fmt.Errorf("srl encode: no V argument in %v", srlArgs)
	}
	if verbIndInSrl > srlArgLen-1 {
		verbIndInSrl = 0
	}

	srlArgInds, srlArgCount := wordsToInts(srlArgs, &e.Args.Arg, srlArgLen)
	if srlArgCount > srlArgLen {
		srlArgCount = srlArgLen
	}

	// per-argument word indices and true lengths
	srlArgWordsInd := make([][]int, len(srlArgWords))
	srlArgWordsLength := make([]int, len(srlArgWords))
	for i, words := range srlArgWords {
		srlArgWordsInd[i], srlArgWordsLength[i] = wordsToInts(words, e.Words, seqLen)
	}
	srlArgWordsInd = vidground.PadFunc(srlArgWordsInd, srlArgLen, func() []int {
		filler := make([]int, seqLen)
		for i := range filler {
			filler[i] = vidground.PadWordIndex
		}
		return filler
	})
	srlArgWordsLength = vidground.Pad(srlArgWordsLength, srlArgLen, 0)

	// flattened gather map: argument-slot-local positions to flat
	// sentence positions, sentinel -1 beyond the real words
	var flat []int
	for slot, wlen := range srlArgWordsLength {
		st := slot * seqLen
		for k := 0; k < wlen; k++ {
			flat = append(flat, st+k)
		}
	}
	srlArgWordsMask := vidground.Pad(flat, seqLen, -1)

	// capture spans: (start, end) of each argument in the flat sentence,
	// clipped to the sequence bound; empty arguments map to (0, 0)
	capture := make([][]int, srlArgLen)
	cum := 0
	for i := 0; i < srlArgLen; i++ {
		wlen := srlArgWordsLength[i]
		if wlen > 0 {
			capture[i] = []int{
				vidground.MinInt(cum, seqLen-1),
				vidground.MinInt(cum+wlen-1, seqLen-1),
			}
		} else {
			capture[i] = []int{0, 0}
		}
		cum += wlen
	}

	// inverse map: flat sentence position to owning argument slot
	var mapInv []int
	for slot, span := range srlWordsInds {
		if slot >= srlArgLen {
			break
		}
		for range span {
			mapInv = append(mapInv, slot)
		}
	}
	mapInv = vidground.Pad(mapInv, seqLen, 0)

	// word-validity mask rows: 1 up to the sentence length, one row per
	// real argument
	seqCnt := 0
	for _, wlen := range srlArgWordsLength {
		seqCnt += wlen
	}
	onesRow := func() []int {
		row := make([]int, seqLen)
		for i := 0; i < seqCnt && i < seqLen; i++ {
			row[i] = 1
		}
		return row
	}
	binaryMask := make([][]int, len(srlArgWords))
	for i := range binaryMask {
		binaryMask[i] = onesRow()
	}
	binaryMask = vidground.PadFunc(binaryMask, srlArgLen, func() []int {
		return make([]int, seqLen)
	})

	// visual-word mask over the flat sentence
	visIdxs := make(map[int]bool, len(row.VisualWordIdxs))
	for _, ix := range row.VisualWordIdxs {
		visIdxs[ix] = true
	}
	var visWords []int
	for _, span := range srlWordsInds {
		for _, ix := range span {
			if visIdxs[ix] {
				visWords = append(visWords, 1)
			} else {
				visWords = append(visWords, 0)
			}
		}
	}
	visWordsBinaryMask := vidground.Pad(visWords, seqLen, 0)

	// ground-truth box linkage per argument
	srlBoxes := make([][]int, len(row.ReqClsPats))
	srlBoxesLens := make([][]int, len(row.ReqClsPats))
	boxIndicator := make([]int, len(row.ReqClsPats))
	for i, ab := range row.ReqClsPats {
		boxIndicator[i] = ab.HasBox
		mult := 0
		if ab.HasBox == 1 {
			mult = vidground.MinInt(len(ab.BoxIdxs), boxPer)
		}
		clipped := make([]int, len(ab.BoxIdxs))
		for j, x := range ab.BoxIdxs {
			if j < boxPer {
				clipped[j] = x
			}
		}
		srlBoxes[i] = vidground.Pad(clipped, boxPer, 0)
		lens := make([]int, mult)
		for j := range lens {
			lens[j] = 1
		}
		srlBoxesLens[i] = vidground.Pad(lens, boxPer, 0)
	}
	zeroBoxRow := func() []int { return make([]int, boxPer) }
	srlBoxes = vidground.PadFunc(srlBoxes, srlArgLen, zeroBoxRow)
	srlBoxesLens = vidground.PadFunc(srlBoxesLens, srlArgLen, zeroBoxRow)
	boxIndicator = vidground.Pad(boxIndicator, srlArgLen, 0)

	indsMsk := make([]int, srlArgLen)
	for i := 0; i < srlArgCount; i++ {
		indsMsk[i] = 1
	}

	return vidground.Example{
		"srl_tag_word_ind":          vidground.FromInts(tagWordInd),
		"srl_args_visual_msk":       vidground.FromInts(srlArgsVisualMsk),
		"srl_arg_inds":              vidground.FromInts(srlArgInds),
		"srl_arg_len":               vidground.Scalar(float64(srlArgCount)),
		"srl_arg_inds_msk":          vidground.FromInts(indsMsk),
		"verb_ind_in_srl":           vidground.Scalar(float64(verbIndInSrl)),
		"srl_arg_words_ind":         intsTensor2D(srlArgWordsInd),
		"srl_arg_words_length":      vidground.FromInts(srlArgWordsLength),
		"srl_arg_words_binary_mask": intsTensor2D(binaryMask),
		"srl_vis_words_binary_mask": vidground.FromInts(visWordsBinaryMask),
		"srl_arg_word_mask":         vidground.FromInts(srlArgWordsMask),
		"srl_arg_word_mask_len":     vidground.Scalar(float64(vidground.MinInt(seqCnt, seqLen))),
		"srl_arg_words_capture":     intsTensor2D(capture),
		"srl_arg_words_map_inv":     vidground.FromInts(mapInv),
		"srl_boxes":                 intsTensor2D(srlBoxes),
		"srl_boxes_lens":            intsTensor2D(srlBoxesLens),
		"srl_arg_boxes_mask":        vidground.FromInts(boxIndicator),
	}, nil
}
