package dataset

import (
	"fmt"
	"math/rand"

	"github.com/vidgroundml/vidgroundml/vidground"
)

func permuteInts(xs []int, perm []int) []int {
	out := make([]int, len(perm))
	for i, p := range perm {
		out[i] = xs[p]
	}
	return out
}

func permuteStrings(xs []string, perm []int) []string {
	out := make([]string, len(perm))
	for i, p := range perm {
		out[i] = xs[p]
	}
	return out
}

// argsort of a permutation is its inverse.
func invertPerm(perm []int) []int {
	inv := make([]int, len(perm))
	for i, p := range perm {
		inv[p] = i
	}
	return inv
}

// eyePadded is the identity of size n, zero-padded to size total.
func eyePadded(n, total int) *vidground.Tensor {
	out := vidground.NewTensor(total, total)
	for i := 0; i < n; i++ {
		out.Set(1, i, i)
	}
	return out
}

// boolMatrixPadded builds the n x n matrix fill(i, j), zero-padded on
// both axes to total x total.
func boolMatrixPadded(n, total int, fill func(i, j int) bool) *vidground.Tensor {
	out := vidground.NewTensor(total, total)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if fill(i, j) {
				out.Set(1, i, j)
			}
		}
	}
	return out
}

// gatherIdxs builds the list of compared row indices: the target first,
// then candidates taken round-robin across groups. Train keeps cycling
// until nvids rows are found or a full pass adds nothing; eval takes a
// single deterministic pass. -1 entries are placeholder rejects from
// the candidate miner.
func (d *Dataset) gatherIdxs(rng *rand.Rand, idx int) []int {
	moreIdxs := d.sampler.MoreIdxs(rng, d.SRL, idx)
	newIdxs := []int{idx}

	if d.Split == vidground.TrainSplit {
		for cons := 0; len(newIdxs) < d.nvids; cons++ {
			added := false
			for _, g := range moreIdxs {
				if len(newIdxs) >= d.nvids {
					break
				}
				if cons >= len(g.Idxs) {
					continue
				}
				if cand := g.Idxs[cons]; cand != -1 {
					newIdxs = append(newIdxs, cand)
					added = true
				}
			}
			if !added {
				// all groups exhausted, compose with what we have
				break
			}
		}
	} else {
		for _, g := range moreIdxs {
			if len(newIdxs) >= d.nvids {
				break
			}
			if len(g.Idxs) == 0 {
				continue
			}
			if cand := g.Idxs[0]; cand != -1 {
				newIdxs = append(newIdxs, cand)
			}
		}
	}
	return newIdxs
}

// composeNVid builds the multi-video example for verb row idx: the
// target video plus up to nvids-1 contrastive videos, shuffled so the
// target position is not always first, with the verb-match flags and
// permutation bookkeeping the training loss needs.
func (d *Dataset) composeNVid(idx int, rng *rand.Rand) (vidground.Example, error) {
	if idx < 0 || idx >= len(d.SRL) {
		return nil, fmt.Errorf("compose: verb index %d out of range", idx)
	}

	newIdxs := d.gatherIdxs(rng, idx)
	currVerb := d.SRL[idx].LemmaVerb
	verbCmp := make([]int, len(newIdxs))
	verbList := make([]string, len(newIdxs))
	for i, ix := range newIdxs {
		verbList[i] = d.SRL[ix].LemmaVerb
		if verbList[i] == currVerb {
			verbCmp[i] = 1
		}
	}

	var perm []int
	if d.Cfg.CSShuffle {
		perm = rng.Perm(len(newIdxs))
	} else {
		perm = make([]int, len(newIdxs))
		for i := range perm {
			perm[i] = i
		}
	}
	permInv := invertPerm(perm)
	// position of the target video after the shuffle
	targCmp := permInv[0]

	newIdxs = permuteInts(newIdxs, perm)
	verbCmp = permuteInts(verbCmp, perm)
	verbList = permuteStrings(verbList, perm)

	vidOuts := make([]vidground.Example, len(newIdxs))
	for i, ix := range newIdxs {
		out, err := d.Builder.BuildSegment(d.SRL[ix].AnnInd)
		if err != nil {
			return nil, fmt.Errorf("compose row %d: %v", ix, err)
		}
		vidOuts[i] = out
	}

	srlOut, err := d.Encoder.Encode(d.SRL[idx])
	if err != nil {
		return nil, fmt.Errorf("compose row %d: %v", idx, err)
	}

	var collated vidground.Example
	var numCmp int
	if d.appendEverywhere {
		// language tensors ride along with every video (sep / svsq)
		for _, out := range vidOuts {
			out.Update(srlOut)
		}
		collated, numCmp, err = CollateDictList(vidOuts, d.nvids)
		if err != nil {
			return nil, err
		}
	} else {
		collated, numCmp, err = CollateDictList(vidOuts, d.nvids)
		if err != nil {
			return nil, err
		}
		srlColl, _, err := CollateDictList([]vidground.Example{srlOut}, 1)
		if err != nil {
			return nil, err
		}
		collated.Update(srlColl)
	}

	if len(verbList) > d.nvids {
		verbList = verbList[:d.nvids]
	}
	nv := len(verbList)

	// pad the permutations with the identity over the unused slots
	spPad := make([]int, 0, d.nvids-numCmp)
	for ix := numCmp; ix < d.nvids; ix++ {
		spPad = append(spPad, ix)
	}
	perm = append(perm, spPad...)
	permInv = append(permInv, spPad...)

	numCmpMsk := make([]int, d.nvids)
	for i := 0; i < numCmp; i++ {
		numCmpMsk[i] = 1
	}

	collated.Update(vidground.Example{
		"permute":           vidground.FromInts(perm),
		"permute_inv":       vidground.FromInts(permInv),
		"target_cmp":        vidground.Scalar(float64(targCmp)),
		// row index 1 doubles as the filler: unused slots must point at
		// a valid row
		"new_srl_idxs":      vidground.FromInts(vidground.Pad(newIdxs, d.nvids, 1)),
		"sent_idx":          vidground.Scalar(float64(idx)),
		"num_cmp":           vidground.Scalar(float64(numCmp)),
		"num_cmp_msk":       vidground.FromInts(numCmpMsk),
		"num_cross_cmp_msk": eyePadded(numCmp, d.nvids),
		"verb_cmp":          vidground.FromInts(vidground.Pad(verbCmp, d.nvids, 0)),
		"verb_cross_cmp": boolMatrixPadded(nv, d.nvids, func(i, j int) bool {
			return verbList[i] == verbList[j]
		}),
		"verb_cross_cmp_msk": boolMatrixPadded(nv, d.nvids, func(i, j int) bool {
			return true
		}),
	})
	return collated, nil
}

// composeSingle is the single-video path: one segment plus the language
// tensors of its verb row.
func (d *Dataset) composeSingle(idx int) (vidground.Example, error) {
	if idx < 0 || idx >= len(d.SRL) {
		return nil, fmt.Errorf("compose: verb index %d out of range", idx)
	}
	row := d.SRL[idx]
	out, err := d.Builder.BuildSegment(row.AnnInd)
	if err != nil {
		return nil, err
	}
	srlOut, err := d.Encoder.Encode(row)
	if err != nil {
		return nil, err
	}
	out.Update(srlOut)
	out["ann_idx"] = vidground.Scalar(float64(row.AnnInd))
	out["sent_idx"] = vidground.Scalar(float64(idx))
	return out, nil
}
