package dataset

import (
	"fmt"
	"math/rand"

	"github.com/vidgroundml/vidgroundml/vidground"
)

// CandidateGenerator produces contrastive candidate groups for a verb
// row at train time. Eval splits never call it; they read the
// precomputed groups stored on the row.
type CandidateGenerator interface {
	// SimilarList returns groups of row indices whose sentences share
	// argument structure with row idx, keyed by the argument they were
	// mined for.
	SimilarList(rng *rand.Rand, rows []vidground.SRLRow, idx int) []vidground.ArgCandidates
	// RandomList returns groups of uniformly sampled row indices.
	RandomList(rng *rand.Rand, rows []vidground.SRLRow, idx int) []vidground.ArgCandidates
}

// RandomGenerator samples candidates uniformly from the other rows. It
// also serves as the SimilarList fallback when no argument-indexed
// candidate store is available.
type RandomGenerator struct {
	// candidates drawn per argument group
	PerArg int
}

func (g *RandomGenerator) perArg() int {
	if g.PerArg == 0 {
		return 4
	}
	return g.PerArg
}

func (g *RandomGenerator) RandomList(rng *rand.Rand, rows []vidground.SRLRow, idx int) []vidground.ArgCandidates {
	if len(rows) < 2 {
		return nil
	}
	var out []vidground.ArgCandidates
	for _, span := range rows[idx].ReqPatIx {
		if span.Arg == "V" {
			continue
		}
		idxs := make([]int, g.perArg())
		for i := range idxs {
			// avoid the target row itself
			cand := rng.Intn(len(rows) - 1)
			if cand >= idx {
				cand++
			}
			idxs[i] = cand
		}
		out = append(out, vidground.ArgCandidates{Arg: span.Arg, Idxs: idxs})
	}
	return out
}

func (g *RandomGenerator) SimilarList(rng *rand.Rand, rows []vidground.SRLRow, idx int) []vidground.ArgCandidates {
	return g.RandomList(rng, rows, idx)
}

// Sampler picks the contrastive candidate groups for one verb row,
// truncated to at most nvids-1 groups.
type Sampler struct {
	Cfg   *vidground.Config
	Split string
	Gen   CandidateGenerator

	sampleType string
	nvids      int
}

func NewSampler(cfg *vidground.Config, split string, gen CandidateGenerator) (*Sampler, error) {
	st := cfg.SampleType(split)
	if split != vidground.TrainSplit && st == "ds4_random" {
		return nil, fmt.Errorf("sampler: ds4_random is train-only")
	}
	return &Sampler{
		Cfg:        cfg,
		Split:      split,
		Gen:        gen,
		sampleType: st,
		nvids:      cfg.NumVidSample(split),
	}, nil
}

// truncateRandom keeps a random subset of at most n groups, preserving
// relative order of the kept groups.
func truncateRandom(rng *rand.Rand, groups []vidground.ArgCandidates, n int) []vidground.ArgCandidates {
	if len(groups) <= n {
		return groups
	}
	keep := rng.Perm(len(groups))[:n]
	mask := make([]bool, len(groups))
	for _, k := range keep {
		mask[k] = true
	}
	out := make([]vidground.ArgCandidates, 0, n)
	for i, g := range groups {
		if mask[i] {
			out = append(out, g)
		}
	}
	return out
}

// truncatePrefix keeps the first n groups. Eval must be deterministic,
// so the stored group order decides.
func truncatePrefix(groups []vidground.ArgCandidates, n int) []vidground.ArgCandidates {
	if len(groups) <= n {
		return groups
	}
	return groups[:n]
}

// MoreIdxs returns the candidate groups for row idx per the configured
// policy: random, ds4 (argument-similar), or a per-call coin flip
// between the two.
func (s *Sampler) MoreIdxs(rng *rand.Rand, rows []vidground.SRLRow, idx int) []vidground.ArgCandidates {
	st := s.sampleType
	if st == "ds4_random" {
		if rng.Float64() < 0.5 {
			st = "random"
		} else {
			st = "ds4"
		}
	}

	limit := s.nvids - 1
	if s.Split == vidground.TrainSplit {
		var groups []vidground.ArgCandidates
		if st == "random" {
			groups = s.Gen.RandomList(rng, rows, idx)
		} else {
			groups = s.Gen.SimilarList(rng, rows, idx)
		}
		return truncateRandom(rng, groups, limit)
	}

	if st == "random" {
		return truncatePrefix(rows[idx].RandDS4Inds, limit)
	}
	return truncatePrefix(rows[idx].DS4Inds, limit)
}
