package dataset

import (
	"math/rand"

	"github.com/vidgroundml/vidgroundml/vidground"
)

// BatchResult is one collated batch or the error that stopped the run.
type BatchResult struct {
	Batch vidground.Example
	Err   error
}

// Loader iterates a dataset in collated batches, building examples on
// NumWorkers goroutines. Batches come out in epoch order regardless of
// which worker finished first.
type Loader struct {
	DS         *Dataset
	BatchSize  int
	NumWorkers int
	// shuffle the epoch order, train only
	Shuffle bool
}

func NewLoader(ds *Dataset) *Loader {
	return &Loader{
		DS:         ds,
		BatchSize:  ds.Cfg.BatchSize,
		NumWorkers: ds.Cfg.NumWorkers,
		Shuffle:    ds.Split == vidground.TrainSplit,
	}
}

type loaderJob struct {
	pos int
	idx int
}

type loaderResult struct {
	pos int
	ex  vidground.Example
	err error
}

// Batches runs one epoch. The seed fixes both the epoch order and the
// per-example sampling, so a (seed, config) pair always reproduces the
// same batches.
func (l *Loader) Batches(seed int64) <-chan BatchResult {
	n := l.DS.Len()
	batchSize := l.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	numWorkers := l.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if l.Shuffle {
		epochRng := rand.New(rand.NewSource(seed))
		epochRng.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	jobs := make(chan loaderJob)
	results := make(chan loaderResult, numWorkers)
	out := make(chan BatchResult)

	for w := 0; w < numWorkers; w++ {
		go func() {
			for job := range jobs {
				// per-example rng keeps the epoch reproducible no
				// matter how positions land on workers
				rng := rand.New(rand.NewSource(seed + 1 + int64(job.pos)))
				ex, err := l.DS.Get(job.idx, rng)
				results <- loaderResult{pos: job.pos, ex: ex, err: err}
			}
		}()
	}

	go func() {
		for pos, idx := range order {
			jobs <- loaderJob{pos: pos, idx: idx}
		}
		close(jobs)
	}()

	go func() {
		defer close(out)
		pending := make(map[int]loaderResult)
		var cur []vidground.Example
		next := 0
		failed := false

		emit := func() {
			if len(cur) == 0 || failed {
				cur = nil
				return
			}
			batch, err := Collate(cur)
			cur = nil
			if err != nil {
				failed = true
				out <- BatchResult{Err: err}
				return
			}
			out <- BatchResult{Batch: batch}
		}

		for got := 0; got < n; got++ {
			res := <-results
			pending[res.pos] = res
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if failed {
					continue
				}
				if r.err != nil {
					failed = true
					out <- BatchResult{Err: r.err}
					continue
				}
				cur = append(cur, r.ex)
				if len(cur) == batchSize {
					emit()
				}
			}
		}
		emit()
	}()

	return out
}
