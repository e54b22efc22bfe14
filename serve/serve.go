package serve

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/vidgroundml/vidgroundml/dataset"
	"github.com/vidgroundml/vidgroundml/vidground"

	gouuid "github.com/google/uuid"
	"github.com/gorilla/mux"
	sync "github.com/sasha-s/go-deadlock"
)

// Job is one running epoch iteration over a split.
type Job struct {
	UUID    string `json:"uuid"`
	Split   string `json:"split"`
	Seed    int64  `json:"seed"`
	Done    bool   `json:"done"`
	Emitted int    `json:"emitted"`

	batches <-chan dataset.BatchResult
}

// Server exposes the prepared examples over HTTP so that training
// processes in other languages can consume them.
type Server struct {
	Datasets map[string]*dataset.Dataset

	mu   sync.Mutex
	jobs map[string]*Job
}

func NewServer(datasets map[string]*dataset.Dataset) *Server {
	return &Server{
		Datasets: datasets,
		jobs:     make(map[string]*Job),
	}
}

type jobRequest struct {
	Split string `json:"split"`
	Seed  int64  `json:"seed"`
}

// nextResponse wraps one batch. Done marks epoch end; the batch is then
// absent.
type nextResponse struct {
	Done  bool              `json:"done"`
	Batch vidground.Example `json:"batch,omitempty"`
}

// dictResponse hands the language/detection lookups to the training
// process, which needs them to size its embedding tables and decode
// predictions.
type dictResponse struct {
	VocabSize     int            `json:"vocab_size"`
	DetectClasses int            `json:"detect_classes"`
	IxToWord      map[int]string `json:"ix_to_word"`
	Dtoi          map[string]int `json:"dtoi"`
}

func (s *Server) getDataset(split string) (*dataset.Dataset, error) {
	ds, ok := s.Datasets[split]
	if !ok {
		return nil, fmt.Errorf("no dataset for split %q", split)
	}
	return ds, nil
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/jobs", func(w http.ResponseWriter, req *http.Request) {
		var request jobRequest
		if err := vidground.ParseJsonRequest(w, req, &request); err != nil {
			return
		}
		ds, err := s.getDataset(request.Split)
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		if request.Seed == 0 {
			request.Seed = vidground.SeedRand().Int63()
		}
		job := &Job{
			UUID:    gouuid.New().String(),
			Split:   request.Split,
			Seed:    request.Seed,
			batches: dataset.NewLoader(ds).Batches(request.Seed),
		}
		s.mu.Lock()
		s.jobs[job.UUID] = job
		s.mu.Unlock()
		log.Printf("[serve] new job %s on split %s (seed %d)", job.UUID, job.Split, job.Seed)
		vidground.JsonResponse(w, job)
	}).Methods("POST")

	r.HandleFunc("/jobs", func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		jobs := make([]*Job, 0, len(s.jobs))
		for _, job := range s.jobs {
			jobs = append(jobs, job)
		}
		s.mu.Unlock()
		vidground.JsonResponse(w, jobs)
	}).Methods("GET")

	r.HandleFunc("/jobs/{job_id}", func(w http.ResponseWriter, req *http.Request) {
		jobID := mux.Vars(req)["job_id"]
		s.mu.Lock()
		job := s.jobs[jobID]
		delete(s.jobs, jobID)
		s.mu.Unlock()
		if job == nil {
			http.Error(w, "no such job", 404)
			return
		}
		// drain an abandoned epoch so its loader goroutines can exit
		go func() {
			for range job.batches {
			}
		}()
		log.Printf("[serve] dropped job %s", jobID)
		vidground.JsonResponse(w, true)
	}).Methods("DELETE")

	r.HandleFunc("/jobs/{job_id}/next", func(w http.ResponseWriter, req *http.Request) {
		jobID := mux.Vars(req)["job_id"]
		s.mu.Lock()
		job := s.jobs[jobID]
		s.mu.Unlock()
		if job == nil {
			http.Error(w, "no such job", 404)
			return
		}
		res, ok := <-job.batches
		if !ok {
			s.mu.Lock()
			job.Done = true
			s.mu.Unlock()
			vidground.JsonResponse(w, nextResponse{Done: true})
			return
		}
		if res.Err != nil {
			log.Printf("[serve] job %s: %v", jobID, res.Err)
			http.Error(w, res.Err.Error(), 500)
			return
		}
		s.mu.Lock()
		job.Emitted++
		s.mu.Unlock()
		vidground.JsonResponse(w, nextResponse{Batch: res.Batch})
	}).Methods("GET")

	r.HandleFunc("/examples/{idx}", func(w http.ResponseWriter, req *http.Request) {
		idx, err := strconv.Atoi(mux.Vars(req)["idx"])
		if err != nil {
			http.Error(w, "bad example index", 400)
			return
		}
		split := req.URL.Query().Get("split")
		if split == "" {
			split = vidground.ValidSplit
		}
		ds, err := s.getDataset(split)
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		seed := int64(0)
		if sstr := req.URL.Query().Get("seed"); sstr != "" {
			seed, err = strconv.ParseInt(sstr, 10, 64)
			if err != nil {
				http.Error(w, "bad seed", 400)
				return
			}
		}
		ex, err := ds.Get(idx, vidground.NewSeededRand(seed))
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		vidground.JsonResponse(w, ex)
	}).Methods("GET")

	r.HandleFunc("/examples/{idx}/render", func(w http.ResponseWriter, req *http.Request) {
		idx, err := strconv.Atoi(mux.Vars(req)["idx"])
		if err != nil {
			http.Error(w, "bad example index", 400)
			return
		}
		split := req.URL.Query().Get("split")
		if split == "" {
			split = vidground.ValidSplit
		}
		ds, err := s.getDataset(split)
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		ex, err := ds.Get(idx, vidground.NewSeededRand(0))
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		png, err := dataset.RenderComposite(ex, ds.Cfg.NumVidSample(split), "")
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}).Methods("GET")

	r.HandleFunc("/dicts", func(w http.ResponseWriter, req *http.Request) {
		split := req.URL.Query().Get("split")
		if split == "" {
			split = vidground.ValidSplit
		}
		ds, err := s.getDataset(split)
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}
		if ds.Dicts == nil {
			http.Error(w, "no dictionaries loaded", 404)
			return
		}
		vidground.JsonResponse(w, dictResponse{
			VocabSize:     ds.Dicts.VocabSize(),
			DetectClasses: ds.Dicts.DetectSize(),
			IxToWord:      ds.Dicts.Itow,
			Dtoi:          ds.Dicts.Dtoi,
		})
	}).Methods("GET")

	r.HandleFunc("/stats", func(w http.ResponseWriter, req *http.Request) {
		type splitStats struct {
			Examples int `json:"examples"`
			Segments int `json:"segments"`
		}
		stats := make(map[string]splitStats, len(s.Datasets))
		for split, ds := range s.Datasets {
			stats[split] = splitStats{
				Examples: ds.Len(),
				Segments: ds.Builder.Len(),
			}
		}
		vidground.JsonResponse(w, stats)
	}).Methods("GET")

	return r
}
