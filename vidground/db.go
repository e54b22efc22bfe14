package vidground

import (
	_ "github.com/mattn/go-sqlite3"

	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	sync "github.com/sasha-s/go-deadlock"
)

const DbDebug bool = false

// AnnotDB reads annotation tables out of a SQLite file. The database is
// read-only after initialization; the mutex only serializes the shared
// *sql.DB handle across loader workers.
type AnnotDB struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenAnnotDB(fname string) (*AnnotDB, error) {
	if !FileExists(fname) {
		return nil, fmt.Errorf("annotation db %s: no such file", fname)
	}
	sdb, err := sql.Open("sqlite3", fname)
	if err != nil {
		return nil, fmt.Errorf("annotation db %s: %v", fname, err)
	}
	return &AnnotDB{db: sdb}, nil
}

func (d *AnnotDB) Close() error {
	return d.db.Close()
}

func (d *AnnotDB) query(q string, args ...interface{}) (*sql.Rows, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if DbDebug {
		log.Printf("[db] Query: %v", q)
	}
	return d.db.Query(q, args...)
}

// Annotations loads the segment rows, ordered by row index.
func (d *AnnotDB) Annotations(table string) ([]SegmentRow, error) {
	rows, err := d.query(fmt.Sprintf("SELECT vid_id, seg_id, vid_seg_id, ix FROM %s ORDER BY ix", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SegmentRow
	for rows.Next() {
		var row SegmentRow
		if err := rows.Scan(&row.VidID, &row.SegID, &row.VidSegID, &row.Index); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SRLAnnotations loads the verb rows. List-valued columns are stored as
// JSON text (the upstream exporter writes them that way).
func (d *AnnotDB) SRLAnnotations(table string) ([]SRLRow, error) {
	rows, err := d.query(fmt.Sprintf(
		"SELECT ann_ind, lemma_verb, words, tags, req_pat_ix, req_cls_pats, visual_word_idxs, ds4_inds, rand_ds4_inds FROM %s ORDER BY rowid", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SRLRow
	for rows.Next() {
		var row SRLRow
		var words, tags, pats, clsPats, visIdxs, ds4, randDS4 string
		if err := rows.Scan(&row.AnnInd, &row.LemmaVerb, &words, &tags, &pats, &clsPats, &visIdxs, &ds4, &randDS4); err != nil {
			return nil, err
		}
		for _, col := range []struct {
			raw  string
			dest interface{}
		}{
			{words, &row.Words},
			{tags, &row.Tags},
			{pats, &row.ReqPatIx},
			{clsPats, &row.ReqClsPats},
			{visIdxs, &row.VisualWordIdxs},
			{ds4, &row.DS4Inds},
			{randDS4, &row.RandDS4Inds},
		} {
			if col.raw == "" {
				continue
			}
			if err := json.Unmarshal([]byte(col.raw), col.dest); err != nil {
				return nil, fmt.Errorf("srl row %d: %v", len(out), err)
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
