package statsdb

import (
	"path/filepath"
	"testing"

	"github.com/petrisim/macchiato/batch"
)

func TestRecordBatchPersistsTotalsAndBuckets(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "stats.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	result := &batch.Result{
		Runs:        2,
		TotalClock:  10,
		PlaceTotals: map[string]*batch.PlaceTotal{"Q": {Ins: 6, Outs: 0, ResetCount: 0, TotalTokenTime: 3.5}},
		TransTotals: map[string]int{"T": 6},
		Buckets: &batch.BucketedStats{
			BucketWidth: 1,
			NumBuckets:  2,
			Tokens:      map[string][]batch.BucketStat{"Q": {{Mean: 1, SE: 0, N: 2}, {Mean: 2, SE: 0.1, N: 2}}},
			Resets:      map[string][]batch.BucketStat{"Q": {{}, {}}},
			Fired:       map[string][]batch.BucketStat{"T": {{}, {}}},
		},
	}

	if err := s.RecordBatch("batch-1", "demo", result); err != nil {
		t.Fatal(err)
	}

	var runs int
	if err := s.db.QueryRow(`SELECT runs FROM batches WHERE id = ?`, "batch-1").Scan(&runs); err != nil {
		t.Fatal(err)
	}
	if runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}

	var ins int
	if err := s.db.QueryRow(`SELECT ins FROM place_totals WHERE batch_id = ? AND place = ?`, "batch-1", "Q").Scan(&ins); err != nil {
		t.Fatal(err)
	}
	if ins != 6 {
		t.Fatalf("Q.ins = %d, want 6", ins)
	}

	var mean float64
	if err := s.db.QueryRow(`SELECT mean FROM bucket_stats WHERE batch_id = ? AND series = ? AND label = ? AND bucket = ?`,
		"batch-1", "tokens", "Q", 1).Scan(&mean); err != nil {
		t.Fatal(err)
	}
	if mean != 2 {
		t.Fatalf("bucket 1 mean = %g, want 2", mean)
	}
}
