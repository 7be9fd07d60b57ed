package main

import (
	"github.com/google/uuid"

	"github.com/petrisim/macchiato/batch"
	"github.com/petrisim/macchiato/statsdb"
)

// persistStats writes one batch's results to a SQLite database, stamping
// the batch with a fresh run-group UUID.
func persistStats(dbPath, netName string, result *batch.Result) error {
	store, err := statsdb.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.RecordBatch(uuid.NewString(), netName, result)
}
