// csv-import loads a legacy data.csv ledger into the SQLite store, marking
// imported rows as already exported so the worker does not write them back.
package main

import (
	"context"
	"flag"
	"os"

	"finledger/internal/cli"
	"finledger/internal/export"
)

func main() {
	csvPath := flag.String("csv", "", "path to the legacy CSV file (defaults to EXPORT_CSV_PATH)")
	flag.Parse()

	logger, cfg := cli.Bootstrap("csv-import")

	path := *csvPath
	if path == "" {
		path = cfg.ExportCSVPath
	}

	txs, err := export.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read CSV file", "error", err, "path", path)
		os.Exit(1)
	}
	if len(txs) == 0 {
		logger.Info("Nothing to import", "path", path)
		return
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := context.Background()
	imported := 0
	for _, tx := range txs {
		id, err := repo.Append(ctx, tx)
		if err != nil {
			logger.Error("Failed to import row", "error", err, "reason", tx.Reason, "date", tx.Date.Format("2006-01-02"))
			continue
		}
		// The row came from the CSV, so it is exported by definition
		if err := repo.MarkExported(ctx, id); err != nil {
			logger.Error("Failed to mark imported row as exported", "error", err, "id", id)
		}
		imported++
	}

	logger.Info("Import finished", "path", path, "rows", len(txs), "imported", imported)
}
