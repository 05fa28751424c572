package main

import (
	"flag"
	"log"
	"net/http"
	"path/filepath"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/db"
	"github.com/banshee-data/pulse.report/internal/hrv/export"
	"github.com/banshee-data/pulse.report/internal/hrv/ingest"
	"github.com/banshee-data/pulse.report/internal/hrv/pipeline"
	"github.com/banshee-data/pulse.report/internal/hrv/report"
)

var (
	inputFile  = flag.String("input", "", "Path to the PPG capture CSV")
	configFile = flag.String("config", "", "Optional analysis config JSON")
	outputDir  = flag.String("out", "results", "Directory for CSV and report output")
	dbFile     = flag.String("db", "hrv_results.db", "Path to the sqlite results store ('' to disable)")
	listen     = flag.String("listen", "", "Listen address to serve results over HTTP (e.g. :8080)")
	workers    = flag.Int("workers", 0, "Per-recording analysis workers (0 = one per CPU)")
	startID    = flag.Int("start-id", 0, "Skip capture records with a numeric ID below this")
)

func main() {
	flag.Parse()

	if *inputFile == "" {
		log.Fatal("-input is required")
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	records, err := ingest.ReadFile(*inputFile, cfg.GetArtifactAmplitudeMaximum())
	if err != nil {
		log.Fatalf("failed to read capture file: %v", err)
	}
	log.Printf("parsed %d records from %s", len(records), *inputFile)

	subjects := ingest.OrganizeSubjects(records, *startID)
	log.Printf("organised %d complete subjects", len(subjects))

	runner := pipeline.NewRunner(cfg, *workers)
	result := runner.Run(subjects)
	log.Printf("analysis complete: %d records, %d classifications, %d failures",
		len(result.Records), len(result.Classifications), len(result.Failures))
	for _, f := range result.Failures {
		log.Printf("  subject %d: %s", f.SubjectID, f.Message)
	}

	if err := export.WriteAll(*outputDir, result.Records, result.Group, result.Classifications); err != nil {
		log.Fatalf("failed to write CSV output: %v", err)
	}
	dashboard := filepath.Join(*outputDir, "dashboard.html")
	if err := report.WriteDashboardFile(dashboard, result.Group, result.Classifications); err != nil {
		log.Fatalf("failed to write dashboard: %v", err)
	}
	log.Printf("results written to %s", *outputDir)

	var store *db.DB
	if *dbFile != "" {
		store, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open results db: %v", err)
		}
		defer store.Close()

		runID, err := store.SaveRun(*inputFile, result)
		if err != nil {
			log.Fatalf("failed to save run: %v", err)
		}
		log.Printf("saved run %s to %s", runID, *dbFile)
	}

	if *listen != "" {
		server := NewServer(result, store)
		log.Printf("serving results on %s", *listen)
		if err := http.ListenAndServe(*listen, server.ServeMux()); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	}
}
