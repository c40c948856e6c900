package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coderag/index_go_server/config"
	"github.com/coderag/index_go_server/internal/database"
	"github.com/coderag/index_go_server/internal/model"
	"github.com/coderag/index_go_server/internal/repository"
)

var (
	dryRun  = flag.Bool("dry-run", true, "Dry run mode, don't actually delete anything")
	ageDays = flag.Int("age-days", 0, "Override retention window in days (0 uses config)")
)

func main() {
	flag.Parse()

	log.Println("Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	retention := cfg.Jobs.CleanAgeDays
	if *ageDays > 0 {
		retention = *ageDays
	}
	if retention <= 0 {
		retention = 30
	}

	jobRepo := repository.NewJobRepository(db)
	cutoff := time.Now().UTC().AddDate(0, 0, -retention)

	// Count first so dry-run has something to report.
	candidates, err := jobRepo.List("", "", 0)
	if err != nil {
		log.Fatalf("Failed to list jobs: %v", err)
	}

	expired := 0
	for _, job := range candidates {
		if model.IsTerminal(job.Status) && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			log.Printf("  - %s (%s, %s, completed %s)",
				job.ID, job.ProjectName, job.Status, job.CompletedAt.Format(time.RFC3339))
			expired++
		}
	}

	removed := int64(0)
	if !*dryRun && expired > 0 {
		removed, err = jobRepo.CleanOldJobs(retention)
		if err != nil {
			log.Fatalf("Failed to clean jobs: %v", err)
		}
	}

	reports := cleanReportFiles(cfg.Jobs.ReportDir, retention, *dryRun)

	log.Println(strings.Repeat("=", 60))
	log.Println("Cleanup Summary")
	log.Println(strings.Repeat("=", 60))
	log.Printf("Retention: %d days (cutoff %s)", retention, cutoff.Format(time.RFC3339))
	log.Printf("Expired jobs: %d", expired)
	log.Printf("Deleted jobs: %d", removed)
	log.Printf("Deleted reports: %d", reports)
	if *dryRun {
		log.Println("DRY RUN MODE - nothing was deleted")
		log.Println("Run with -dry-run=false to actually delete")
	} else {
		log.Println("Cleanup completed")
	}
	log.Println(strings.Repeat("=", 60))
}

// cleanReportFiles removes local completion reports past the retention window.
func cleanReportFiles(reportDir string, retention int, dryRun bool) int {
	if reportDir == "" {
		return 0
	}

	entries, err := os.ReadDir(reportDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Failed to read report dir %s: %v", reportDir, err)
		}
		return 0
	}

	expire := time.Duration(retention) * 24 * time.Hour
	cleaned := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if time.Since(info.ModTime()) > expire {
			path := filepath.Join(reportDir, entry.Name())
			log.Printf("  - %s (%s old)", entry.Name(), time.Since(info.ModTime()).Round(time.Hour))
			if !dryRun {
				if err := os.Remove(path); err != nil {
					log.Printf("    Failed to delete: %v", err)
					continue
				}
			}
			cleaned++
		}
	}
	return cleaned
}
