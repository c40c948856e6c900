package cron

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coderag/index_go_server/internal/repository"
)

// Service runs the periodic maintenance tasks: purging old terminal jobs
// and sweeping stale local report files.
type Service struct {
	jobRepo      *repository.JobRepository
	reportDir    string
	cleanAgeDays int
	stopChan     chan struct{}
}

func NewService(jobRepo *repository.JobRepository, reportDir string, cleanAgeDays int) *Service {
	return &Service{
		jobRepo:      jobRepo,
		reportDir:    reportDir,
		cleanAgeDays: cleanAgeDays,
		stopChan:     make(chan struct{}),
	}
}

func (s *Service) Start() {
	go s.runDailyCleanup()
	log.Println("Cron service started (job cleanup + report sweep)")
}

func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runDailyCleanup fires at the next UTC midnight, then every 24h.
func (s *Service) runDailyCleanup() {
	now := time.Now().UTC()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	timer := time.NewTimer(nextMidnight.Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.cleanupAll()
			timer.Reset(24 * time.Hour)
		}
	}
}

func (s *Service) cleanupAll() {
	jobs := s.cleanOldJobs()
	reports := s.cleanReportFiles()
	if jobs > 0 || reports > 0 {
		log.Printf("Cleanup summary: jobs=%d, reports=%d", jobs, reports)
	}
}

func (s *Service) cleanOldJobs() int64 {
	ageDays := s.cleanAgeDays
	if ageDays <= 0 {
		ageDays = 30
	}

	removed, err := s.jobRepo.CleanOldJobs(ageDays)
	if err != nil {
		log.Printf("Cleanup jobs: failed: %v", err)
		return 0
	}
	return removed
}

// cleanReportFiles removes local completion reports older than the job
// retention window.
func (s *Service) cleanReportFiles() int {
	if s.reportDir == "" {
		return 0
	}

	entries, err := os.ReadDir(s.reportDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Cleanup reports: failed to read dir %s: %v", s.reportDir, err)
		}
		return 0
	}

	ageDays := s.cleanAgeDays
	if ageDays <= 0 {
		ageDays = 30
	}
	expire := time.Duration(ageDays) * 24 * time.Hour

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
			path := filepath.Join(s.reportDir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("Cleanup reports: failed to remove %s: %v", path, err)
			} else {
				cleaned++
			}
		}
	}
	return cleaned
}

// RunNow triggers the cleanup immediately (tests, manual runs).
func (s *Service) RunNow() (int64, error) {
	ageDays := s.cleanAgeDays
	if ageDays <= 0 {
		ageDays = 30
	}
	return s.jobRepo.CleanOldJobs(ageDays)
}
