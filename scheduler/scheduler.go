package scheduler

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"price-watcher/scanner"
)

// Scheduler runs price scans on a cron schedule and delivers every report
// page through the configured sender.
type Scheduler struct {
	cron *cron.Cron
	scan func() <-chan scanner.Page
	send func(text string) error
}

// NewScheduler creates a scheduler. scan starts a fresh scan run and send
// delivers one report page (typically a Telegram message to the report chat).
func NewScheduler(spec string, scan func() <-chan scanner.Page, send func(text string) error) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		scan: scan,
		send: send,
	}

	if _, err := s.cron.AddFunc(spec, s.runScan); err != nil {
		return nil, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	return s, nil
}

// Start starts the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("Scheduler started")
}

// Stop stops the scheduler and waits for a running scan to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// runScan executes one scheduled scan and forwards all report pages
func (s *Scheduler) runScan() {
	log.Println("Scheduled scan started")

	for page := range s.scan() {
		if err := s.send(page.Text); err != nil {
			log.Printf("Error sending scheduled report page: %v\n", err)
		}
	}

	log.Println("Scheduled scan finished")
}
