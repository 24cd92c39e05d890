package scheduler

import (
	"fmt"
	"testing"

	"price-watcher/scanner"
)

func fakeScan(pages ...scanner.Page) func() <-chan scanner.Page {
	return func() <-chan scanner.Page {
		ch := make(chan scanner.Page, len(pages))
		for _, p := range pages {
			ch <- p
		}
		close(ch)
		return ch
	}
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("not a cron spec", fakeScan(), func(string) error { return nil })
	if err == nil {
		t.Error("NewScheduler() expected error for invalid spec")
	}
}

func TestRunScanForwardsAllPages(t *testing.T) {
	var sent []string
	send := func(text string) error {
		sent = append(sent, text)
		return nil
	}

	s, err := NewScheduler("0 9 * * *", fakeScan(
		scanner.Page{Text: "page one"},
		scanner.Page{Text: "page two", Final: true},
	), send)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	s.runScan()

	if len(sent) != 2 {
		t.Fatalf("sent %d pages, want 2", len(sent))
	}
	if sent[0] != "page one" || sent[1] != "page two" {
		t.Errorf("sent = %v", sent)
	}
}

func TestRunScanContinuesOnSendFailure(t *testing.T) {
	var sent int
	send := func(text string) error {
		sent++
		return fmt.Errorf("telegram unavailable")
	}

	s, err := NewScheduler("@hourly", fakeScan(
		scanner.Page{Text: "a"},
		scanner.Page{Text: "b", Final: true},
	), send)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	s.runScan()

	if sent != 2 {
		t.Errorf("attempted %d sends, want 2", sent)
	}
}
