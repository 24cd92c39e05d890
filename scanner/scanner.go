package scanner

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"price-watcher/fetcher"
	"price-watcher/models"
	"price-watcher/price"
)

// Repository is the persistence surface the scanner needs
type Repository interface {
	ListProducts() ([]models.Product, error)
	AddPriceScan(productID int64, kopecks int64, scanTime time.Time) error
}

// Config holds the scan limits
type Config struct {
	MaxConcurrent int // maximum fetches in flight at once
	PageSizeLimit int // maximum serialized characters per report page
	LinesPerPage  int // flush a page after this many result lines
}

// Page is one bounded chunk of the scan report
type Page struct {
	Text  string
	Final bool
}

// Scanner runs one price scan over all tracked products
type Scanner struct {
	fetcher fetcher.Fetcher
	repo    Repository
	cfg     Config
	now     func() time.Time
}

// New creates a Scanner with explicit dependencies
func New(f fetcher.Fetcher, repo Repository, cfg Config) *Scanner {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	if cfg.PageSizeLimit <= 0 {
		cfg.PageSizeLimit = 4096
	}
	if cfg.LinesPerPage <= 0 {
		cfg.LinesPerPage = 10
	}

	return &Scanner{
		fetcher: f,
		repo:    repo,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Run starts a scan and returns the report as a lazy sequence of pages.
// The channel is closed after the final page; the final page is always
// present, carries the completion marker and is always last.
func (s *Scanner) Run() <-chan Page {
	pages := make(chan Page)
	go func() {
		defer close(pages)
		s.run(pages)
	}()
	return pages
}

type fetchResult struct {
	product models.Product
	text    string
	err     error
}

func (s *Scanner) run(pages chan<- Page) {
	products, err := s.repo.ListProducts()
	if err != nil {
		log.Printf("Error listing products: %v\n", err)
		pages <- s.errorPage(err)
		return
	}

	results := make(chan fetchResult)
	sem := make(chan struct{}, s.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for _, p := range products {
		wg.Add(1)
		go func(p models.Product) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			text, err := s.fetcher.Fetch(p.URL, p.XPath)
			results <- fetchResult{product: p, text: text, err: err}
		}(p)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	pager := newPager(pages, s.cfg.PageSizeLimit, s.cfg.LinesPerPage)

	// Results arrive in completion order; a slow page never holds up the
	// report for the ones that finished before it.
	for r := range results {
		raw := r.text
		if r.err != nil {
			log.Printf("Warning: Failed to fetch %s (%s): %v\n", r.product.Title, r.product.URL, r.err)
			raw = "" // recorded as a zero price below
		}

		kopecks := price.ToKopecks(raw)

		if err := s.repo.AddPriceScan(r.product.ID, kopecks, s.now().UTC()); err != nil {
			// One product's storage failure should not block reporting
			// on the rest.
			log.Printf("Warning: Failed to save price scan for %s: %v\n", r.product.Title, err)
		}

		line := fmt.Sprintf("%s (%s): %.2f ₽\n", r.product.Title, r.product.URL, float64(kopecks)/100)
		pager.addLine(line)
	}

	pager.finish()
}

// errorPage builds the single terminal page reported when the product
// list itself cannot be loaded.
func (s *Scanner) errorPage(err error) Page {
	text := fmt.Sprintf("Sorry, an error occurred: %v", err)
	if len(text) > s.cfg.PageSizeLimit {
		text = text[:runeCut(text, s.cfg.PageSizeLimit)]
	}
	return Page{Text: text, Final: true}
}

// runeCut returns the largest byte offset <= limit that falls on a rune
// boundary, so slicing at it never produces invalid UTF-8.
func runeCut(s string, limit int) int {
	if len(s) <= limit {
		return len(s)
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return limit
}

const (
	continuedMarker = "\nTo be continued..."
	finalMarker     = "End of the list."
)

// pager accumulates report lines and flushes size-bounded pages.
// A page is flushed once it holds linesPerPage lines or once the next line
// would push the serialized page past the size limit; the overflowing line
// starts the next page instead of being dropped.
type pager struct {
	out      chan<- Page
	limit    int
	maxLines int
	buf      strings.Builder
	lines    int
}

func newPager(out chan<- Page, limit, maxLines int) *pager {
	return &pager{out: out, limit: limit, maxLines: maxLines}
}

func (p *pager) addLine(line string) {
	// A single line larger than a whole page is hard-split across pages,
	// always on a rune boundary.
	capacity := p.limit - len(continuedMarker)
	for len(line) > capacity {
		if p.buf.Len() > 0 {
			p.flush()
		}
		cut := runeCut(line, capacity)
		p.buf.WriteString(line[:cut])
		line = line[cut:]
		p.lines = p.maxLines // force a flush before anything else is added
	}

	if p.buf.Len() > 0 && (p.lines >= p.maxLines || p.buf.Len()+len(line)+len(continuedMarker) > p.limit) {
		p.flush()
	}

	p.buf.WriteString(line)
	p.lines++
}

func (p *pager) flush() {
	p.out <- Page{Text: p.buf.String() + continuedMarker}
	p.buf.Reset()
	p.lines = 0
}

// finish emits the terminal page: the remaining lines, if any, followed by
// the completion marker. Emitted even when no lines were produced at all.
func (p *pager) finish() {
	p.out <- Page{Text: p.buf.String() + finalMarker, Final: true}
}
