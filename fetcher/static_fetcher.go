package fetcher

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/gocolly/colly/v2"
)

// StaticFetcher implements the Fetcher interface with a plain HTTP fetch.
// It only sees server-rendered HTML, so it is suitable for pages that do
// not draw the price with JavaScript. Cheaper than a browser when it works.
type StaticFetcher struct{}

// NewStaticFetcher creates a new StaticFetcher instance
func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{}
}

// Fetch implements the Fetcher interface
func (sf *StaticFetcher) Fetch(url string, xpath string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	var body []byte
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("failed to visit URL: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("failed to fetch page: %w", fetchErr)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("empty response from %s", url)
	}

	return extractByXPath(string(body), xpath)
}

// extractByXPath returns the text content of the first node matching xpath
func extractByXPath(html string, xpath string) (string, error) {
	doc, err := htmlquery.Parse(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	node, err := htmlquery.QueryAll(doc, xpath)
	if err != nil {
		return "", fmt.Errorf("invalid xpath %q: %w", xpath, err)
	}
	if len(node) == 0 {
		return "", fmt.Errorf("no element found at %s", xpath)
	}

	return strings.TrimSpace(htmlquery.InnerText(node[0])), nil
}
