package fetcher

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractByXPath(t *testing.T) {
	html := `<html><body>
		<div id="main">
			<span class="price">1 234,56 ₽</span>
			<span class="old-price">1 500,00 ₽</span>
		</div>
	</body></html>`

	tests := []struct {
		name     string
		xpath    string
		expected string
		wantErr  bool
	}{
		{"by class", `//span[@class="price"]`, "1 234,56 ₽", false},
		{"by position", `//div[@id="main"]/span[2]`, "1 500,00 ₽", false},
		{"missing element", `//span[@class="discount"]`, "", true},
		{"invalid xpath", `///[`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractByXPath(html, tt.xpath)
			if (err != nil) != tt.wantErr {
				t.Errorf("extractByXPath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("extractByXPath() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStaticFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><span id="price">999,90 ₽</span></body></html>`)
	}))
	defer server.Close()

	sf := NewStaticFetcher()

	got, err := sf.Fetch(server.URL, `//span[@id="price"]`)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got != "999,90 ₽" {
		t.Errorf("Fetch() = %q, want %q", got, "999,90 ₽")
	}

	if _, err := sf.Fetch(server.URL, `//span[@id="missing"]`); err == nil {
		t.Error("Fetch() expected error for missing element")
	}
}
