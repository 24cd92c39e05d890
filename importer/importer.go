package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"price-watcher/models"
)

// Required header columns of an import file, in any order
var requiredColumns = []string{"title", "url", "xpath"}

// ReadFile parses a CSV import file into products
func ReadFile(path string) ([]models.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses CSV import data. The first record must be a header containing
// the title, url and xpath columns; extra columns are ignored.
func Read(r io.Reader) ([]models.Product, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("import file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("import file is missing required columns: %s", strings.Join(missing, ", "))
	}

	var products []models.Product
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		p := models.Product{
			Title: strings.TrimSpace(record[columns["title"]]),
			URL:   strings.TrimSpace(record[columns["url"]]),
			XPath: strings.TrimSpace(record[columns["xpath"]]),
		}
		if p.Title == "" || p.URL == "" || p.XPath == "" {
			return nil, fmt.Errorf("line %d has an empty title, url or xpath", line)
		}
		products = append(products, p)
	}

	if len(products) == 0 {
		return nil, fmt.Errorf("import file has no product rows")
	}

	return products, nil
}
