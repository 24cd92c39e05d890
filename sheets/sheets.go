package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"price-watcher/db"
	"price-watcher/models"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Service handles product import from and history export to Google Sheets
type Service struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewService creates a new Google Sheets service client
func NewService(spreadsheetID string, credentialsPath string) (*Service, error) {
	ctx := context.Background()

	// Read credentials from file or environment variable
	var credsJSON []byte
	var err error

	if credentialsPath != "" {
		credsJSON, err = os.ReadFile(credentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: GOOGLE_SHEETS_CREDENTIALS environment variable is empty or not set")
		}
		credsJSON = []byte(credsEnv)
	}

	// Parse and validate JSON
	var creds map[string]interface{}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON (check if JSON is properly formatted): %w", err)
	}

	// Validate that it's a service account credentials file
	if creds["type"] != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file (type: service_account), got type: %v", creds["type"])
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Service{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// ImportProducts reads tracked products from the first sheet of the
// spreadsheet. Expected layout: a header row followed by title, url, xpath
// in columns A, B, C.
func (s *Service) ImportProducts() ([]models.Product, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, "A:C").Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	if len(resp.Values) < 2 {
		return nil, fmt.Errorf("spreadsheet has no product rows")
	}

	var products []models.Product
	for i, row := range resp.Values[1:] { // skip header
		if len(row) < 3 {
			return nil, fmt.Errorf("row %d has fewer than 3 columns", i+2)
		}

		p := models.Product{
			Title: strings.TrimSpace(fmt.Sprint(row[0])),
			URL:   strings.TrimSpace(fmt.Sprint(row[1])),
			XPath: strings.TrimSpace(fmt.Sprint(row[2])),
		}
		if p.Title == "" || p.URL == "" || p.XPath == "" {
			return nil, fmt.Errorf("row %d has an empty title, url or xpath", i+2)
		}
		products = append(products, p)
	}

	log.Printf("Imported %d products from spreadsheet %s\n", len(products), s.spreadsheetID)
	return products, nil
}

// ExportHistory creates a new sheet at the beginning of the spreadsheet and
// writes the full recorded price history to it. Returns the created sheet
// name and sheet ID (gid).
func (s *Service) ExportHistory(history []db.ProductHistory) (string, int64, error) {
	sheetName := sanitizeSheetName(fmt.Sprintf("Prices_%s", time.Now().Format("20060102_150405")))

	addSheetRequest := &sheets.AddSheetRequest{
		Properties: &sheets.SheetProperties{
			Title: sheetName,
			Index: 0,
		},
	}

	batchUpdateRequest := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: addSheetRequest,
			},
		},
	}

	batchUpdateResp, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, batchUpdateRequest).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to create sheet: %w", err)
	}

	var sheetID int64
	if len(batchUpdateResp.Replies) > 0 && batchUpdateResp.Replies[0].AddSheet != nil {
		sheetID = batchUpdateResp.Replies[0].AddSheet.Properties.SheetId
	}

	// Prepare data
	var values [][]interface{}
	values = append(values, []interface{}{"Title", "Link", "Scan Time", "Price, ₽"})

	for _, h := range history {
		for _, scan := range h.Scans {
			values = append(values, []interface{}{
				h.Product.Title,
				h.Product.URL,
				scan.ScanTime.Format("02.01.2006 15:04"),
				float64(scan.Price) / 100,
			})
		}
	}

	valueRange := &sheets.ValueRange{Values: values}
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, fmt.Sprintf("%s!A1", sheetName), valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to write to sheet: %w", err)
	}

	log.Printf("Exported %d history rows to sheet '%s'\n", len(values)-1, sheetName)
	return sheetName, sheetID, nil
}

// sanitizeSheetName removes invalid characters from sheet name
func sanitizeSheetName(name string) string {
	// Google Sheets sheet names cannot contain: / \ ? * [ ]
	invalidChars := []string{"/", "\\", "?", "*", "[", "]"}
	result := name
	for _, char := range invalidChars {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = "Sheet1"
	}
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
func ExtractSpreadsheetID(url string) string {
	// Handle various URL formats:
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit
	// https://docs.google.com/spreadsheets/d/SPREADSHEET_ID/edit?usp=sharing
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.Index(idPart, "/"); idx != -1 {
		idPart = idPart[:idx]
	}
	if idx := strings.Index(idPart, "?"); idx != -1 {
		idPart = idPart[:idx]
	}

	return strings.TrimSpace(idPart)
}
