package sheets

import "testing"

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"edit url", "https://docs.google.com/spreadsheets/d/1AbCdEf/edit", "1AbCdEf"},
		{"sharing url", "https://docs.google.com/spreadsheets/d/1AbCdEf/edit?usp=sharing", "1AbCdEf"},
		{"query without slash", "https://docs.google.com/spreadsheets/d/1AbCdEf?gid=0", "1AbCdEf"},
		{"not a sheets url", "https://example.com/page", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractSpreadsheetID(tt.url); got != tt.expected {
				t.Errorf("ExtractSpreadsheetID(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestSanitizeSheetName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean name", "Prices_20240101", "Prices_20240101"},
		{"invalid characters", "a/b\\c?d*e[f]", "a_b_c_d_e_f_"},
		{"empty", "", "Sheet1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeSheetName(tt.input); got != tt.expected {
				t.Errorf("sanitizeSheetName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
