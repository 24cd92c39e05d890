package price

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxRawLen bounds the raw text we are willing to interpret as a price,
// in characters. Anything longer is page noise or an error message, not
// a price. Counted in runes: nbsp grouping and the ruble sign make real
// price strings much longer in bytes than in characters.
const maxRawLen = 20

// ToKopecks converts raw price text extracted from a page into kopecks.
//
// The text may contain currency symbols, whitespace and grouping characters;
// only ASCII digits and the decimal comma survive cleaning. Returns 0 for
// empty, overlong or unparseable input, so a failed fetch and an unreadable
// price both record the same "no usable price" observation.
//
// Note: the comma is the only recognized decimal separator. A period is
// stripped with the rest of the noise, so "99.99" parses as 9999 rubles.
func ToKopecks(raw string) int64 {
	if raw == "" || utf8.RuneCountInString(raw) > maxRawLen {
		return 0
	}

	var cleaned strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == ',' {
			cleaned.WriteRune(r)
		}
	}

	normalized := strings.ReplaceAll(cleaned.String(), ",", ".")

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0
	}

	// A 20-digit input can overflow int64 after the kopeck conversion;
	// treat it as unparseable rather than wrapping around.
	kopecks := value * 100
	if kopecks >= math.MaxInt64 {
		return 0
	}

	return int64(kopecks)
}
