package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	numberRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)`)

	digitReplacer = strings.NewReplacer(
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
		"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
		// extended Arabic-Indic (Farsi/Urdu)
		"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
		"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	)
)

type wordNumber struct {
	word  string
	value float64
}

// Checked in order; the first word present wins.
var wordNumbers = []wordNumber{
	{"صفر", 0}, {"واحد", 1}, {"اثنين", 2}, {"ثلاثة", 3}, {"اربعة", 4}, {"اربع", 4},
	{"خمسة", 5}, {"خمس", 5}, {"ستة", 6}, {"ست", 6}, {"سبعة", 7}, {"سبع", 7},
	{"ثمانية", 8}, {"ثمان", 8}, {"تسعة", 9}, {"تسع", 9}, {"عشرة", 10}, {"عشر", 10},
	{"عشرين", 20}, {"ثلاثين", 30}, {"اربعين", 40}, {"خمسين", 50},
	{"ستين", 60}, {"سبعين", 70}, {"ثمانين", 80}, {"تسعين", 90},
	{"مية", 100}, {"مائة", 100}, {"ميتين", 200}, {"مئتين", 200},
	{"الف", 1000}, {"ألف", 1000}, {"الفين", 2000},
}

// NormalizeDigits rewrites Arabic-Indic digits as ASCII digits
func NormalizeDigits(s string) string {
	return digitReplacer.Replace(s)
}

// ExtractNumber finds a quantity in text: Arabic-Indic digits are translated
// first, then the number-word table is consulted, then a decimal literal.
func ExtractNumber(text string) (float64, bool) {
	normalized := NormalizeDigits(text)

	tokens := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(normalized, isSeparator) {
		tokens[tok] = struct{}{}
	}
	for _, wn := range wordNumbers {
		if _, ok := tokens[wn.word]; ok {
			return wn.value, true
		}
	}

	if m := numberRe.FindStringSubmatch(normalized); len(m) >= 2 {
		v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '.' && r != ',')
}
