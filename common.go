package consolida

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeCNPJ strips formatting from a CNPJ and left-pads it to 14
// digits. Sources publish it both formatted ("00.000.000/0001-91") and as
// a bare number that may have lost leading zeros. Returns "" when the
// input has no digits.
func NormalizeCNPJ(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if d == "" || len(d) > 14 {
		return ""
	}
	return strings.Repeat("0", 14-len(d)) + d
}

// FormatCNPJ renders a normalized CNPJ as 00.000.000/0001-91. Anything
// that is not 14 digits is returned unchanged.
func FormatCNPJ(s string) string {
	if len(s) != 14 {
		return s
	}
	return s[0:2] + "." + s[2:5] + "." + s[5:8] + "/" + s[8:12] + "-" + s[12:14]
}

// IsDate checks if date is in format YYYY-MM-DD.
func IsDate(date string) bool {
	if len(date) != len("2021-04-26") || strings.Count(date, "-") != 2 {
		return false
	}
	y, m, d := atoi(date[0:4]), atoi(date[5:7]), atoi(date[8:10])
	if y < 1970 || y > 2200 {
		return false
	}
	if m < 1 || m > 12 {
		return false
	}
	nDays := [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	return d >= 1 && d <= nDays[m]
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// FixDate converts dates from DD/MM/YYYY to YYYY-MM-DD; dates already in
// ISO form pass through. Returns "" for anything unparseable.
func FixDate(date string) string {
	date = strings.TrimSpace(date)
	if IsDate(date) {
		return date
	}
	if len(date) == len("26/04/2021") && strings.Count(date, "/") == 2 {
		iso := date[6:10] + "-" + date[3:5] + "-" + date[0:2]
		if IsDate(iso) {
			return iso
		}
	}
	return ""
}

// ParseDec parses a decimal that may use the Brazilian comma separator
// ("1.234,56" or "1234,56") or a plain dot. Unparseable or empty input
// yields the unknown sentinel, never zero.
func ParseDec(s string) Dec {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dec{}
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Dec{}
	}
	return DecOf(v)
}
