package dataset

import (
	"math"
	"strconv"
	"strings"
)

// NumberFormat controls how cell text is coerced to float64.
// Zero separators mean auto-detect; see DetectFormat for the per-column guess.
type NumberFormat struct {
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// commaUse is what a single cell says about the role of ','.
type commaUse int

const (
	commaAbsent commaUse = iota
	commaDecimal
	commaThousands
	// commaAmbiguous is one comma followed by exactly three digits, as in "1,234".
	commaAmbiguous
)

func cleanCell(s string) string {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "%", "")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	return strings.TrimSpace(raw)
}

func classifyComma(raw string) commaUse {
	c := strings.LastIndex(raw, ",")
	if c < 0 {
		return commaAbsent
	}
	if d := strings.LastIndex(raw, "."); d >= 0 {
		if c > d {
			return commaDecimal
		}
		return commaThousands
	}
	if strings.Count(raw, ",") > 1 {
		return commaThousands
	}
	tail := raw[c+1:]
	if len(tail) == 3 && strings.Trim(tail, "0123456789") == "" {
		return commaAmbiguous
	}
	return commaDecimal
}

// DetectFormat fixes the separators for a whole column so every cell is read
// the same way. Explicit separators in nf win. A comma counts as a decimal
// separator only when some cell proves it ("1,5", "1.234,5") and no cell
// proves the opposite; otherwise '.' is the decimal separator.
func DetectFormat(values []string, nf NumberFormat) NumberFormat {
	if nf.DecimalSeparator != 0 {
		return nf
	}
	switch nf.ThousandsSeparator {
	case ',':
		return NumberFormat{DecimalSeparator: '.', ThousandsSeparator: ','}
	case '.':
		return NumberFormat{DecimalSeparator: ',', ThousandsSeparator: '.'}
	}
	var decimalComma, thousandsComma bool
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		switch classifyComma(cleanCell(v)) {
		case commaDecimal:
			decimalComma = true
		case commaThousands, commaAmbiguous:
			thousandsComma = true
		}
	}
	out := NumberFormat{DecimalSeparator: '.', ThousandsSeparator: ','}
	if decimalComma && !thousandsComma {
		out = NumberFormat{DecimalSeparator: ',', ThousandsSeparator: '.'}
	}
	if nf.ThousandsSeparator == ' ' {
		out.ThousandsSeparator = ' '
	}
	return out
}

// ParseNumber converts a cell to a finite float64. Percent signs are dropped,
// so "12.5%" parses as 12.5. Spaces are always treated as digit grouping. A
// thousands separator must split the integer part into groups of three.
func ParseNumber(s string, nf NumberFormat) (float64, bool) {
	raw := cleanCell(s)
	if raw == "" {
		return 0, false
	}
	dec, thou := nf.DecimalSeparator, nf.ThousandsSeparator
	if dec == 0 {
		guess := DetectFormat([]string{raw}, NumberFormat{ThousandsSeparator: thou})
		dec, thou = guess.DecimalSeparator, guess.ThousandsSeparator
	}
	if thou == 0 {
		thou = '.'
		if dec == '.' {
			thou = ','
		}
	}
	raw = strings.ReplaceAll(raw, " ", "")
	if thou != ' ' && thou != dec {
		if !groupedByThree(raw, thou, dec) {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	// NaN and Inf spellings are accepted by ParseFloat but carry no usable magnitude.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// groupedByThree reports whether every thou in raw sits in the integer part
// with one to three leading digits and exactly three digits per later group.
func groupedByThree(raw string, thou, dec rune) bool {
	if !strings.ContainsRune(raw, thou) {
		return true
	}
	intPart, frac := raw, ""
	if i := strings.IndexRune(raw, dec); i >= 0 {
		intPart, frac = raw[:i], raw[i:]
	}
	if strings.ContainsRune(frac, thou) {
		return false
	}
	groups := strings.Split(strings.TrimLeft(intPart, "+-"), string(thou))
	if len(groups[0]) < 1 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}
