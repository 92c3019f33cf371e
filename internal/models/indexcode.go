package models

import (
	"sort"
	"strconv"
	"strings"
)

var categoryRank = map[byte]int{'E': 0, 'S': 1, 'G': 2}

var categoryByLetter = map[byte]Category{
	'E': CategoryEnvironment,
	'S': CategorySocial,
	'G': CategoryGovernance,
}

// ParseIndexCode splits a code like "E-3" into its category letter and ordinal.
func ParseIndexCode(code string) (letter byte, ordinal int, ok bool) {
	code = strings.TrimSpace(code)
	i := strings.IndexByte(code, '-')
	if i != 1 {
		return 0, 0, false
	}
	letter = code[0] &^ 0x20 // upper-case
	if _, known := categoryRank[letter]; !known {
		return 0, 0, false
	}
	n, err := strconv.Atoi(code[2:])
	if err != nil || n < 0 {
		return 0, 0, false
	}
	return letter, n, true
}

// CategoryOf returns the category implied by an index code.
func CategoryOf(code string) (Category, bool) {
	letter, _, ok := ParseIndexCode(code)
	if !ok {
		return "", false
	}
	return categoryByLetter[letter], true
}

// CompareIndexCodes orders codes by category (E, S, G) and then numerically by
// ordinal. Malformed codes sort after well-formed ones, lexically among themselves.
func CompareIndexCodes(a, b string) int {
	la, na, oka := ParseIndexCode(a)
	lb, nb, okb := ParseIndexCode(b)
	switch {
	case oka && !okb:
		return -1
	case !oka && okb:
		return 1
	case !oka && !okb:
		return strings.Compare(a, b)
	}
	if ra, rb := categoryRank[la], categoryRank[lb]; ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return 0
}

// SortIndexCodes sorts codes in place.
func SortIndexCodes(codes []string) {
	sort.SliceStable(codes, func(i, j int) bool { return CompareIndexCodes(codes[i], codes[j]) < 0 })
}

// SortQuestions sorts questions in place by index code.
func SortQuestions(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool { return CompareIndexCodes(qs[i].IndexCode, qs[j].IndexCode) < 0 })
}
