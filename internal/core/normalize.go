package core

import (
	"errors"
	"math/big"
	"strings"
	"unicode"
)

var errNotInteger = errors.New("not a base-10 integer")

// NormalizeCollegeCode turns a raw college code into its college id: the
// canonical decimal form of the integer it spells. "007" -> "7", "-0" -> "0".
// Surrounding whitespace, a leading sign, single underscores between digits
// ("1_000") and non-ASCII decimal digits are accepted; anything else yields
// a *CodeError.
func NormalizeCollegeCode(code string) (string, error) {
	digits, ok := asciiDigits(strings.TrimSpace(code))
	if !ok {
		return "", &CodeError{Code: code, Err: errNotInteger}
	}

	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return "", &CodeError{Code: code, Err: errNotInteger}
	}
	return n.String(), nil
}

// asciiDigits rewrites an optionally signed integer literal as plain ASCII
// digits, dropping digit-separating underscores.
func asciiDigits(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))

	if s != "" && (s[0] == '+' || s[0] == '-') {
		b.WriteByte(s[0])
		s = s[1:]
	}

	prevDigit := false
	pendingUnderscore := false
	for _, r := range s {
		switch {
		case r == '_':
			if !prevDigit || pendingUnderscore {
				return "", false
			}
			pendingUnderscore = true
		case unicode.IsDigit(r):
			b.WriteByte(byte('0' + digitValue(r)))
			prevDigit = true
			pendingUnderscore = false
		default:
			return "", false
		}
	}
	if !prevDigit || pendingUnderscore {
		return "", false
	}
	return b.String(), true
}

// digitValue returns the value of a decimal digit rune. Unicode assigns
// decimal digits in contiguous runs of ten starting at zero, so the value is
// the rune's offset within its run.
func digitValue(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}
	k := 0
	for unicode.IsDigit(r - rune(k) - 1) {
		k++
	}
	return k % 10
}
