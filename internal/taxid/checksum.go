package taxid

import (
	"strings"

	"vigil/internal/validation"
)

// checkFunc is a pure per-jurisdiction validator over the stripped,
// upper-cased identifier. It returns the empty string when the identifier
// passes, otherwise exactly one of the format/checksum reason codes.
// Format is always rejected before a checksum is attempted.
type checkFunc func(normalized string) validation.ReasonCode

var checks = map[Kind]checkFunc{
	KindCPF:  checkCPF,
	KindCNPJ: checkCNPJ,
	KindCUIT: checkCUIT,
	KindRUT:  checkRUT,
	KindNIF:  checkNIF,
	KindEIN:  checkEIN,
}

// strip removes everything except letters and digits and upper-cases the
// rest, so "123.456.789-09" and "123456789-09" normalize identically.
func strip(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// allIdentical rejects degenerate inputs like 11111111111, which satisfy
// several mod-11 schemes despite being meaningless.
func allIdentical(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}

func digitsOf(s string) []int {
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int(s[i] - '0')
	}
	return out
}

func weightedSum(digits, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	return sum
}

// checkCPF validates the Brazilian natural-person identifier: 11 digits,
// two mod-11 check digits with descending weights.
func checkCPF(s string) validation.ReasonCode {
	if len(s) != 11 || !allDigits(s) || allIdentical(s) {
		return ReasonInvalidFormat
	}
	d := digitsOf(s)

	if cpfDigit(d[:9], 10) != d[9] || cpfDigit(d[:10], 11) != d[10] {
		return ReasonInvalidChecksum
	}
	return ""
}

func cpfDigit(d []int, startWeight int) int {
	sum := 0
	for i, v := range d {
		sum += v * (startWeight - i)
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

var (
	cnpjWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// checkCNPJ validates the Brazilian legal-entity identifier: 14 digits, two
// mod-11 check digits over table-driven weight vectors.
func checkCNPJ(s string) validation.ReasonCode {
	if len(s) != 14 || !allDigits(s) || allIdentical(s) {
		return ReasonInvalidFormat
	}
	d := digitsOf(s)

	if mod11Digit(weightedSum(d[:12], cnpjWeights1)) != d[12] ||
		mod11Digit(weightedSum(d[:13], cnpjWeights2)) != d[13] {
		return ReasonInvalidChecksum
	}
	return ""
}

func mod11Digit(sum int) int {
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

var cuitWeights = []int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// checkCUIT validates the Argentine identifier: 11 digits, one mod-11
// check digit.
func checkCUIT(s string) validation.ReasonCode {
	if len(s) != 11 || !allDigits(s) || allIdentical(s) {
		return ReasonInvalidFormat
	}
	d := digitsOf(s)

	rem := weightedSum(d[:10], cuitWeights) % 11
	check := 11 - rem
	switch check {
	case 11:
		check = 0
	case 10:
		check = 9
	}
	if check != d[10] {
		return ReasonInvalidChecksum
	}
	return ""
}

// checkRUT validates the Chilean identifier: a numeric body of 7-8 digits
// plus a verifier that is a digit or K, mod 11 with cycling 2..7 weights
// applied right to left.
func checkRUT(s string) validation.ReasonCode {
	if len(s) < 8 || len(s) > 9 {
		return ReasonInvalidFormat
	}
	body, verifier := s[:len(s)-1], s[len(s)-1]
	if !allDigits(body) || allIdentical(body) {
		return ReasonInvalidFormat
	}
	if verifier != 'K' && (verifier < '0' || verifier > '9') {
		return ReasonInvalidFormat
	}

	sum, weight := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}

	var want byte
	switch rem := 11 - sum%11; rem {
	case 11:
		want = '0'
	case 10:
		want = 'K'
	default:
		want = byte('0' + rem)
	}
	if verifier != want {
		return ReasonInvalidChecksum
	}
	return ""
}

const nifLetters = "TRWAGMYFPDXBNJZSQVHLCKE"

// checkNIF validates the Spanish identifier: 8 digits plus a control letter
// selected by the number modulo 23.
func checkNIF(s string) validation.ReasonCode {
	if len(s) != 9 {
		return ReasonInvalidFormat
	}
	body, letter := s[:8], s[8]
	if !allDigits(body) || allIdentical(body) {
		return ReasonInvalidFormat
	}
	if letter < 'A' || letter > 'Z' {
		return ReasonInvalidFormat
	}

	n := 0
	for _, d := range digitsOf(body) {
		n = n*10 + d
	}
	if nifLetters[n%23] != letter {
		return ReasonInvalidChecksum
	}
	return ""
}

// checkEIN validates the US employer identifier. It carries no check digit,
// so this is format-only: nine digits.
func checkEIN(s string) validation.ReasonCode {
	if len(s) != 9 || !allDigits(s) {
		return ReasonInvalidFormat
	}
	return ""
}
