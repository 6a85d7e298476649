package utils

import (
	"errors"
	"strconv"
	"strings"
)

// NormalizeRUT strips formatting punctuation from a Chilean RUT and
// uppercases the check digit, so "11.111.111-1" and "111111111" compare
// equal. The result is what gets stored and matched against.
func NormalizeRUT(rut string) string {
	rut = strings.TrimSpace(rut)
	rut = strings.ReplaceAll(rut, ".", "")
	rut = strings.ReplaceAll(rut, "-", "")
	return strings.ToUpper(rut)
}

// ValidateRUT checks a normalized RUT: digits followed by a mod-11 check
// digit (0-9 or K). Only enforced when strict RUT mode is enabled.
func ValidateRUT(normalized string) error {
	if len(normalized) < 2 {
		return errors.New("rut is too short")
	}

	body := normalized[:len(normalized)-1]
	check := normalized[len(normalized)-1]

	if _, err := strconv.Atoi(body); err != nil {
		return errors.New("rut body must be numeric")
	}

	sum := 0
	factor := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}

	var expected byte
	switch rem := 11 - sum%11; rem {
	case 11:
		expected = '0'
	case 10:
		expected = 'K'
	default:
		expected = byte('0' + rem)
	}

	if check != expected {
		return errors.New("rut check digit mismatch")
	}
	return nil
}
