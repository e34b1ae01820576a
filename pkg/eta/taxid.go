// Package eta holds small domain helpers for the Egyptian Tax Authority
// e-invoicing integration that do not depend on the rest of the application.
package eta

import (
	"fmt"
	"unicode"
)

const registrationNumberLength = 9

// NormalizeRegistrationNumber strips separators from an Egyptian tax
// registration number. "123-456-789" and "123 456 789" both become "123456789".
func NormalizeRegistrationNumber(taxID string) string {
	var out []rune
	for _, r := range taxID {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// ValidateRegistrationNumber checks that a tax registration number has the
// format the authority accepts: exactly 9 digits, optionally separated by
// dashes or spaces. This is a local pre-flight check; whether the number is
// actually registered is answered by the taxpayer lookup endpoint.
func ValidateRegistrationNumber(taxID string) error {
	digits := NormalizeRegistrationNumber(taxID)
	if len(digits) == 0 {
		return fmt.Errorf("eta: empty tax registration number")
	}
	if len(digits) != registrationNumberLength {
		return fmt.Errorf("eta: tax registration number must have %d digits, got %d", registrationNumberLength, len(digits))
	}
	if digits[0] == '0' {
		return fmt.Errorf("eta: tax registration number must not start with zero")
	}
	return nil
}
