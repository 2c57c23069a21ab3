// Package integration implements the scan, notify and backup ports.
package integration

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/gasdist/backend/internal/domain/integration"
)

// maxScanLength bounds a single scan; wedge scanners emit one code per read
const maxScanLength = 64

// KeyboardWedgeScanner decodes input from scanners that type the code as keystrokes,
// optionally wrapped in a configured prefix and suffix.
type KeyboardWedgeScanner struct {
	prefix string
	suffix string
}

// NewKeyboardWedgeScanner creates a scanner decoder
func NewKeyboardWedgeScanner(prefix, suffix string) *KeyboardWedgeScanner {
	return &KeyboardWedgeScanner{prefix: prefix, suffix: suffix}
}

// Decode strips framing and control characters and classifies the code. A 13-digit
// code must carry a valid EAN-13 check digit.
func (s *KeyboardWedgeScanner) Decode(_ context.Context, raw []byte) (integration.ScanResult, error) {
	text := string(raw)
	if s.prefix != "" {
		text = strings.TrimPrefix(text, s.prefix)
	}
	text = strings.TrimRight(text, "\r\n")
	if s.suffix != "" {
		text = strings.TrimSuffix(text, s.suffix)
	}
	code := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text))

	if code == "" {
		return integration.ScanResult{}, fmt.Errorf("%w: empty code", integration.ErrInvalidScan)
	}
	if len(code) > maxScanLength {
		return integration.ScanResult{}, fmt.Errorf("%w: code longer than %d characters", integration.ErrInvalidScan, maxScanLength)
	}

	if !isDigits(code) {
		return integration.ScanResult{Code: code, Symbology: integration.SymbologyText}, nil
	}
	if len(code) == 13 {
		if !ValidEAN13(code) {
			return integration.ScanResult{}, fmt.Errorf("%w: bad EAN-13 check digit", integration.ErrInvalidScan)
		}
		return integration.ScanResult{Code: code, Symbology: integration.SymbologyEAN13}, nil
	}
	return integration.ScanResult{Code: code, Symbology: integration.SymbologyNumeric}, nil
}

// ValidEAN13 reports whether code is 13 digits with a correct check digit
func ValidEAN13(code string) bool {
	if len(code) != 13 || !isDigits(code) {
		return false
	}
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(code[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return check == int(code[12]-'0')
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

var _ integration.ScanPort = (*KeyboardWedgeScanner)(nil)
