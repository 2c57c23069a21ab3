package integration

import (
	"context"
	"errors"
)

// Symbology identifies the barcode format of a scanned code
type Symbology string

const (
	SymbologyEAN13   Symbology = "ean13"
	SymbologyNumeric Symbology = "numeric"
	SymbologyText    Symbology = "text"
)

// ScanResult is a decoded barcode
type ScanResult struct {
	Code      string    `json:"code"`
	Symbology Symbology `json:"symbology"`
}

// ErrInvalidScan is returned when scanner input does not hold a usable code
var ErrInvalidScan = errors.New("invalid scan input")

// ScanPort turns raw scanner input into a code
type ScanPort interface {
	Decode(ctx context.Context, raw []byte) (ScanResult, error)
}
