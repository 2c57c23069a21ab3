package integration

import (
	"context"
	"testing"

	"github.com/gasdist/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboardWedgeScanner_Decode(t *testing.T) {
	scanner := NewKeyboardWedgeScanner("", "")
	ctx := context.Background()

	tests := []struct {
		name      string
		raw       string
		code      string
		symbology integration.Symbology
	}{
		{"ean13 with enter", "4006381333931\r\n", "4006381333931", integration.SymbologyEAN13},
		{"numeric", "  000123\n", "000123", integration.SymbologyNumeric},
		{"text", "CYL-13KG-0042\r", "CYL-13KG-0042", integration.SymbologyText},
		{"control chars removed", "\x02400638\x1d1333931\x03", "4006381333931", integration.SymbologyEAN13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scanner.Decode(ctx, []byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.symbology, got.Symbology)
		})
	}
}

func TestKeyboardWedgeScanner_DecodeRejects(t *testing.T) {
	scanner := NewKeyboardWedgeScanner("", "")
	ctx := context.Background()

	for name, raw := range map[string]string{
		"empty":           "",
		"only whitespace": " \r\n",
		"bad check digit": "4006381333932",
		"too long":        "ABCDEFGHIJKLMNOPQRSTUVWXYZABCDEFGHIJKLMNOPQRSTUVWXYZABCDEFGHIJKLM",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := scanner.Decode(ctx, []byte(raw))
			assert.ErrorIs(t, err, integration.ErrInvalidScan)
		})
	}
}

func TestKeyboardWedgeScanner_Framing(t *testing.T) {
	scanner := NewKeyboardWedgeScanner("]E0", "#")

	got, err := scanner.Decode(context.Background(), []byte("]E04006381333931#\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "4006381333931", got.Code)
	assert.Equal(t, integration.SymbologyEAN13, got.Symbology)
}

func TestValidEAN13(t *testing.T) {
	assert.True(t, ValidEAN13("4006381333931"))
	assert.True(t, ValidEAN13("5901234123457"))
	assert.False(t, ValidEAN13("5901234123458"))
	assert.False(t, ValidEAN13("590123412345"))
	assert.False(t, ValidEAN13("59012341234A7"))
}
