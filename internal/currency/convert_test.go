package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		dir    Direction
		scale  int32
		want   string
	}{
		{"multiply identity", "100.00", "1", Multiply, 2, "100.00"},
		{"multiply fractional rate", "100.00", "0.25", Multiply, 2, "25.00"},
		{"divide fractional rate", "25.00", "0.25", Divide, 2, "100.00"},
		{"rounding half up", "10.005", "1", Multiply, 2, "10.01"},
		{"scale four", "1", "0.3333", Multiply, 4, "0.3333"},
		{"repeating division", "10", "3", Divide, 2, "3.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(dec(tt.amount), dec(tt.rate), tt.dir, tt.scale)
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestConvertZeroRate(t *testing.T) {
	_, err := Convert(dec("10.00"), decimal.Zero, Divide, 2)
	assert.ErrorIs(t, err, ErrZeroRate)

	// Multiplying by zero is legal; it just zeroes the amount.
	got, err := Convert(dec("10.00"), decimal.Zero, Multiply, 2)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

// Round-tripping through a rate must land within one unit in the last place.
func TestConvertRoundTrip(t *testing.T) {
	rates := []string{"1", "0.5", "1.25", "7.77", "30.12"}
	amounts := []string{"0.01", "1.00", "99.99", "12345.67"}
	ulp := decimal.New(1, -2)

	for _, r := range rates {
		for _, a := range amounts {
			settled, err := Convert(dec(a), dec(r), Multiply, 2)
			require.NoError(t, err)
			back, err := Convert(settled, dec(r), Divide, 2)
			require.NoError(t, err)

			diff := back.Sub(dec(a)).Abs()
			assert.True(t, diff.LessThanOrEqual(ulp),
				"rate %s amount %s: round trip drifted by %s", r, a, diff)
		}
	}
}
