package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMAD(t *testing.T) {
	assert.Equal(t, "1,234.56 MAD", MAD(decimal.RequireFromString("1234.555")))
	assert.Equal(t, "0.00 MAD", MAD(decimal.Zero))
	assert.Equal(t, "+1,000.00 MAD", SignedMAD(decimal.NewFromInt(1000)))
	assert.Equal(t, "-12.50 MAD", SignedMAD(decimal.RequireFromString("-12.5")))
	assert.Equal(t, "+0.00 MAD", SignedMAD(decimal.RequireFromString("-0.004")))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.35%", Percent(12.346))
	assert.Equal(t, "1,250.00%", Percent(1250))
	assert.Equal(t, "+5.00%", SignedPercent(5))
	assert.Equal(t, "-3.25%", SignedPercent(-3.25))
	assert.Equal(t, "+0.00%", SignedPercent(-0.004))
	assert.Equal(t, "-0.01%", SignedPercent(-0.005))
}
