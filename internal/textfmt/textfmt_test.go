package textfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	assert.Equal(t, "4,992,000", Amount(4992000))
	assert.Equal(t, "416,000", Amount(416000.4))
	assert.Equal(t, "0", Amount(0))
}

func TestKWAndPercent(t *testing.T) {
	assert.Equal(t, "160 kW", KW(160))
	assert.Equal(t, "103.5 kW", KW(103.5))
	assert.Equal(t, "12.3%", Percent(12.345))
	assert.Equal(t, "0.0%", Percent(0))
}
