package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, "0", Percent(0))
	assert.Equal(t, "100", Percent(100))
	assert.Equal(t, "57.3", Percent(57.34))
	assert.Equal(t, "0.1", Percent(0.05))
	assert.Equal(t, "99.9", Percent(99.94))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "00:00:00", Duration(0))
	assert.Equal(t, "00:00:00", Duration(59.9))
	assert.Equal(t, "00:00:01", Duration(60))
	assert.Equal(t, "00:01:00", Duration(3600))
	assert.Equal(t, "01:02:03", Duration(86400+2*3600+3*60+45))
	assert.Equal(t, "12:00:00", Duration(12*86400))
	assert.Equal(t, "00:00:00", Duration(-5))
}
